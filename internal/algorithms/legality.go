package algorithms

import (
	"refactor-bot/internal/model/entity"
)

// OverrideConflict reports whether moving method e into target would break an
// override contract: e overrides a method declared in target or one of its
// supertypes, or target's hierarchy declares a method sharing an ancestor
// method with e.
func OverrideConflict(graph *entity.Graph, e *entity.Entity, target entity.ID) bool {
	if e.Kind != entity.KindMethod {
		return false
	}
	hierarchy := append([]entity.ID{target}, graph.Entity(target).Supertypes...)
	inHierarchy := make(map[entity.ID]bool, len(hierarchy))
	for _, c := range hierarchy {
		inHierarchy[c] = true
	}

	for _, ancestor := range e.OverriddenMethods {
		if inHierarchy[graph.Entity(ancestor).Class] {
			return true
		}
	}
	for _, c := range hierarchy {
		for _, m := range graph.Members(c) {
			if m != e.ID && graph.ShareAncestorMethod(e.ID, m) {
				return true
			}
		}
	}
	return false
}
