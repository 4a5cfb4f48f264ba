package algorithms

import (
	"refactor-bot/internal/model/entity"
)

// OriginClass returns the class an entity belongs to before any move: the
// entity itself for a class, its declaring class otherwise
func OriginClass(e *entity.Entity) entity.ID {
	if e.IsClass() {
		return e.ID
	}
	return e.Class
}

// DominantClass returns the origin class contributing the most members to a
// community and how many members it contributed. Ties go to the class with
// the smallest identifier. An empty community yields entity.NoID.
func DominantClass(graph *entity.Graph, members []entity.ID) (entity.ID, int) {
	counts := make(map[entity.ID]int)
	for _, m := range members {
		counts[OriginClass(graph.Entity(m))]++
	}

	dominant, best := entity.NoID, 0
	for class, n := range counts {
		switch {
		case n > best:
			dominant, best = class, n
		case n == best && graph.Entity(class).Identifier < graph.Entity(dominant).Identifier:
			dominant = class
		}
	}
	return dominant, best
}

// ProposeMoves emits a move to target for every movable inner member whose
// origin class differs from target
func ProposeMoves(graph *entity.Graph, members []entity.ID, target string, accuracy float64) []Refactoring {
	var refactorings []Refactoring
	for _, m := range members {
		e := graph.Entity(m)
		if e.IsClass() || !e.Movable {
			continue
		}
		if graph.Entity(e.Class).Identifier == target {
			continue
		}
		refactorings = append(refactorings, Refactoring{
			Entity:   e.Identifier,
			Target:   target,
			Accuracy: accuracy,
		})
	}
	return refactorings
}
