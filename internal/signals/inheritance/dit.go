package inheritance

import (
	"context"

	"refactor-bot/internal/model/entity"
	"refactor-bot/internal/signals"
)

// DITSignal measures Depth of Inheritance Tree
// Only supertypes known to the graph count; a class without one has depth 0
type DITSignal struct{}

// NewDITSignal creates a new DIT signal
func NewDITSignal() *DITSignal {
	return &DITSignal{}
}

func (s *DITSignal) Name() string {
	return "DIT"
}

func (s *DITSignal) Category() signals.SignalCategory {
	return signals.CategoryInheritance
}

func (s *DITSignal) Description() string {
	return "Depth of Inheritance Tree - longest supertype chain above the class"
}

func (s *DITSignal) Calculate(ctx context.Context, graph *entity.Graph, id entity.ID) (float64, error) {
	return float64(depth(graph, signals.ClassOf(graph, id), map[entity.ID]bool{})), nil
}

func depth(graph *entity.Graph, class entity.ID, visiting map[entity.ID]bool) int {
	if visiting[class] {
		return 0
	}
	visiting[class] = true
	defer delete(visiting, class)

	deepest := 0
	for _, super := range graph.DirectSupertypes(class) {
		if d := depth(graph, super, visiting) + 1; d > deepest {
			deepest = d
		}
	}
	return deepest
}
