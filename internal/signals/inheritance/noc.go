package inheritance

import (
	"context"

	"refactor-bot/internal/model/entity"
	"refactor-bot/internal/signals"
)

// NOCSignal measures Number Of Children (direct subclasses)
type NOCSignal struct{}

// NewNOCSignal creates a new NOC signal
func NewNOCSignal() *NOCSignal {
	return &NOCSignal{}
}

func (s *NOCSignal) Name() string {
	return "NOC"
}

func (s *NOCSignal) Category() signals.SignalCategory {
	return signals.CategoryInheritance
}

func (s *NOCSignal) Description() string {
	return "Number Of Children - count of direct subclasses"
}

func (s *NOCSignal) Calculate(ctx context.Context, graph *entity.Graph, id entity.ID) (float64, error) {
	return float64(len(graph.Subclasses(signals.ClassOf(graph, id)))), nil
}
