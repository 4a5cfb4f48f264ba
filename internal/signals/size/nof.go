package size

import (
	"context"

	"refactor-bot/internal/model/entity"
	"refactor-bot/internal/signals"
)

// NOFSignal measures Number of Fields
type NOFSignal struct{}

// NewNOFSignal creates a new NOF signal
func NewNOFSignal() *NOFSignal {
	return &NOFSignal{}
}

func (s *NOFSignal) Name() string {
	return "NOF"
}

func (s *NOFSignal) Category() signals.SignalCategory {
	return signals.CategorySize
}

func (s *NOFSignal) Description() string {
	return "Number of Fields - total count of instance variables/fields in the class"
}

func (s *NOFSignal) Calculate(ctx context.Context, graph *entity.Graph, id entity.ID) (float64, error) {
	return float64(countMembers(graph, signals.ClassOf(graph, id), entity.KindField)), nil
}
