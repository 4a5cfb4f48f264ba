package size

import (
	"context"

	"refactor-bot/internal/model/entity"
	"refactor-bot/internal/signals"
)

// NOMSignal measures Number of Methods of the (containing) class
type NOMSignal struct{}

// NewNOMSignal creates a new NOM signal
func NewNOMSignal() *NOMSignal {
	return &NOMSignal{}
}

func (s *NOMSignal) Name() string {
	return "NOM"
}

func (s *NOMSignal) Category() signals.SignalCategory {
	return signals.CategorySize
}

func (s *NOMSignal) Description() string {
	return "Number of Methods - total count of methods in the class"
}

func (s *NOMSignal) Calculate(ctx context.Context, graph *entity.Graph, id entity.ID) (float64, error) {
	return float64(countMembers(graph, signals.ClassOf(graph, id), entity.KindMethod)), nil
}

func countMembers(graph *entity.Graph, class entity.ID, kind entity.Kind) int {
	count := 0
	for _, m := range graph.Members(class) {
		if graph.Entity(m).Kind == kind {
			count++
		}
	}
	return count
}
