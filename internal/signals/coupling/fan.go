package coupling

import (
	"context"

	"refactor-bot/internal/model/entity"
	"refactor-bot/internal/signals"
)

// FanInSignal counts the distinct entities outside the class that use this entity.
// For a class it counts users of the class or any of its members.
type FanInSignal struct{}

// NewFanInSignal creates a new FANIN signal
func NewFanInSignal() *FanInSignal {
	return &FanInSignal{}
}

func (s *FanInSignal) Name() string {
	return "FANIN"
}

func (s *FanInSignal) Category() signals.SignalCategory {
	return signals.CategoryCoupling
}

func (s *FanInSignal) Description() string {
	return "Fan-In - number of foreign entities referencing this entity"
}

func (s *FanInSignal) Calculate(ctx context.Context, graph *entity.Graph, id entity.ID) (float64, error) {
	return float64(len(foreign(graph, id, graph.Referrers))), nil
}

// FanOutSignal counts the distinct entities outside the class this entity uses
type FanOutSignal struct{}

// NewFanOutSignal creates a new FANOUT signal
func NewFanOutSignal() *FanOutSignal {
	return &FanOutSignal{}
}

func (s *FanOutSignal) Name() string {
	return "FANOUT"
}

func (s *FanOutSignal) Category() signals.SignalCategory {
	return signals.CategoryCoupling
}

func (s *FanOutSignal) Description() string {
	return "Fan-Out - number of foreign entities referenced by this entity"
}

func (s *FanOutSignal) Calculate(ctx context.Context, graph *entity.Graph, id entity.ID) (float64, error) {
	return float64(len(foreign(graph, id, graph.References))), nil
}

// foreign collects the neighbours of id (or of its members, for a class)
// that belong to a different class
func foreign(graph *entity.Graph, id entity.ID, neighbours func(entity.ID) []entity.ID) map[entity.ID]struct{} {
	home := signals.ClassOf(graph, id)
	sources := []entity.ID{id}
	if graph.Entity(id).IsClass() {
		sources = append(sources, graph.Members(id)...)
	}

	result := make(map[entity.ID]struct{})
	for _, src := range sources {
		for _, n := range neighbours(src) {
			if signals.ClassOf(graph, n) != home {
				result[n] = struct{}{}
			}
		}
	}
	return result
}
