package attributes

import (
	"fmt"

	"refactor-bot/internal/model/entity"
)

// MetricSource supplies scalar metrics by entity identifier
type MetricSource interface {
	Lookup(metric, identifier string) (float64, bool)
}

// NoRequestedMetricError reports a required metric that was not computed for an entity
type NoRequestedMetricError struct {
	Metric string
	Entity string
}

func (e *NoRequestedMetricError) Error() string {
	return fmt.Sprintf("requested metric %s was not calculated for %s", e.Metric, e.Entity)
}

// Attributes is what an algorithm sees of one entity: its relevance set and
// the metric values it declared as required
type Attributes struct {
	Entity  *entity.Entity
	metrics map[string]float64
}

// Relevant returns the relevance set of the entity
func (a *Attributes) Relevant() *entity.RelevantProperties {
	return a.Entity.Relevant
}

// Metric returns a required metric value
func (a *Attributes) Metric(name string) (float64, bool) {
	v, ok := a.metrics[name]
	return v, ok
}

// Vector returns the metric values in the given order, 0 for missing ones
func (a *Attributes) Vector(names []string) []float64 {
	v := make([]float64, len(names))
	for i, n := range names {
		v[i] = a.metrics[n]
	}
	return v
}

// Storage is the immutable per-run collection of class, method and field attributes
type Storage struct {
	graph   *entity.Graph
	classes []*Attributes
	inner   []*Attributes
	byID    []*Attributes
}

// NewStorage builds the attributes of every entity of graph, failing with
// NoRequestedMetricError when a required metric is missing for any of them
func NewStorage(graph *entity.Graph, metrics MetricSource, required []string) (*Storage, error) {
	s := &Storage{
		graph: graph,
		byID:  make([]*Attributes, graph.Len()),
	}

	for _, e := range graph.Entities() {
		a := &Attributes{Entity: e, metrics: make(map[string]float64, len(required))}
		for _, name := range required {
			if metrics == nil {
				return nil, &NoRequestedMetricError{Metric: name, Entity: e.Identifier}
			}
			v, ok := metrics.Lookup(name, e.Identifier)
			if !ok {
				return nil, &NoRequestedMetricError{Metric: name, Entity: e.Identifier}
			}
			a.metrics[name] = v
		}
		s.byID[e.ID] = a
	}

	for _, id := range graph.Classes() {
		s.classes = append(s.classes, s.byID[id])
	}
	for _, id := range graph.InnerEntities() {
		s.inner = append(s.inner, s.byID[id])
	}

	return s, nil
}

// Graph returns the underlying entity graph
func (s *Storage) Graph() *entity.Graph {
	return s.graph
}

// Classes returns class attributes sorted by identifier
func (s *Storage) Classes() []*Attributes {
	return s.classes
}

// Inner returns method and field attributes sorted by identifier
func (s *Storage) Inner() []*Attributes {
	return s.inner
}

// Get returns the attributes of an entity
func (s *Storage) Get(id entity.ID) *Attributes {
	return s.byID[id]
}
