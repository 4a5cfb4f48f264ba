package signals

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"refactor-bot/internal/model/entity"

	"go.uber.org/zap"
)

// ErrUnknownSignal is returned for metric ids no signal is registered for
var ErrUnknownSignal = errors.New("unknown signal")

// Signal represents any measurable metric about a code entity
type Signal interface {
	// Name returns the unique identifier for this signal (the metric id)
	Name() string

	// Category returns the category this signal belongs to
	Category() SignalCategory

	// Calculate computes the signal value for one entity of the graph
	Calculate(ctx context.Context, graph *entity.Graph, id entity.ID) (float64, error)

	// Description returns a human-readable description
	Description() string
}

// SignalCategory groups related signals
type SignalCategory string

const (
	CategorySize        SignalCategory = "size"
	CategoryInheritance SignalCategory = "inheritance"
	CategoryCohesion    SignalCategory = "cohesion"
	CategoryCoupling    SignalCategory = "coupling"
)

// SignalRegistry manages all available signals
type SignalRegistry struct {
	signals map[string]Signal
	logger  *zap.Logger
}

// NewSignalRegistry creates a new signal registry
func NewSignalRegistry(logger *zap.Logger) *SignalRegistry {
	return &SignalRegistry{
		signals: make(map[string]Signal),
		logger:  logger,
	}
}

// Register adds a signal to the registry
func (r *SignalRegistry) Register(signal Signal) {
	r.signals[signal.Name()] = signal
}

// Get retrieves a signal by name
func (r *SignalRegistry) Get(name string) (Signal, bool) {
	signal, ok := r.signals[name]
	return signal, ok
}

// GetAll returns all registered signals sorted by name
func (r *SignalRegistry) GetAll() []Signal {
	result := make([]Signal, 0, len(r.signals))
	for _, signal := range r.signals {
		result = append(result, signal)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name() < result[j].Name()
	})
	return result
}

// Names returns the registered metric ids sorted by name
func (r *SignalRegistry) Names() []string {
	names := make([]string, 0, len(r.signals))
	for name := range r.signals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Calculate computes the named signals for every entity of the graph into table,
// skipping metrics the table already holds. A nil table starts a new one.
func (r *SignalRegistry) Calculate(ctx context.Context, graph *entity.Graph, table Table, names []string) (Table, error) {
	if table == nil {
		table = make(Table, len(names))
	}

	for _, name := range names {
		if _, done := table[name]; done {
			continue
		}
		signal, ok := r.signals[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSignal, name)
		}

		values := make(map[string]float64, graph.Len())
		failures := 0
		for _, e := range graph.Entities() {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			value, err := signal.Calculate(ctx, graph, e.ID)
			if err != nil {
				// Leave the value out; storages requiring it will reject the run
				failures++
				continue
			}
			values[e.Identifier] = value
		}
		if failures > 0 {
			r.logger.Warn("Signal calculation failed for some entities",
				zap.String("signal", name),
				zap.Int("failures", failures))
		}
		table[name] = values
	}

	return table, nil
}

// Table maps metric id -> entity identifier -> value
type Table map[string]map[string]float64

// Lookup returns the value of a metric for an entity
func (t Table) Lookup(metric, identifier string) (float64, bool) {
	values, ok := t[metric]
	if !ok {
		return 0, false
	}
	value, ok := values[identifier]
	return value, ok
}

// ClassOf returns the class itself for classes and the declaring class otherwise
func ClassOf(graph *entity.Graph, id entity.ID) entity.ID {
	e := graph.Entity(id)
	if e.IsClass() {
		return id
	}
	return e.Class
}
