package distance

import (
	"fmt"

	"refactor-bot/internal/attributes"
)

const (
	StrategyRelevance = "relevance"
	StrategyMetrics   = "metrics"
)

// Strategy creates the calculator an algorithm uses for one storage
type Strategy interface {
	Name() string
	RequiredMetrics() []string
	New(storage *attributes.Storage) (Calculator, error)
}

type relevanceStrategy struct{}

func (relevanceStrategy) Name() string              { return StrategyRelevance }
func (relevanceStrategy) RequiredMetrics() []string { return nil }
func (relevanceStrategy) New(*attributes.Storage) (Calculator, error) {
	return NewRelevanceCalculator(), nil
}

type metricsStrategy struct {
	metrics []string
}

func (s metricsStrategy) Name() string              { return StrategyMetrics }
func (s metricsStrategy) RequiredMetrics() []string { return s.metrics }
func (s metricsStrategy) New(storage *attributes.Storage) (Calculator, error) {
	return NewMetricsCalculator(storage, s.metrics)
}

// Relevance is the Jaccard strategy over relevance sets
func Relevance() Strategy {
	return relevanceStrategy{}
}

// Metrics is the Euclidean strategy over the given metric vector
func Metrics(metrics []string) Strategy {
	if len(metrics) == 0 {
		metrics = DefaultMetrics
	}
	return metricsStrategy{metrics: append([]string(nil), metrics...)}
}

// StrategyByName resolves a configured strategy name; empty means relevance.
// metrics is the feature vector of the metrics strategy, empty meaning DefaultMetrics.
func StrategyByName(name string, metrics []string) (Strategy, error) {
	switch name {
	case "", StrategyRelevance:
		return Relevance(), nil
	case StrategyMetrics:
		return Metrics(metrics), nil
	default:
		return nil, fmt.Errorf("unknown distance strategy: %s", name)
	}
}
