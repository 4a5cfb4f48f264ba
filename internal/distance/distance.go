package distance

import (
	"fmt"
	"math"

	"refactor-bot/internal/attributes"
	"refactor-bot/internal/model/entity"
	"refactor-bot/internal/signals/utils"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Calculator measures how dissimilar two entities are. Smaller is closer.
type Calculator interface {
	Distance(a, b *attributes.Attributes) float64
}

// RelevanceCalculator is the Jaccard dissimilarity of two relevance sets
type RelevanceCalculator struct{}

// NewRelevanceCalculator creates a relevance based calculator
func NewRelevanceCalculator() *RelevanceCalculator {
	return &RelevanceCalculator{}
}

// Distance returns 1 - |A ∩ B| / |A ∪ B|, or 1 when the union is empty
func (c *RelevanceCalculator) Distance(a, b *attributes.Attributes) float64 {
	return Jaccard(a.Relevant(), b.Relevant())
}

// Jaccard computes the weighted Jaccard dissimilarity of two relevance sets
func Jaccard(a, b *entity.RelevantProperties) float64 {
	union := a.SizeOfUnion(b)
	if union == 0 {
		return 1
	}
	return 1 - a.SizeOfIntersection(b)/union
}

// DefaultMetrics is the feature vector used by the metrics calculator
var DefaultMetrics = []string{"DIT", "NOC", "FANIN", "FANOUT"}

// MetricsCalculator is the Euclidean distance between normalised metric vectors
type MetricsCalculator struct {
	metrics    []string
	min        []float64
	max        []float64
	normalizer *utils.Normalizer
}

// NewMetricsCalculator derives per-metric ranges from every entity of the storage
func NewMetricsCalculator(storage *attributes.Storage, metrics []string) (*MetricsCalculator, error) {
	if len(metrics) == 0 {
		return nil, fmt.Errorf("metrics calculator needs at least one metric")
	}
	c := &MetricsCalculator{
		metrics:    metrics,
		min:        make([]float64, len(metrics)),
		max:        make([]float64, len(metrics)),
		normalizer: utils.NewNormalizer(),
	}
	for i := range metrics {
		c.min[i] = math.Inf(1)
		c.max[i] = math.Inf(-1)
	}

	all := append(append([]*attributes.Attributes(nil), storage.Classes()...), storage.Inner()...)
	for _, a := range all {
		for i, name := range metrics {
			v, ok := a.Metric(name)
			if !ok {
				return nil, &attributes.NoRequestedMetricError{Metric: name, Entity: a.Entity.Identifier}
			}
			c.min[i] = math.Min(c.min[i], v)
			c.max[i] = math.Max(c.max[i], v)
		}
	}
	return c, nil
}

// RequiredMetrics lists the metrics this calculator reads
func (c *MetricsCalculator) RequiredMetrics() []string {
	return c.metrics
}

// Distance returns the Euclidean distance of the two normalised vectors
func (c *MetricsCalculator) Distance(a, b *attributes.Attributes) float64 {
	va, vb := a.Vector(c.metrics), b.Vector(c.metrics)
	total := 0.0
	for i := range c.metrics {
		d := c.normalizer.Normalize(va[i], c.min[i], c.max[i]) - c.normalizer.Normalize(vb[i], c.min[i], c.max[i])
		total += d * d
	}
	return math.Sqrt(total)
}

// CachedCalculator memoises a symmetric calculator by entity pair
type CachedCalculator struct {
	inner Calculator
	cache *lru.Cache[[2]entity.ID, float64]
}

// NewCachedCalculator wraps inner with an LRU cache of the given size
func NewCachedCalculator(inner Calculator, size int) (*CachedCalculator, error) {
	cache, err := lru.New[[2]entity.ID, float64](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create distance cache: %w", err)
	}
	return &CachedCalculator{inner: inner, cache: cache}, nil
}

func (c *CachedCalculator) Distance(a, b *attributes.Attributes) float64 {
	key := [2]entity.ID{a.Entity.ID, b.Entity.ID}
	if key[0] > key[1] {
		key[0], key[1] = key[1], key[0]
	}
	if d, ok := c.cache.Get(key); ok {
		return d
	}
	d := c.inner.Distance(a, b)
	c.cache.Add(key, d)
	return d
}
