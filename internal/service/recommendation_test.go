package service

import (
	"context"
	"math"
	"sync"
	"testing"

	"refactor-bot/internal/algorithms"
	"refactor-bot/internal/algorithms/algotest"
	"refactor-bot/internal/config"
	"refactor-bot/internal/execution"
	"refactor-bot/internal/signals"
	"refactor-bot/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newService(t *testing.T, mutate func(*config.RecommendConfig)) *RecommendationService {
	t.Helper()
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	cfg.Recommend.Threads = 2
	if mutate != nil {
		mutate(&cfg.Recommend)
	}
	s, err := NewRecommendationService(cfg.Recommend, zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestRecommend_CombinesAllAlgorithms(t *testing.T) {
	s := newService(t, nil)
	graph := algotest.TwoClasses(t).Graph()

	var (
		mu   sync.Mutex
		last float64
	)
	report, err := s.Recommend(context.Background(), "scenario", graph, Request{
		OnProgress: func(f float64) {
			mu.Lock()
			last = math.Max(last, f)
			mu.Unlock()
		},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "combine", report.Mode)
	assert.Equal(t, 2, report.Classes)
	require.Len(t, report.Results, 4)
	for _, r := range report.Results {
		assert.False(t, r.Failed(), "%s: %v", r.AlgorithmName, r.Err)
		assert.Equal(t, report.RunID, r.RunID)
	}

	require.Len(t, report.Refactorings, 1)
	got := report.Refactorings[0]
	assert.Equal(t, "ClassB.methodB1()", got.Entity)
	assert.Equal(t, "ClassA", got.Target)
	// ARI 1, AKMeans 0.8, CCDA 0.75, HAC 0
	want := math.Sqrt((1 + 0.8*0.8 + 0.75*0.75 + 0) / 4)
	assert.InDelta(t, want, got.Accuracy, 1e-9)
	assert.InDelta(t, 1.0, last, 1e-9)
}

func TestRecommend_Intersect(t *testing.T) {
	s := newService(t, nil)
	graph := algotest.TwoClasses(t).Graph()

	report, err := s.Recommend(context.Background(), "scenario", graph, Request{Mode: "intersect"})
	require.NoError(t, err)
	require.Len(t, report.Refactorings, 1)
	assert.Equal(t, 0.0, report.Refactorings[0].Accuracy)

	report, err = s.Recommend(context.Background(), "scenario", graph, Request{Mode: "intersect", MinAccuracy: util.Ptr(0.5)})
	require.NoError(t, err)
	assert.Empty(t, report.Refactorings)
}

func TestRecommend_ExplicitZeroMinAccuracy(t *testing.T) {
	s := newService(t, func(c *config.RecommendConfig) { c.MinAccuracy = 0.5 })
	graph := algotest.TwoClasses(t).Graph()

	report, err := s.Recommend(context.Background(), "scenario", graph, Request{Mode: "intersect"})
	require.NoError(t, err)
	assert.Empty(t, report.Refactorings, "configured threshold applies when unset")

	report, err = s.Recommend(context.Background(), "scenario", graph, Request{Mode: "intersect", MinAccuracy: util.Ptr(0.0)})
	require.NoError(t, err)
	require.Len(t, report.Refactorings, 1)
	assert.Equal(t, 0.0, report.Refactorings[0].Accuracy)
}

func TestRecommend_SelectedAlgorithms(t *testing.T) {
	s := newService(t, nil)
	graph := algotest.TwoClasses(t).Graph()

	report, err := s.Recommend(context.Background(), "scenario", graph, Request{Algorithms: []string{"ARI"}})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "ARI", report.Results[0].AlgorithmName)
	require.Len(t, report.Refactorings, 1)
	assert.Equal(t, 1.0, report.Refactorings[0].Accuracy)

	_, err = s.Recommend(context.Background(), "scenario", graph, Request{Algorithms: []string{"Nope"}})
	assert.Error(t, err)

	_, err = s.Recommend(context.Background(), "scenario", graph, Request{Mode: "average"})
	assert.Error(t, err)
}

func TestRecommend_MetricsDistance(t *testing.T) {
	s := newService(t, func(c *config.RecommendConfig) { c.Distance = "metrics" })
	graph := algotest.Shapes(t).Graph()

	report, err := s.Recommend(context.Background(), "shapes", graph, Request{Algorithms: []string{"ARI", "AKMeans"}})
	require.NoError(t, err)
	for _, r := range report.Results {
		assert.False(t, r.Failed(), "%s: %v", r.AlgorithmName, r.Err)
	}
}

func TestRecommend_ConfiguredMetricVector(t *testing.T) {
	vector := []string{"NOM", "NOF", "ATFD", "TCC"}
	s := newService(t, func(c *config.RecommendConfig) {
		c.Distance = "metrics"
		c.Metrics = vector
	})

	ari, err := s.registry.Get("ARI")
	require.NoError(t, err)
	assert.Equal(t, vector, ari.RequiredMetrics())

	graph := algotest.Shapes(t).Graph()
	report, err := s.Recommend(context.Background(), "shapes", graph, Request{Algorithms: []string{"ARI", "AKMeans"}})
	require.NoError(t, err)
	for _, r := range report.Results {
		assert.False(t, r.Failed(), "%s: %v", r.AlgorithmName, r.Err)
	}
}

func TestNewRecommendationService_UnknownMetric(t *testing.T) {
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	cfg.Recommend.Distance = "metrics"
	cfg.Recommend.Metrics = []string{"WMC"}

	_, err := NewRecommendationService(cfg.Recommend, zap.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, signals.ErrUnknownSignal)
}

func TestStorageFactory_RequiredMetrics(t *testing.T) {
	s := newService(t, nil)
	graph := algotest.Shapes(t).Graph()
	storageFor := s.storageFactory(context.Background(), graph)

	storage, err := storageFor([]string{"NOM"})
	require.NoError(t, err)
	circle, ok := graph.Lookup("Circle")
	require.True(t, ok)
	nom, ok := storage.Get(circle.ID).Metric("NOM")
	require.True(t, ok)
	assert.Equal(t, 2.0, nom)

	storage, err = storageFor([]string{"NOM", "NOF"})
	require.NoError(t, err)
	nof, ok := storage.Get(circle.ID).Metric("NOF")
	require.True(t, ok)
	assert.Equal(t, 1.0, nof)

	_, err = storageFor([]string{"WMC"})
	assert.ErrorIs(t, err, signals.ErrUnknownSignal)
}

func TestRecommend_Canceled(t *testing.T) {
	s := newService(t, nil)
	graph := algotest.TwoClasses(t).Graph()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Recommend(ctx, "scenario", graph, Request{})
	require.Error(t, err)
	assert.True(t, execution.IsCanceled(err))
}

func TestFilter_TopN(t *testing.T) {
	refactorings := []algorithms.Refactoring{
		{Entity: "A.a()", Target: "B", Accuracy: 0.2},
		{Entity: "A.b()", Target: "B", Accuracy: 0.9},
		{Entity: "A.c()", Target: "C", Accuracy: 0.5},
		{Entity: "A.d()", Target: "C", Accuracy: 0.05},
	}

	got := filter(refactorings, 0.1, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "A.b()", got[0].Entity)
	assert.Equal(t, "A.c()", got[1].Entity)

	assert.Len(t, filter(refactorings, 0, 0), 4)
	assert.Len(t, filter(refactorings, 0.3, 0), 2)
}

func TestAlgorithms(t *testing.T) {
	s := newService(t, nil)
	assert.Equal(t, []string{"AKMeans", "ARI", "CCDA", "HAC"}, s.Algorithms())
	assert.Equal(t, config.DefaultAlgorithms, s.DefaultAlgorithms())
}
