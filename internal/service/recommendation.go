package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"refactor-bot/internal/algorithms"
	"refactor-bot/internal/algorithms/akmeans"
	"refactor-bot/internal/algorithms/ari"
	"refactor-bot/internal/algorithms/ccda"
	"refactor-bot/internal/algorithms/hac"
	"refactor-bot/internal/attributes"
	"refactor-bot/internal/combiner"
	"refactor-bot/internal/config"
	"refactor-bot/internal/distance"
	"refactor-bot/internal/execution"
	"refactor-bot/internal/model/entity"
	"refactor-bot/internal/signals"
	"refactor-bot/internal/signals/cohesion"
	"refactor-bot/internal/signals/coupling"
	"refactor-bot/internal/signals/inheritance"
	"refactor-bot/internal/signals/size"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidRequest marks requests rejected before any work starts
var ErrInvalidRequest = errors.New("invalid request")

// Request selects what one recommendation run does. Zero values, and a nil
// MinAccuracy, fall back to the service configuration.
type Request struct {
	Algorithms  []string `json:"algorithms,omitempty"`
	Mode        string   `json:"mode,omitempty"`
	MinAccuracy *float64 `json:"min_accuracy,omitempty"`
	TopN        int      `json:"top_n,omitempty"`
	Threads     int      `json:"threads,omitempty"`

	OnProgress execution.Reporter `json:"-"`
}

// Report is the outcome of one recommendation run
type Report struct {
	RunID        string                        `json:"run_id"`
	Repository   string                        `json:"repository,omitempty"`
	Mode         string                        `json:"mode"`
	Classes      int                           `json:"classes"`
	Entities     int                           `json:"entities"`
	Results      []*algorithms.AlgorithmResult `json:"results"`
	Refactorings []algorithms.Refactoring      `json:"refactorings"`
	Elapsed      time.Duration                 `json:"elapsed_ns"`
}

// RecommendationService runs the recommendation algorithms over an entity graph
type RecommendationService struct {
	config   config.RecommendConfig
	signals  *signals.SignalRegistry
	registry *algorithms.Registry
	logger   *zap.Logger
}

// NewSignalRegistry registers every metric the algorithms can ask for
func NewSignalRegistry(logger *zap.Logger) *signals.SignalRegistry {
	registry := signals.NewSignalRegistry(logger)
	registry.Register(size.NewNOMSignal())
	registry.Register(size.NewNOFSignal())
	registry.Register(inheritance.NewDITSignal())
	registry.Register(inheritance.NewNOCSignal())
	registry.Register(coupling.NewFanInSignal())
	registry.Register(coupling.NewFanOutSignal())
	registry.Register(coupling.NewATFDSignal())
	registry.Register(cohesion.NewTCCSignal())
	return registry
}

// NewAlgorithmRegistry registers the four algorithms tuned by cfg
func NewAlgorithmRegistry(cfg config.RecommendConfig, logger *zap.Logger) (*algorithms.Registry, error) {
	strategy, err := distance.StrategyByName(cfg.Distance, cfg.Metrics)
	if err != nil {
		return nil, err
	}

	registry := algorithms.NewRegistry(logger)
	registry.Register(ari.New(strategy))
	registry.Register(akmeans.New(cfg.AKMeansSteps, strategy))
	registry.Register(ccda.New(cfg.CCDAEpsilon))
	registry.Register(hac.New(hac.Options{
		SampleSize: cfg.HACSampleSize,
		Seed:       cfg.Seed,
		Strategy:   strategy,
	}))
	return registry, nil
}

func NewRecommendationService(cfg config.RecommendConfig, logger *zap.Logger) (*RecommendationService, error) {
	registry, err := NewAlgorithmRegistry(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create algorithm registry: %w", err)
	}
	signalRegistry := NewSignalRegistry(logger)
	for _, name := range registry.Names() {
		algorithm, _ := registry.Get(name)
		for _, metric := range algorithm.RequiredMetrics() {
			if _, ok := signalRegistry.Get(metric); !ok {
				return nil, fmt.Errorf("algorithm %s requires %w: %s", name, signals.ErrUnknownSignal, metric)
			}
		}
	}
	return &RecommendationService{
		config:   cfg,
		signals:  signalRegistry,
		registry: registry,
		logger:   logger,
	}, nil
}

// Algorithms lists the registered algorithm names
func (s *RecommendationService) Algorithms() []string {
	return s.registry.Names()
}

// MetricInfo describes one metric the metrics distance can use
type MetricInfo struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// Metrics lists the registered metrics sorted by name
func (s *RecommendationService) Metrics() []MetricInfo {
	all := s.signals.GetAll()
	infos := make([]MetricInfo, 0, len(all))
	for _, signal := range all {
		infos = append(infos, MetricInfo{
			Name:        signal.Name(),
			Category:    string(signal.Category()),
			Description: signal.Description(),
		})
	}
	return infos
}

// DefaultAlgorithms lists the algorithms run when a request names none
func (s *RecommendationService) DefaultAlgorithms() []string {
	if len(s.config.Algorithms) > 0 {
		return s.config.Algorithms
	}
	return s.registry.Names()
}

// storageFactory computes each metric at most once and only when an algorithm requires it
func (s *RecommendationService) storageFactory(ctx context.Context, graph *entity.Graph) algorithms.StorageFunc {
	var (
		mu    sync.Mutex
		table signals.Table
		plain *attributes.Storage
	)
	return func(required []string) (*attributes.Storage, error) {
		mu.Lock()
		defer mu.Unlock()

		if len(required) == 0 {
			if plain == nil {
				storage, err := attributes.NewStorage(graph, nil, nil)
				if err != nil {
					return nil, err
				}
				plain = storage
			}
			return plain, nil
		}

		start := time.Now()
		updated, err := s.signals.Calculate(ctx, graph, table, required)
		if err != nil {
			return nil, fmt.Errorf("failed to calculate metrics: %w", err)
		}
		table = updated
		s.logger.Debug("Calculated metrics",
			zap.Strings("metrics", required),
			zap.Int("entities", graph.Len()),
			zap.Duration("elapsed", time.Since(start)))
		return attributes.NewStorage(graph, table, required)
	}
}

// Recommend runs the requested algorithms on graph and merges their proposals
func (s *RecommendationService) Recommend(ctx context.Context, repo string, graph *entity.Graph, req Request) (*Report, error) {
	start := time.Now()

	names := req.Algorithms
	if len(names) == 0 {
		names = s.DefaultAlgorithms()
	}
	mode := req.Mode
	if mode == "" {
		mode = s.config.Mode
	}
	if mode == "" {
		mode = combiner.ModeCombine
	}
	if mode != combiner.ModeCombine && mode != combiner.ModeIntersect {
		return nil, fmt.Errorf("%w: unknown combination mode %s", ErrInvalidRequest, mode)
	}
	for _, name := range names {
		if _, err := s.registry.Get(name); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
	}
	threads := req.Threads
	if threads <= 0 {
		threads = s.config.Threads
	}
	minAccuracy := s.config.MinAccuracy
	if req.MinAccuracy != nil {
		minAccuracy = *req.MinAccuracy
	}

	runID := uuid.New().String()
	s.logger.Info("Starting recommendation run",
		zap.String("run_id", runID),
		zap.String("repo", repo),
		zap.Strings("algorithms", names),
		zap.String("mode", mode),
		zap.Int("threads", threads),
		zap.Int("entities", graph.Len()))

	progress := execution.NewProgress(req.OnProgress)
	results, err := s.registry.RunAll(ctx, names, s.storageFactory(ctx, graph), algorithms.RunOptions{
		RunID:    runID,
		Threads:  threads,
		Progress: progress,
	})
	if err != nil {
		return nil, err
	}

	merged, err := combiner.Merge(mode, results)
	if err != nil {
		return nil, err
	}
	refactorings := filter(merged, minAccuracy, req.TopN)

	report := &Report{
		RunID:        runID,
		Repository:   repo,
		Mode:         mode,
		Classes:      len(graph.Classes()),
		Entities:     graph.Len(),
		Results:      results,
		Refactorings: refactorings,
		Elapsed:      time.Since(start),
	}

	s.logger.Info("Recommendation run finished",
		zap.String("run_id", runID),
		zap.Int("refactorings", len(refactorings)),
		zap.Duration("elapsed", report.Elapsed))
	return report, nil
}

// filter drops proposals below minAccuracy and keeps the topN most accurate
func filter(refactorings []algorithms.Refactoring, minAccuracy float64, topN int) []algorithms.Refactoring {
	kept := make([]algorithms.Refactoring, 0, len(refactorings))
	for _, r := range refactorings {
		if r.Accuracy >= minAccuracy {
			kept = append(kept, r)
		}
	}

	if topN > 0 && len(kept) > topN {
		sort.SliceStable(kept, func(i, j int) bool {
			return kept[i].Accuracy > kept[j].Accuracy
		})
		kept = kept[:topN]
		algorithms.SortRefactorings(kept)
	}
	return kept
}
