package algorithms

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"refactor-bot/internal/attributes"
	"refactor-bot/internal/execution"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StorageFunc builds the attributes storage validated against an algorithm's required metrics
type StorageFunc func(required []string) (*attributes.Storage, error)

// RunOptions configures one batch run
type RunOptions struct {
	RunID    string
	Threads  int
	Progress *execution.Progress
}

// Registry manages all recommendation algorithms
type Registry struct {
	algorithms map[string]Algorithm
	logger     *zap.Logger
	mu         sync.RWMutex
}

// NewRegistry creates a new algorithm registry
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		algorithms: make(map[string]Algorithm),
		logger:     logger,
	}
}

// Register adds an algorithm to the registry
func (r *Registry) Register(algorithm Algorithm) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.algorithms[algorithm.Name()] = algorithm
	r.logger.Info("Registered algorithm",
		zap.String("algorithm", algorithm.Name()),
		zap.Strings("required_metrics", algorithm.RequiredMetrics()))
}

// Get retrieves an algorithm by name
func (r *Registry) Get(name string) (Algorithm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	algorithm, ok := r.algorithms[name]
	if !ok {
		return nil, fmt.Errorf("algorithm not found: %s", name)
	}
	return algorithm, nil
}

// Names returns the registered algorithm names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.algorithms))
	for name := range r.algorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunAll runs the named algorithms (all registered ones when names is empty)
// one at a time. A failing algorithm is recorded in its result and does not
// stop the batch; cancellation aborts the whole batch with execution.ErrCanceled.
func (r *Registry) RunAll(ctx context.Context, names []string, storageFor StorageFunc, opts RunOptions) ([]*AlgorithmResult, error) {
	if len(names) == 0 {
		names = r.Names()
	}
	selected := make([]Algorithm, 0, len(names))
	for _, name := range names {
		algorithm, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		selected = append(selected, algorithm)
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.New().String()
	}
	progress := opts.Progress
	if progress == nil {
		progress = execution.NewProgress(nil)
	}

	results := make([]*AlgorithmResult, 0, len(selected))
	for i, algorithm := range selected {
		span := 1.0 / float64(len(selected))
		ec := execution.NewContext(ctx, opts.Threads, progress.Sub(float64(i)*span, float64(i+1)*span), r.logger)

		result := r.run(ec, runID, algorithm, storageFor)
		if result.Err != nil && execution.IsCanceled(result.Err) {
			r.logger.Info("Analysis canceled",
				zap.String("run_id", runID),
				zap.String("algorithm", algorithm.Name()))
			return nil, result.Err
		}
		results = append(results, result)
	}
	progress.Done()
	return results, nil
}

func (r *Registry) run(ec *execution.Context, runID string, algorithm Algorithm, storageFor StorageFunc) (result *AlgorithmResult) {
	result = NewAlgorithmResult(runID, algorithm.Name())
	result.ThreadsUsed = ec.Threads()
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Algorithm panicked",
				zap.String("algorithm", algorithm.Name()),
				zap.Any("panic", rec),
				zap.ByteString("stack", debug.Stack()))
			result.Refactorings = []Refactoring{}
			result.Err = fmt.Errorf("algorithm %s panicked: %v", algorithm.Name(), rec)
		}
		result.ExecutionTime = time.Since(start)
		if result.Err != nil {
			result.Error = result.Err.Error()
		}
	}()

	if err := ec.Check(); err != nil {
		result.Err = err
		return result
	}

	storage, err := storageFor(algorithm.RequiredMetrics())
	if err != nil {
		r.logger.Warn("Algorithm skipped, attributes unavailable",
			zap.String("algorithm", algorithm.Name()),
			zap.Error(err))
		result.Err = err
		return result
	}

	refactorings, err := algorithm.Calculate(ec.WithLogger(ec.Logger().With(zap.String("algorithm", algorithm.Name()))), storage)
	if err != nil {
		if !execution.IsCanceled(err) {
			r.logger.Warn("Algorithm failed",
				zap.String("algorithm", algorithm.Name()),
				zap.Error(err))
		}
		result.Err = err
		return result
	}

	SortRefactorings(refactorings)
	if refactorings == nil {
		refactorings = []Refactoring{}
	}
	result.Refactorings = refactorings
	ec.Progress().Done()

	r.logger.Info("Algorithm finished",
		zap.String("algorithm", algorithm.Name()),
		zap.Int("refactorings", len(refactorings)),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("threads", ec.Threads()))
	return result
}
