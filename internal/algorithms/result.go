package algorithms

import (
	"sort"
	"time"
)

// Refactoring proposes moving an entity into a target class
type Refactoring struct {
	Entity   string  `json:"entity"`
	Target   string  `json:"target"`
	Accuracy float64 `json:"accuracy"` // 0.0 - 1.0
}

// SortRefactorings orders proposals by entity then target identifier
func SortRefactorings(refactorings []Refactoring) {
	sort.Slice(refactorings, func(i, j int) bool {
		if refactorings[i].Entity != refactorings[j].Entity {
			return refactorings[i].Entity < refactorings[j].Entity
		}
		return refactorings[i].Target < refactorings[j].Target
	})
}

// AlgorithmResult is the outcome of running one algorithm
type AlgorithmResult struct {
	RunID         string        `json:"run_id"`
	AlgorithmName string        `json:"algorithm"`
	Refactorings  []Refactoring `json:"refactorings"`
	ExecutionTime time.Duration `json:"execution_time_ns"`
	ThreadsUsed   int           `json:"threads_used"`
	Error         string        `json:"error,omitempty"`

	// Err is set when the algorithm failed; failed results are not combined
	Err error `json:"-"`
}

// Failed reports whether the algorithm ended with an error
func (r *AlgorithmResult) Failed() bool {
	return r.Err != nil
}

// NewAlgorithmResult creates an empty result for an algorithm
func NewAlgorithmResult(runID, algorithm string) *AlgorithmResult {
	return &AlgorithmResult{
		RunID:         runID,
		AlgorithmName: algorithm,
		Refactorings:  []Refactoring{},
	}
}

// Accuracy scores shared by the algorithms

// GapAccuracy rewards a winner that is clearly closer than the runner-up.
// A tie (difference 0) always scores 0.
func GapAccuracy(best, difference float64) float64 {
	if difference == 0 {
		return 0
	}
	if best == 0 {
		return 1
	}
	accuracy := 5 * difference / best
	if accuracy > 1 {
		return 1
	}
	return accuracy
}

// DensityAccuracy is the share of a community that belongs to its dominant class
func DensityAccuracy(dominantCount, communitySize int) float64 {
	if communitySize == 0 {
		return 0
	}
	return float64(dominantCount) / float64(communitySize)
}
