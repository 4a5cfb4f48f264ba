package execution

import (
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RunParallel folds items on the context's worker pool. Items are split into
// contiguous chunks, one per worker; each chunk is folded with perItem starting
// from a fresh newAcc() and the partial accumulators are merged pairwise with
// combine in chunk order. perItem must only touch its own accumulator and
// combine must be associative.
//
// On cancellation or the first perItem error every worker stops and the
// partial results are discarded. A panic in perItem is returned as an error.
func RunParallel[T, A any](c *Context, items []T, newAcc func() A, perItem func(T, A) (A, error), combine func(A, A) A) (A, error) {
	if err := c.Check(); err != nil {
		var zero A
		return zero, err
	}
	if len(items) == 0 {
		return newAcc(), nil
	}

	workers := c.threads
	if workers > len(items) {
		workers = len(items)
	}
	units := c.progress.Units(len(items))

	partials := make([]A, workers)
	g, gCtx := errgroup.WithContext(c.ctx)
	for w := 0; w < workers; w++ {
		start := w * len(items) / workers
		end := (w + 1) * len(items) / workers
		slot := w
		g.Go(func() (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					c.Logger().Error("Worker panicked",
						zap.Any("panic", rec),
						zap.ByteString("stack", debug.Stack()))
					err = fmt.Errorf("worker panicked: %v", rec)
				}
			}()
			acc := newAcc()
			for _, item := range items[start:end] {
				if cancelErr := checkCanceled(gCtx); cancelErr != nil {
					return cancelErr
				}
				next, itemErr := perItem(item, acc)
				if itemErr != nil {
					return itemErr
				}
				acc = next
				units.Add(1)
			}
			partials[slot] = acc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var zero A
		return zero, err
	}

	for len(partials) > 1 {
		merged := make([]A, 0, (len(partials)+1)/2)
		for i := 0; i+1 < len(partials); i += 2 {
			merged = append(merged, combine(partials[i], partials[i+1]))
		}
		if len(partials)%2 == 1 {
			merged = append(merged, partials[len(partials)-1])
		}
		partials = merged
	}
	return partials[0], nil
}

// Map applies fn to every item in parallel and returns the results in item order
func Map[T, R any](c *Context, items []T, fn func(T) (R, error)) ([]R, error) {
	type indexed struct {
		pos    []int
		values []R
	}
	positions := make([]int, len(items))
	for i := range positions {
		positions[i] = i
	}
	acc, err := RunParallel(c, positions,
		func() indexed { return indexed{} },
		func(i int, acc indexed) (indexed, error) {
			v, err := fn(items[i])
			if err != nil {
				return acc, err
			}
			acc.pos = append(acc.pos, i)
			acc.values = append(acc.values, v)
			return acc, nil
		},
		func(a, b indexed) indexed {
			a.pos = append(a.pos, b.pos...)
			a.values = append(a.values, b.values...)
			return a
		})
	if err != nil {
		return nil, err
	}
	result := make([]R, len(items))
	for k, i := range acc.pos {
		result[i] = acc.values[k]
	}
	return result, nil
}
