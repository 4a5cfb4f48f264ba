package execution

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"go.uber.org/zap"
)

// ErrCanceled is returned when a run was cancelled; it is an outcome, not a failure
var ErrCanceled = errors.New("execution canceled")

// Context carries the worker pool size, cancellation and progress of one algorithm run
type Context struct {
	ctx      context.Context
	threads  int
	progress *Progress
	logger   *zap.Logger
}

// NewContext creates an execution context. threads <= 0 means one worker per CPU.
func NewContext(ctx context.Context, threads int, progress *Progress, logger *zap.Logger) *Context {
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	if progress == nil {
		progress = NewProgress(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Context{
		ctx:      ctx,
		threads:  threads,
		progress: progress,
		logger:   logger,
	}
}

// Context returns the underlying context.Context
func (c *Context) Context() context.Context {
	return c.ctx
}

// Threads returns the worker pool size
func (c *Context) Threads() int {
	return c.threads
}

// Progress returns the progress range of this context
func (c *Context) Progress() *Progress {
	return c.progress
}

// Logger returns the run logger
func (c *Context) Logger() *zap.Logger {
	return c.logger
}

// WithProgress returns a copy reporting into p
func (c *Context) WithProgress(p *Progress) *Context {
	cp := *c
	cp.progress = p
	return &cp
}

// Check polls for cancellation; hot loops call it at their head
func (c *Context) Check() error {
	return checkCanceled(c.ctx)
}

func checkCanceled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrCanceled, context.Cause(ctx))
	default:
		return nil
	}
}

// IsCanceled reports whether err is a cancellation outcome
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// WithLogger returns a copy logging through logger
func (c *Context) WithLogger(logger *zap.Logger) *Context {
	cp := *c
	cp.logger = logger
	return &cp
}
