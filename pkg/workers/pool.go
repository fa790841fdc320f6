// Package workers runs blocking calls (LLM requests, database queries) off the
// caller's goroutine with bounded parallelism and a per-call deadline.
package workers

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
)

// ErrPoolTimeout is returned when a call exceeds the pool's per-call timeout.
var ErrPoolTimeout = errors.New("worker call timed out")

// Config configures a Pool.
type Config struct {
	Name          string        // For logging and metrics
	MaxConcurrent int           // Maximum calls running at once (default: 8)
	Timeout       time.Duration // Per-call deadline; zero means no deadline
}

// Pool bounds concurrent execution of blocking work with a semaphore.
type Pool struct {
	name    string
	sem     chan struct{}
	timeout time.Duration
	logger  *zap.Logger
}

// NewPool creates a worker pool.
func NewPool(cfg Config, logger *zap.Logger) *Pool {
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 8
	}
	if cfg.Name == "" {
		cfg.Name = "default"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		name:    cfg.Name,
		sem:     make(chan struct{}, cfg.MaxConcurrent),
		timeout: cfg.Timeout,
		logger:  logger.Named("workers").With(zap.String("pool", cfg.Name)),
	}
}

// Name returns the pool name.
func (p *Pool) Name() string {
	return p.name
}

// InFlight returns the number of calls currently holding a slot.
func (p *Pool) InFlight() int {
	return len(p.sem)
}

type outcome[T any] struct {
	value T
	err   error
}

// Submit runs fn on a pool goroutine and waits for its result.
//
// The caller returns as soon as fn finishes, the per-call timeout fires or ctx
// is cancelled. fn receives a context carrying that deadline and should honour
// it; a panic inside fn is recovered and returned as an error.
func Submit[T any](ctx context.Context, p *Pool, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	callCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	done := make(chan outcome[T], 1)
	go func() {
		defer func() { <-p.sem }()
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("Recovered panic in worker",
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()))
				done <- outcome[T]{err: fmt.Errorf("worker panic: %v", r)}
			}
		}()

		v, err := fn(callCtx)
		done <- outcome[T]{value: v, err: err}
	}()

	finish := func(out outcome[T]) (T, error) {
		if out.err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return zero, fmt.Errorf("%w after %s: %w", ErrPoolTimeout, p.timeout, out.err)
		}
		return out.value, out.err
	}

	select {
	case out := <-done:
		return finish(out)
	case <-callCtx.Done():
		select {
		case out := <-done:
			return finish(out)
		default:
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		p.logger.Warn("Worker call exceeded timeout", zap.Duration("timeout", p.timeout))
		return zero, fmt.Errorf("%w after %s", ErrPoolTimeout, p.timeout)
	}
}
