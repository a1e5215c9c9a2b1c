// Package workpool runs blocking calls on a bounded number of goroutines and hands their results
// back as futures.
package workpool

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"hephix-backend/internal/components/assert"
	"hephix-backend/internal/components/telemetry"

	"golang.org/x/sync/semaphore"
)

const (
	DefaultSize         = 4
	DefaultQueueTimeout = time.Second * 10
)

const (
	report_pool_in_flight = "pool.in-flight"
	report_pool_saturated = "pool.saturated"
	report_pool_panic     = "pool.panic"
)

// ErrSaturated is returned when no worker became free within the queue timeout.
var ErrSaturated = errors.New("workpool: no worker available")

type Pool struct {
	sem          *semaphore.Weighted
	queueTimeout time.Duration
	inFlight     atomic.Int64
	tel          telemetry.API
}

// New creates a pool of `size` workers, non-positive values fall back to the defaults.
func New(size int, queueTimeout time.Duration, tel telemetry.API) *Pool {
	assert.NotNil(tel, "tel")

	if size <= 0 {
		size = DefaultSize
	}
	if queueTimeout <= 0 {
		queueTimeout = DefaultQueueTimeout
	}
	return &Pool{
		sem:          semaphore.NewWeighted(int64(size)),
		queueTimeout: queueTimeout,
		tel:          telemetry.NewScopedAPI("workpool", tel),
	}
}

// Future is the eventual result of a submitted call.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Await blocks until the call finished or ctx is done.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Submit schedules fn on the pool and returns immediately. Waiting for a free worker counts against
// the pool's queue timeout, when it runs out the future resolves to ErrSaturated.
func Submit[T any](ctx context.Context, p *Pool, fn func(ctx context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}

	go func() {
		defer close(f.done)

		waitCtx, cancel := context.WithTimeout(ctx, p.queueTimeout)
		err := p.sem.Acquire(waitCtx, 1)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				f.err = ctx.Err()
				return
			}
			p.tel.ReportWarning(report_pool_saturated, p.queueTimeout.String())
			f.err = ErrSaturated
			return
		}
		defer p.sem.Release(1)

		p.tel.ReportCount(report_pool_in_flight, p.inFlight.Add(1))
		defer p.inFlight.Add(-1)

		f.value, f.err = run(ctx, p.tel, fn)
	}()

	return f
}

func run[T any](ctx context.Context, tel telemetry.API, fn func(ctx context.Context) (T, error)) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			tel.ReportBroken(report_pool_panic, r)
			err = fmt.Errorf("workpool: task panicked: %v", r)
		}
	}()
	return fn(ctx)
}
