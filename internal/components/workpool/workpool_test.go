package workpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"hephix-backend/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

func TestSubmitReturnsValue(t *testing.T) {
	pool := New(2, time.Second, &telemetry.Recorder{})

	future := Submit(context.Background(), pool, func(ctx context.Context) (string, error) {
		return "done", nil
	})
	value, err := future.Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, "done", value)
}

func TestSubmitReturnsError(t *testing.T) {
	pool := New(1, time.Second, &telemetry.Recorder{})
	boom := errors.New("boom")

	future := Submit(context.Background(), pool, func(ctx context.Context) (int, error) {
		return 0, boom
	})
	_, err := future.Await(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestSubmitBoundsConcurrency(t *testing.T) {
	pool := New(2, time.Second, &telemetry.Recorder{})

	var running, peak atomic.Int64
	release := make(chan struct{})
	futures := make([]*Future[int], 6)
	for i := range futures {
		futures[i] = Submit(context.Background(), pool, func(ctx context.Context) (int, error) {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			<-release
			running.Add(-1)
			return 1, nil
		})
	}

	require.Eventually(t, func() bool {
		return running.Load() == 2
	}, time.Second, time.Millisecond)
	close(release)

	for _, f := range futures {
		value, err := f.Await(context.Background())
		require.NoError(t, err)
		require.Equal(t, 1, value)
	}
	require.EqualValues(t, 2, peak.Load())
}

func TestSubmitSaturated(t *testing.T) {
	tel := &telemetry.Recorder{}
	pool := New(1, 20*time.Millisecond, tel)

	release := make(chan struct{})
	defer close(release)
	Submit(context.Background(), pool, func(ctx context.Context) (int, error) {
		<-release
		return 0, nil
	})

	require.Eventually(t, func() bool {
		return pool.inFlight.Load() == 1
	}, time.Second, time.Millisecond)

	future := Submit(context.Background(), pool, func(ctx context.Context) (int, error) {
		return 1, nil
	})
	_, err := future.Await(context.Background())
	require.ErrorIs(t, err, ErrSaturated)
	require.True(t, tel.Has("warning", report_pool_saturated))
}

func TestAwaitRespectsContext(t *testing.T) {
	pool := New(1, time.Second, &telemetry.Recorder{})

	release := make(chan struct{})
	defer close(release)
	future := Submit(context.Background(), pool, func(ctx context.Context) (int, error) {
		<-release
		return 1, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := future.Await(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSubmitRecoversPanic(t *testing.T) {
	tel := &telemetry.Recorder{}
	pool := New(1, time.Second, tel)

	future := Submit(context.Background(), pool, func(ctx context.Context) (int, error) {
		panic("kaboom")
	})
	_, err := future.Await(context.Background())
	require.Error(t, err)
	require.True(t, tel.Has("broken", report_pool_panic))

	// the slot was released
	future = Submit(context.Background(), pool, func(ctx context.Context) (int, error) {
		return 2, nil
	})
	value, err := future.Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, value)
}
