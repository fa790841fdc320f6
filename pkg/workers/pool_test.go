package workers

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestSubmit_ReturnsResult(t *testing.T) {
	pool := NewPool(Config{Name: "test", MaxConcurrent: 2}, zaptest.NewLogger(t))

	got, err := Submit(context.Background(), pool, func(ctx context.Context) (int, error) {
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 0, pool.InFlight())
}

func TestSubmit_PropagatesError(t *testing.T) {
	pool := NewPool(Config{Name: "test"}, zaptest.NewLogger(t))
	want := errors.New("boom")

	_, err := Submit(context.Background(), pool, func(ctx context.Context) (string, error) {
		return "", want
	})

	assert.ErrorIs(t, err, want)
}

func TestSubmit_RecoversPanic(t *testing.T) {
	pool := NewPool(Config{Name: "test"}, zaptest.NewLogger(t))

	_, err := Submit(context.Background(), pool, func(ctx context.Context) (int, error) {
		panic("driver exploded")
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "driver exploded")

	// the slot is released after a panic
	got, err := Submit(context.Background(), pool, func(ctx context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

func TestSubmit_Timeout(t *testing.T) {
	pool := NewPool(Config{Name: "test", Timeout: 20 * time.Millisecond}, zaptest.NewLogger(t))

	start := time.Now()
	_, err := Submit(context.Background(), pool, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return 0, ctx.Err()
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPoolTimeout)
	assert.Less(t, time.Since(start), 45*time.Millisecond)
}

func TestSubmit_CancelledBeforeSlot(t *testing.T) {
	pool := NewPool(Config{Name: "test", MaxConcurrent: 1}, zaptest.NewLogger(t))

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_, _ = Submit(context.Background(), pool, func(ctx context.Context) (int, error) {
			close(started)
			<-release
			return 0, nil
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Submit(ctx, pool, func(ctx context.Context) (int, error) { return 1, nil })
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
}

func TestSubmit_BoundsConcurrency(t *testing.T) {
	pool := NewPool(Config{Name: "test", MaxConcurrent: 2}, zaptest.NewLogger(t))

	var current, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := Submit(context.Background(), pool, func(ctx context.Context) (int, error) {
				n := atomic.AddInt32(&current, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				atomic.AddInt32(&current, -1)
				return 0, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}
