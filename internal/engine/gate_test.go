package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateRunsInitOnce(t *testing.T) {
	var calls atomic.Int64
	gate := NewGate(func(ctx context.Context) error {
		calls.Add(1)
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, gate.Ensure(context.Background()))
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load())
	assert.True(t, gate.Done())

	require.NoError(t, gate.Ensure(context.Background()))
	assert.Equal(t, int64(1), calls.Load())
}

func TestGateRetriesAfterFailure(t *testing.T) {
	var calls atomic.Int64
	fail := true
	gate := NewGate(func(ctx context.Context) error {
		calls.Add(1)
		if fail {
			return errors.New("init failed")
		}
		return nil
	})

	err := gate.Ensure(context.Background())
	require.Error(t, err)
	assert.False(t, gate.Done())

	fail = false
	require.NoError(t, gate.Ensure(context.Background()))
	assert.True(t, gate.Done())
	assert.Equal(t, int64(2), calls.Load())
}

func TestGateWaiterSeesAttemptError(t *testing.T) {
	release := make(chan struct{})
	gate := NewGate(func(ctx context.Context) error {
		<-release
		return errors.New("init failed")
	})

	started := make(chan struct{})
	go func() {
		close(started)
		_ = gate.Ensure(context.Background())
	}()
	<-started

	waiterErr := make(chan error, 1)
	go func() {
		waiterErr <- gate.Ensure(context.Background())
	}()

	close(release)
	err := <-waiterErr
	// The waiter either joined the failing attempt or started the retry
	// itself; both surface the init error.
	require.Error(t, err)
	assert.Contains(t, err.Error(), "init failed")
}

func TestGateWaiterHonorsContext(t *testing.T) {
	release := make(chan struct{})
	gate := NewGate(func(ctx context.Context) error {
		<-release
		return nil
	})

	go func() {
		_ = gate.Ensure(context.Background())
	}()

	// Wait until the attempt is registered before the cancelled waiter joins.
	for {
		gate.mu.Lock()
		inFlight := gate.attempt != nil
		gate.mu.Unlock()
		if inFlight {
			break
		}
		time.Sleep(time.Millisecond)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := gate.Ensure(ctx)
	require.ErrorIs(t, err, context.Canceled)

	close(release)
}
