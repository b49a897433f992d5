package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPool(t *testing.T) {
	p, err := NewPool("test", DefaultPool, nil)
	require.NoError(t, err)
	defer p.Release()

	assert.Equal(t, "test", p.Name())
	assert.Equal(t, DefaultPool, p.Type())
	assert.Equal(t, 1000, p.Cap())
}

func TestPoolSubmit(t *testing.T) {
	p, err := NewPool("test", RetrievalPool, RetrievalPoolConfig())
	require.NoError(t, err)
	defer p.Release()

	var counter atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		require.NoError(t, p.Submit(func() {
			defer wg.Done()
			counter.Add(1)
		}))
	}
	wg.Wait()

	assert.Equal(t, int32(100), counter.Load())

	stats := p.Stats()
	assert.Equal(t, int64(100), stats.SubmittedTasks)
	assert.Equal(t, int64(100), stats.CompletedTasks)
}

func TestPoolSubmitAfterRelease(t *testing.T) {
	p, err := NewPool("test", DefaultPool, nil)
	require.NoError(t, err)
	p.Release()

	assert.ErrorIs(t, p.Submit(func() {}), ErrPoolClosed)
}

func TestSubmitWithContextCancelled(t *testing.T) {
	p, err := NewPool("test", DefaultPool, nil)
	require.NoError(t, err)
	defer p.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, p.SubmitWithContext(ctx, func() {}), context.Canceled)
}

func TestPoolPanicRecovered(t *testing.T) {
	p, err := NewPool("test", DefaultPool, nil)
	require.NoError(t, err)
	defer p.Release()

	var wg sync.WaitGroup
	wg.Add(1)
	require.NoError(t, p.Submit(func() {
		defer wg.Done()
		panic("boom")
	}))
	wg.Wait()

	// Stats counters are updated before the panic propagates to ants.
	assert.Eventually(t, func() bool {
		return p.Stats().PanicRecovered == 1
	}, time.Second, 10*time.Millisecond)
}
