package pool

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T) *Pool {
	t.Helper()
	p, err := NewPool("group-test", RetrievalPool, RetrievalPoolConfig())
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p
}

func TestRunGroupPreservesOrder(t *testing.T) {
	p := newTestPool(t)

	tasks := make([]Task[int], 5)
	for i := range tasks {
		i := i
		tasks[i] = func(ctx context.Context) (int, error) {
			return i * 10, nil
		}
	}

	results, err := RunGroup(context.Background(), p, time.Second, tasks)
	require.NoError(t, err)
	require.Len(t, results, 5)
	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, i*10, r.Value)
		assert.NoError(t, r.Err)
	}
}

func TestRunGroupPartialFailure(t *testing.T) {
	p := newTestPool(t)

	tasks := []Task[string]{
		func(ctx context.Context) (string, error) { return "ok-0", nil },
		func(ctx context.Context) (string, error) { return "", fmt.Errorf("branch down") },
		func(ctx context.Context) (string, error) { return "ok-2", nil },
	}

	results, err := RunGroup(context.Background(), p, time.Second, tasks)
	require.NoError(t, err)

	assert.Equal(t, []string{"ok-0", "ok-2"}, Succeeded(results))
	assert.EqualError(t, FirstError(results), "branch down")
}

func TestRunGroupTaskTimeout(t *testing.T) {
	p := newTestPool(t)

	tasks := []Task[int]{
		func(ctx context.Context) (int, error) {
			select {
			case <-time.After(5 * time.Second):
				return 1, nil
			case <-ctx.Done():
				return 0, ctx.Err()
			}
		},
		func(ctx context.Context) (int, error) { return 2, nil },
	}

	results, err := RunGroup(context.Background(), p, 50*time.Millisecond, tasks)
	require.NoError(t, err)

	assert.ErrorIs(t, results[0].Err, context.DeadlineExceeded)
	assert.NoError(t, results[1].Err)
	assert.Equal(t, []int{2}, Succeeded(results))
}

func TestRunGroupNoTasks(t *testing.T) {
	p := newTestPool(t)

	_, err := RunGroup[int](context.Background(), p, time.Second, nil)
	assert.ErrorIs(t, err, ErrNoTasks)
}
