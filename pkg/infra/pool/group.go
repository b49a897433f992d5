package pool

import (
	"context"
	"time"
)

// Task is one unit of fan-out work.
type Task[T any] func(ctx context.Context) (T, error)

// GroupResult holds the outcome of a single task in a group run.
type GroupResult[T any] struct {
	Index int
	Value T
	Err   error
}

// RunGroup submits all tasks to the pool and waits for every one of them.
// Each task runs under its own deadline when timeout > 0. Results are
// returned in task order; a failed branch carries its error in Err and
// never aborts the siblings.
func RunGroup[T any](ctx context.Context, p *Pool, timeout time.Duration, tasks []Task[T]) ([]GroupResult[T], error) {
	if len(tasks) == 0 {
		return nil, ErrNoTasks
	}

	results := make([]GroupResult[T], len(tasks))
	done := make(chan int, len(tasks))

	for i, task := range tasks {
		i, task := i, task
		results[i].Index = i

		err := p.Submit(func() {
			defer func() { done <- i }()

			taskCtx := ctx
			var cancel context.CancelFunc
			if timeout > 0 {
				taskCtx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			results[i].Value, results[i].Err = task(taskCtx)
		})
		if err != nil {
			results[i].Err = err
			done <- i
		}
	}

	// Every branch signals done exactly once; branch deadlines bound the wait.
	for range tasks {
		<-done
	}
	return results, nil
}

// FirstError returns the first non-nil error in the results, or nil.
func FirstError[T any](results []GroupResult[T]) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}

// Succeeded returns the values of all tasks that completed without error,
// preserving task order.
func Succeeded[T any](results []GroupResult[T]) []T {
	values := make([]T, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			values = append(values, r.Value)
		}
	}
	return values
}
