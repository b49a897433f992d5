// Package pool provides ants-backed worker pools and fan-out helpers.
package pool

import "errors"

var (
	// ErrPoolClosed is returned when submitting to a released pool.
	ErrPoolClosed = errors.New("pool is closed")

	// ErrPoolOverload is returned when a nonblocking pool is full.
	ErrPoolOverload = errors.New("pool is overloaded")

	// ErrNoTasks is returned when a task group runs with no tasks.
	ErrNoTasks = errors.New("no tasks to run")
)
