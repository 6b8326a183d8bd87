package queue

import "errors"

var (
	// ErrBackpressure is returned when a command cannot be queued.
	ErrBackpressure = errors.New("command queue full")
	// ErrStopped is returned when the dispatcher no longer accepts work.
	ErrStopped = errors.New("dispatcher stopped")
)
