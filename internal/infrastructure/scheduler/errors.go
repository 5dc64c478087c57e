package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning rejects submissions before Start or after Stop.
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobQueueFull rejects submissions when the queue has no free slot.
	ErrJobQueueFull = errors.New("job queue is full")

	// ErrJobNotFound means the job id is not in the history buffer.
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidConfig rejects a scheduler config that cannot run.
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)
