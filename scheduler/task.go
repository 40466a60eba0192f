package scheduler

import "context"

// Status is reported by a Task after each invocation.
type Status uint8

const (
	// StatusContinue means the task did some work or yielded, and wants to be invoked again.
	StatusContinue Status = iota
	// StatusFinished means the task has nothing left to do. It is skipped for the rest of the run.
	StatusFinished
)

// String ...
func (s Status) String() string {
	if s == StatusFinished {
		return "finished"
	}
	return "continue"
}

// Task is a behavior run by the scheduler. A Task does one unit of work, or works until its next yield
// point, and returns. An error aborts the run loop.
type Task func(ctx context.Context) (Status, error)
