package runner

import (
	"context"
	"time"

	"github.com/example/court-scheduler/internal/domain/reservation"
)

type EventKind int

const (
	TaskAccepted EventKind = iota + 1
	TaskStarted
	RoundCompleted
	TaskFinished
)

func (k EventKind) String() string {
	switch k {
	case TaskAccepted:
		return "accepted"
	case TaskStarted:
		return "started"
	case RoundCompleted:
		return "round"
	case TaskFinished:
		return "finished"
	}
	return "unknown"
}

// Event is delivered synchronously to every observer. Fields beyond Kind, Task and
// At are set only for the kinds that carry them.
type Event struct {
	Kind EventKind
	Task reservation.Task
	At   time.Time

	Position  int // TaskAccepted
	Request   int // RoundCompleted: index into Task.Requests
	Round     int // RoundCompleted
	Remaining int // RoundCompleted

	Result *reservation.TaskResult // TaskFinished
}

// Observer reacts to runner events. Observe runs on the caller's goroutine and must
// not block for long.
type Observer interface {
	Observe(ctx context.Context, ev Event)
}

type ObserverFunc func(ctx context.Context, ev Event)

func (f ObserverFunc) Observe(ctx context.Context, ev Event) { f(ctx, ev) }
