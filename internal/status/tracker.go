package status

import (
	"context"
	"log"
	"sync"

	"github.com/example/court-scheduler/internal/domain/reservation"
	"github.com/example/court-scheduler/internal/runner"
)

// Tracker records runner events into a Store. A task's state only moves forward:
// queued, running, then a final state.
type Tracker struct {
	Store Store

	mu sync.Mutex
}

func (t *Tracker) Observe(ctx context.Context, ev runner.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.Store.Get(ctx, ev.Task.ID)
	if err != nil {
		s = Status{
			TaskID:   ev.Task.ID,
			Username: ev.Task.Credentials.Username,
			Requests: len(ev.Task.Requests),
			Accepted: ev.At,
		}
	}
	if ev.At.After(s.Updated) {
		s.Updated = ev.At
	}

	switch ev.Kind {
	case runner.TaskAccepted:
		s.Accepted = ev.At
		if s.State == "" || s.State == reservation.TaskQueued {
			s.State, s.Position = reservation.TaskQueued, ev.Position
		}
	case runner.TaskStarted:
		if final(s.State) {
			return
		}
		s.State, s.Position = reservation.TaskRunning, 0
	case runner.RoundCompleted:
		if final(s.State) {
			return
		}
		s.State = reservation.TaskRunning
		s.Request, s.Round, s.Remaining = ev.Request, ev.Round, ev.Remaining
	case runner.TaskFinished:
		s.State, s.Remaining = ev.Result.Status(), 0
		s.Result = ev.Result
	}

	if err := t.Store.Put(ctx, s); err != nil {
		log.Printf("status: task %s: %v", ev.Task.ID, err)
	}
}

func final(st reservation.TaskStatus) bool {
	switch st {
	case reservation.TaskDone, reservation.TaskPartial, reservation.TaskFailed:
		return true
	}
	return false
}
