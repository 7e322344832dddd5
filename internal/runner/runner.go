// Package runner is the single consumer that turns queued tasks into reservations.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/example/court-scheduler/internal/domain/reservation"
	"github.com/example/court-scheduler/internal/domain/user"
	"github.com/example/court-scheduler/internal/queue"
	"github.com/example/court-scheduler/internal/scheduler"
	"github.com/example/court-scheduler/internal/site"
)

// ErrStopped is returned by Register once the runner has shut its queue.
var ErrStopped = errors.New("runner: stopped")

type Session interface {
	Ensure(ctx context.Context, creds user.Credentials) error
	Confirm(ctx context.Context) error
}

type Resolver interface {
	ResolveDate(ctx context.Context, date time.Time) (site.DateView, error)
	ResolveResource(ctx context.Context, dv site.DateView, sel reservation.Selector) (site.ResourceView, error)
	ListSlots(ctx context.Context, rv site.ResourceView) ([]site.SlotHandle, error)
}

type Config struct {
	Session    Session
	Resolver   Resolver
	Negotiator scheduler.Attempter
	Interval   time.Duration
	Location   *time.Location
	Observers  []Observer
}

// Ack acknowledges a registered task. Position is 1-based within the waiting queue.
type Ack struct {
	TaskID   string `json:"id"`
	Position int    `json:"position"`
}

type Runner struct {
	cfg   Config
	queue *queue.Queue[reservation.Task]

	// admit is held from Put until TaskAccepted has been delivered. The consumer takes
	// it before starting a task, so observers see accepted before started.
	admit sync.Mutex

	stopOnce sync.Once
	stop     chan struct{}
}

func New(cfg Config) *Runner {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Runner{cfg: cfg, queue: queue.New[reservation.Task](), stop: make(chan struct{})}
}

// Register enqueues task without waiting for the consumer.
func (r *Runner) Register(ctx context.Context, task reservation.Task) (Ack, error) {
	r.admit.Lock()
	defer r.admit.Unlock()
	pos, err := r.queue.Put(task)
	if errors.Is(err, queue.ErrClosed) {
		return Ack{}, ErrStopped
	}
	if err != nil {
		return Ack{}, err
	}
	log.Printf("runner: accepted task %s for %s at position %d", task.ID, task.Credentials.Username, pos)
	r.emit(ctx, Event{Kind: TaskAccepted, Task: task, Position: pos})
	return Ack{TaskID: task.ID, Position: pos}, nil
}

// Stop asks Run to return at the next task boundary at which the queue is empty.
// Tasks registered before that point are still processed.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

func (r *Runner) Pending() int { return r.queue.Len() }

func (r *Runner) stopping() bool {
	select {
	case <-r.stop:
		return true
	default:
		return false
	}
}

// Run consumes tasks one at a time until Stop drains the queue or ctx ends.
func (r *Runner) Run(ctx context.Context) error {
	for {
		if r.stopping() && r.queue.CloseIfEmpty() {
			log.Printf("runner: stopped")
			return nil
		}
		task, err := r.queue.Get(ctx, r.stop)
		switch {
		case errors.Is(err, queue.ErrWoken):
			continue
		case errors.Is(err, queue.ErrClosed):
			return nil
		case err != nil:
			// Nobody consumes after this; late registrations get ErrStopped.
			r.queue.Close()
			if n := r.queue.Len(); n > 0 {
				log.Printf("runner: abandoning %d queued task(s): %v", n, err)
			}
			return err
		}
		// Wait until Register has delivered TaskAccepted for this task.
		r.admit.Lock()
		r.admit.Unlock()
		r.Process(ctx, task)
	}
}

// Process runs one task to completion and returns its result.
func (r *Runner) Process(ctx context.Context, task reservation.Task) reservation.TaskResult {
	res := reservation.TaskResult{
		TaskID:    task.ID,
		Username:  task.Credentials.Username,
		StartedAt: time.Now().UTC(),
	}
	log.Printf("runner: task %s started (%d request(s))", task.ID, len(task.Requests))
	r.emit(ctx, Event{Kind: TaskStarted, Task: task})

	if err := r.cfg.Session.Ensure(ctx, task.Credentials); err != nil {
		res.Err = err
	} else {
		for i, req := range task.Requests {
			res.Requests = append(res.Requests, r.request(ctx, task, i, req))
		}
	}

	res.FinishedAt = time.Now().UTC()
	res.Finalize()
	log.Printf("runner: task %s finished: %s", task.ID, res.Status())
	r.emit(ctx, Event{Kind: TaskFinished, Task: task, Result: &res})
	return res
}

func (r *Runner) request(ctx context.Context, task reservation.Task, i int, req reservation.SlotRequest) reservation.RequestResult {
	rr := reservation.RequestResult{
		Court:  req.Resource().String(),
		Date:   req.Date().Format(reservation.DateLayout),
		Window: req.Window(),
	}
	if err := ctx.Err(); err != nil {
		rr.Err = err
		return rr
	}

	dv, err := r.cfg.Resolver.ResolveDate(ctx, req.Date())
	if err != nil {
		rr.Err = err
		log.Printf("runner: task %s: %s: %v", task.ID, req, err)
		return rr
	}
	rv, err := r.cfg.Resolver.ResolveResource(ctx, dv, req.Resource())
	if err != nil {
		rr.Err = err
		log.Printf("runner: task %s: %s: %v", task.ID, req, err)
		return rr
	}
	rr.Court = rv.Name
	all, err := r.cfg.Resolver.ListSlots(ctx, rv)
	if err != nil {
		rr.Err = fmt.Errorf("list slots: %w", err)
		return rr
	}
	hs := site.FilterWindow(all, req, r.cfg.Location)
	if len(hs) == 0 {
		log.Printf("runner: task %s: %s: no cells inside the window", task.ID, req)
		return rr
	}
	ranges := make([]reservation.TimeRange, len(hs))
	for j, h := range hs {
		ranges[j] = h.Range
	}
	if rr.Covered = reservation.Covers(ranges, rr.Window); !rr.Covered {
		log.Printf("runner: task %s: %s: rendered cells leave gaps in the window", task.ID, req)
	}

	s := &scheduler.Scheduler{
		Negotiator: r.cfg.Negotiator,
		Interval:   r.cfg.Interval,
		OnRound: func(round, remaining int) {
			r.emit(ctx, Event{Kind: RoundCompleted, Task: task, Request: i, Round: round, Remaining: remaining})
		},
	}
	rep := s.Run(ctx, hs)
	rr.Slots, rr.Rounds = rep.Slots, rep.Rounds

	for _, sr := range rr.Slots {
		if sr.Outcome.Held() {
			if err := r.cfg.Session.Confirm(ctx); err != nil {
				rr.Err = fmt.Errorf("confirm: %w", err)
			} else {
				rr.Confirmed = true
			}
			break
		}
	}
	return rr
}

func (r *Runner) emit(ctx context.Context, ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	for _, o := range r.cfg.Observers {
		o.Observe(ctx, ev)
	}
}
