// Package scheduler retries contested slots in rounds until every slot settles.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/example/court-scheduler/internal/domain/reservation"
	"github.com/example/court-scheduler/internal/site"
)

const DefaultInterval = time.Second

// Attempter makes one claim attempt. It must be safe for concurrent use.
type Attempter interface {
	Attempt(ctx context.Context, h site.SlotHandle) reservation.SlotResult
}

// Scheduler owns the working set for one request.
type Scheduler struct {
	Negotiator Attempter
	Interval   time.Duration
	// OnRound is called after each reduction with the round number and the size of
	// the new working set.
	OnRound func(round, remaining int)

	// wait is replaced in tests.
	wait func(ctx context.Context, d time.Duration) error
}

// Report is the final state of every handle given to Run, in input order.
type Report struct {
	Slots       []reservation.SlotResult
	Rounds      int
	Interrupted bool
}

// Attempt pairs a handle's position in the original input with its latest result.
type Attempt struct {
	Index  int
	Handle site.SlotHandle
	Result reservation.SlotResult
}

// Run drives handles to a terminal outcome. Only ctx ending stops it early; slots
// still contested at that point are reported as Contested.
func (s *Scheduler) Run(ctx context.Context, handles []site.SlotHandle) Report {
	rep := Report{Slots: make([]reservation.SlotResult, len(handles))}
	working := make([]Attempt, len(handles))
	for i, h := range handles {
		working[i] = Attempt{Index: i, Handle: h}
	}

	for len(working) > 0 {
		if ctx.Err() != nil {
			rep.Interrupted = true
			break
		}
		rep.Rounds++
		round := s.round(ctx, working)

		contested, settled := Reduce(round)
		for _, a := range settled {
			rep.Slots[a.Index] = a.Result
		}
		working = contested
		if s.OnRound != nil {
			s.OnRound(rep.Rounds, len(working))
		}
		if len(working) == 0 {
			break
		}
		log.Printf("scheduler: round %d: %d slot(s) contested, retrying in %s", rep.Rounds, len(working), s.interval())
		if err := s.sleep(ctx, s.interval()); err != nil {
			rep.Interrupted = true
			break
		}
	}

	for _, a := range working {
		r := a.Result
		r.Range = a.Handle.Range
		r.Outcome = reservation.Contested
		if r.Err == nil {
			r.Err = &reservation.ContestedError{Range: a.Handle.Range}
		}
		rep.Slots[a.Index] = r
	}
	return rep
}

// round attempts every handle in the working set and waits for all of them.
func (s *Scheduler) round(ctx context.Context, working []Attempt) []Attempt {
	out := make([]Attempt, len(working))
	var g errgroup.Group
	for i, a := range working {
		i, a := i, a
		g.Go(func() error {
			res := s.Negotiator.Attempt(ctx, a.Handle)
			res.Attempts = a.Result.Attempts + 1
			a.Result = res
			out[i] = a
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Reduce splits a round into the handles to retry and the ones that are done. The
// split depends only on each attempt's outcome, never on input order.
func Reduce(round []Attempt) (contested, settled []Attempt) {
	for _, a := range round {
		switch a.Result.Outcome {
		case reservation.Contested:
			contested = append(contested, a)
		case reservation.Claimed, reservation.AlreadyHeld, reservation.OutcomeExpired, reservation.Failed:
			settled = append(settled, a)
		default:
			a.Result.Err = fmt.Errorf("slot %s: unexpected outcome %s", a.Handle.Range, a.Result.Outcome)
			a.Result.Outcome = reservation.Failed
			settled = append(settled, a)
		}
	}
	return contested, settled
}

func (s *Scheduler) interval() time.Duration {
	if s.Interval <= 0 {
		return DefaultInterval
	}
	return s.Interval
}

func (s *Scheduler) sleep(ctx context.Context, d time.Duration) error {
	if s.wait != nil {
		return s.wait(ctx, d)
	}
	return site.Sleep(ctx, d)
}
