// Package negotiator makes one claim attempt on one slot.
package negotiator

import (
	"context"
	"fmt"

	"github.com/example/court-scheduler/internal/domain/reservation"
	"github.com/example/court-scheduler/internal/driver"
	"github.com/example/court-scheduler/internal/site"
)

// StateReader returns the current display state of a slot.
type StateReader interface {
	State(ctx context.Context, h site.SlotHandle) (reservation.DisplayState, error)
}

type Negotiator struct {
	States StateReader
	Driver driver.Driver
}

func New(d driver.Driver, states StateReader) *Negotiator {
	return &Negotiator{States: states, Driver: d}
}

// Attempt classifies h from a fresh read and clicks it only when it is selectable.
// Attempts is left to the caller.
func (n *Negotiator) Attempt(ctx context.Context, h site.SlotHandle) reservation.SlotResult {
	res := reservation.SlotResult{Range: h.Range}
	state, err := n.States.State(ctx, h)
	if err != nil {
		res.Outcome, res.Err = reservation.Failed, err
		return res
	}

	switch state {
	case reservation.AlreadySelected:
		res.Outcome = reservation.AlreadyHeld
	case reservation.Expired:
		res.Outcome, res.Err = reservation.OutcomeExpired, &reservation.ExpiredError{Range: h.Range}
	case reservation.TakenByOther:
		res.Outcome, res.Err = reservation.Contested, &reservation.ContestedError{Range: h.Range}
	case reservation.Selectable:
		if err := n.Driver.Click(ctx, h.Element); err != nil {
			res.Outcome, res.Err = reservation.Failed, fmt.Errorf("claim %s: %w", h.Range, err)
			return res
		}
		res.Outcome = reservation.Claimed
	default:
		res.Outcome, res.Err = reservation.Failed, fmt.Errorf("claim %s: unknown display state %s", h.Range, state)
	}
	return res
}
