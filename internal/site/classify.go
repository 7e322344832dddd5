package site

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/court-scheduler/internal/domain/reservation"
	"github.com/example/court-scheduler/internal/driver"
)

// SlotHandle is a live reference to one rendered time cell. Its display state is not
// stored; ask a Classifier each time.
type SlotHandle struct {
	Element driver.Element
	Range   reservation.TimeRange
	Note    string
	Court   string
	Index   int
}

func (h SlotHandle) String() string {
	return fmt.Sprintf("%s court %s", h.Range, h.Court)
}

// Classifier derives a DisplayState from a cell's class attribute and the clock.
type Classifier struct {
	Driver driver.Driver
	Tokens ClassTokens
	Now    func() time.Time
}

// State reads the cell's class attribute afresh and classifies it.
func (c *Classifier) State(ctx context.Context, h SlotHandle) (reservation.DisplayState, error) {
	class, _, err := c.Driver.Attribute(ctx, h.Element, "class")
	if err != nil {
		return 0, fmt.Errorf("read state of %s: %w", h.Range, err)
	}
	return c.Classify(class, h.Range), nil
}

// Classify applies the priority order selected, expired, taken, selectable. A cell
// whose start is not in the future counts as expired whatever its classes say.
func (c *Classifier) Classify(class string, r reservation.TimeRange) reservation.DisplayState {
	tokens := strings.Fields(strings.ToLower(class))
	switch {
	case hasAny(tokens, c.Tokens.Selected):
		return reservation.AlreadySelected
	case hasAny(tokens, c.Tokens.Expired) || !r.Start.After(c.now()):
		return reservation.Expired
	case hasAny(tokens, c.Tokens.Taken):
		return reservation.TakenByOther
	}
	return reservation.Selectable
}

func (c *Classifier) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func hasAny(tokens, want []string) bool {
	for _, t := range tokens {
		for _, w := range want {
			if strings.EqualFold(t, w) {
				return true
			}
		}
	}
	return false
}
