package reservation

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DisplayState is the classification of a rendered slot cell at one instant.
type DisplayState int

const (
	Selectable DisplayState = iota
	AlreadySelected
	Expired
	TakenByOther
)

func (s DisplayState) String() string {
	switch s {
	case Selectable:
		return "selectable"
	case AlreadySelected:
		return "already-selected"
	case Expired:
		return "expired"
	case TakenByOther:
		return "taken-by-other"
	}
	return fmt.Sprintf("DisplayState(%d)", int(s))
}

// Outcome is the result of one negotiation attempt on one slot.
type Outcome int

const (
	Claimed Outcome = iota + 1
	AlreadyHeld
	OutcomeExpired
	Contested
	// Failed is a driver fault on the slot (detached element, click error).
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Claimed:
		return "claimed"
	case AlreadyHeld:
		return "already-held"
	case OutcomeExpired:
		return "expired"
	case Contested:
		return "contested"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *Outcome) UnmarshalText(b []byte) error {
	for c := Claimed; c <= Failed; c++ {
		if c.String() == string(b) {
			*o = c
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", b)
}

// Held reports whether the slot ends up reserved for us.
func (o Outcome) Held() bool { return o == Claimed || o == AlreadyHeld }

// SlotResult is the last known state of one slot.
type SlotResult struct {
	Range    TimeRange `json:"range"`
	Outcome  Outcome   `json:"outcome"`
	Attempts int       `json:"attempts"`
	Err      error     `json:"-"`
	Error    string    `json:"error,omitempty"`
}

// RequestStatus summarizes a RequestResult.
type RequestStatus string

const (
	RequestClaimed  RequestStatus = "claimed"
	RequestPartial  RequestStatus = "partial"
	RequestFailed   RequestStatus = "failed"
	RequestNotFound RequestStatus = "not_found"
	RequestEmpty    RequestStatus = "empty"
)

// RequestResult records what happened to one SlotRequest.
type RequestResult struct {
	Court     string       `json:"court"`
	Date      string       `json:"date"`
	Window    TimeRange    `json:"window"`
	Slots     []SlotResult `json:"slots"`
	Rounds    int          `json:"rounds"`
	Confirmed bool         `json:"confirmed"`
	Covered   bool         `json:"covered"` // cells inside the window tile it without gaps
	Err       error        `json:"-"`
	Error     string       `json:"error,omitempty"`
}

func (r RequestResult) Status() RequestStatus {
	if r.Err != nil {
		if errors.Is(r.Err, ErrNotFound) {
			return RequestNotFound
		}
		if r.held() == 0 {
			return RequestFailed
		}
		return RequestPartial
	}
	if len(r.Slots) == 0 {
		return RequestEmpty
	}
	switch held := r.held(); {
	case held == len(r.Slots):
		return RequestClaimed
	case held == 0:
		return RequestFailed
	}
	return RequestPartial
}

func (r RequestResult) held() int {
	n := 0
	for _, s := range r.Slots {
		if s.Outcome.Held() {
			n++
		}
	}
	return n
}

// TaskStatus summarizes a TaskResult.
type TaskStatus string

const (
	TaskQueued  TaskStatus = "queued"
	TaskRunning TaskStatus = "running"
	TaskDone    TaskStatus = "done"
	TaskPartial TaskStatus = "partial"
	TaskFailed  TaskStatus = "failed"
)

// TaskResult is the attributable end state of a task.
type TaskResult struct {
	TaskID     string          `json:"task_id"`
	Username   string          `json:"username"`
	Requests   []RequestResult `json:"requests"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Err        error           `json:"-"`
	Error      string          `json:"error,omitempty"`
}

func (t TaskResult) Status() TaskStatus {
	if t.Err != nil {
		return TaskFailed
	}
	claimed, failed := 0, 0
	for _, r := range t.Requests {
		switch r.Status() {
		case RequestClaimed:
			claimed++
		case RequestPartial:
		default:
			failed++
		}
	}
	switch {
	case claimed == len(t.Requests):
		return TaskDone
	case failed == len(t.Requests):
		return TaskFailed
	}
	return TaskPartial
}

// Finalize copies error texts into their serializable fields.
func (t *TaskResult) Finalize() {
	if t.Err != nil {
		t.Error = t.Err.Error()
	}
	for i := range t.Requests {
		r := &t.Requests[i]
		if r.Err != nil {
			r.Error = r.Err.Error()
		}
		for j := range r.Slots {
			if s := &r.Slots[j]; s.Err != nil {
				s.Error = s.Err.Error()
			}
		}
	}
}

// Summary renders a short human-readable report.
func (t TaskResult) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "task %s (%s): %s\n", t.TaskID, t.Username, t.Status())
	if t.Err != nil {
		fmt.Fprintf(&b, "  error: %v\n", t.Err)
	}
	for _, r := range t.Requests {
		fmt.Fprintf(&b, "  court %s %s %s-%s: %s", r.Court, r.Date, r.Window.Start.Format(ClockLayout), r.Window.End.Format(ClockLayout), r.Status())
		if r.Rounds > 0 {
			fmt.Fprintf(&b, " after %d round(s)", r.Rounds)
		}
		if r.Confirmed {
			b.WriteString(", confirmed")
		}
		if len(r.Slots) > 0 && !r.Covered {
			b.WriteString(", window not fully offered")
		}
		b.WriteString("\n")
		if r.Err != nil {
			fmt.Fprintf(&b, "    error: %v\n", r.Err)
		}
		for _, s := range r.Slots {
			fmt.Fprintf(&b, "    %s-%s %s\n", s.Range.Start.Format(ClockLayout), s.Range.End.Format(ClockLayout), s.Outcome)
		}
	}
	return b.String()
}
