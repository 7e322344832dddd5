package reservation

import (
	"fmt"
	"strings"
	"time"

	"github.com/example/court-scheduler/internal/domain/user"
	"github.com/google/uuid"
)

// Selector identifies a court column either by 1-based position or by its rendered
// label. Index takes precedence when both are set.
type Selector struct {
	Index int    `json:"index,omitempty"`
	Name  string `json:"name,omitempty"`
}

func ByIndex(i int) Selector   { return Selector{Index: i} }
func ByName(n string) Selector { return Selector{Name: n} }

func (s Selector) IsZero() bool {
	return s.Index < 1 && strings.TrimSpace(s.Name) == ""
}

func (s Selector) String() string {
	if s.Index > 0 {
		return fmt.Sprintf("#%d", s.Index)
	}
	return fmt.Sprintf("%q", s.Name)
}

// SlotRequest is one desired reservation: a court on a date for [start, end) measured
// from local midnight. Build it with NewSlotRequest.
type SlotRequest struct {
	resource Selector
	date     time.Time
	start    time.Duration
	end      time.Duration
}

// NewSlotRequest validates and builds a request. date is truncated to midnight in its
// own location.
func NewSlotRequest(resource Selector, date time.Time, start, end time.Duration) (SlotRequest, error) {
	if resource.IsZero() {
		return SlotRequest{}, fmt.Errorf("%w: court index or name required", ErrConstruction)
	}
	if date.IsZero() {
		return SlotRequest{}, fmt.Errorf("%w: date required", ErrConstruction)
	}
	if start < 0 || end > 24*time.Hour || start >= end {
		return SlotRequest{}, fmt.Errorf("%w: window %s-%s is empty or out of range", ErrConstruction, clock(start), clock(end))
	}
	if resource.Index > 0 {
		resource.Name = ""
	}
	resource.Name = strings.TrimSpace(resource.Name)
	return SlotRequest{
		resource: resource,
		date:     Midnight(date),
		start:    start,
		end:      end,
	}, nil
}

func (r SlotRequest) Resource() Selector   { return r.resource }
func (r SlotRequest) Date() time.Time      { return r.date }
func (r SlotRequest) Start() time.Duration { return r.start }
func (r SlotRequest) End() time.Duration   { return r.end }

// Window returns the absolute bounds of the request on its date.
func (r SlotRequest) Window() TimeRange {
	return TimeRange{Start: r.date.Add(r.start), End: r.date.Add(r.end)}
}

func (r SlotRequest) String() string {
	return fmt.Sprintf("court %s on %s %s-%s", r.resource, r.date.Format(DateLayout), clock(r.start), clock(r.end))
}

// Task is one unit of work for the consumer loop.
type Task struct {
	ID          string
	Credentials user.Credentials
	Requests    []SlotRequest
	CreatedAt   time.Time
}

// NewTask assigns a fresh ID. A task needs valid credentials and at least one request.
func NewTask(creds user.Credentials, reqs []SlotRequest) (Task, error) {
	if !creds.Valid() {
		return Task{}, fmt.Errorf("%w: username and password required", ErrConstruction)
	}
	if len(reqs) == 0 {
		return Task{}, fmt.Errorf("%w: at least one request required", ErrConstruction)
	}
	return Task{
		ID:          uuid.NewString(),
		Credentials: creds,
		Requests:    append([]SlotRequest(nil), reqs...),
		CreatedAt:   time.Now().UTC(),
	}, nil
}

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// Midnight truncates t to the start of its calendar day in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ParseClock parses HH:MM into an offset from midnight.
func ParseClock(s string) (time.Duration, error) {
	t, err := time.Parse(ClockLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid time %q (want HH:MM)", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func clock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d/time.Hour), int(d%time.Hour/time.Minute))
}
