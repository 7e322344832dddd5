package web

import (
	"fmt"
	"strings"
	"time"

	"github.com/example/court-scheduler/internal/domain/reservation"
	"github.com/example/court-scheduler/internal/domain/user"
)

// taskRequest is the body of POST /api/tasks.
type taskRequest struct {
	Username string        `json:"username"`
	Password string        `json:"password"`
	Requests []slotRequest `json:"requests"`
}

// slotRequest names a court by 1-based court_index or by court_name; the index wins
// when both are present.
type slotRequest struct {
	CourtIndex int    `json:"court_index"`
	CourtName  string `json:"court_name"`
	Date       string `json:"date"`
	Start      string `json:"start"`
	End        string `json:"end"`
}

func (t taskRequest) task(loc *time.Location) (reservation.Task, error) {
	reqs := make([]reservation.SlotRequest, 0, len(t.Requests))
	for i, r := range t.Requests {
		sr, err := r.slot(loc)
		if err != nil {
			return reservation.Task{}, fmt.Errorf("requests[%d]: %w", i, err)
		}
		reqs = append(reqs, sr)
	}
	creds := user.Credentials{Username: strings.TrimSpace(t.Username), Password: t.Password}
	return reservation.NewTask(creds, reqs)
}

func (r slotRequest) slot(loc *time.Location) (reservation.SlotRequest, error) {
	date, err := time.ParseInLocation(reservation.DateLayout, strings.TrimSpace(r.Date), loc)
	if err != nil {
		return reservation.SlotRequest{}, fmt.Errorf("%w: invalid date %q (want YYYY-MM-DD)", reservation.ErrConstruction, r.Date)
	}
	start, err := reservation.ParseClock(r.Start)
	if err != nil {
		return reservation.SlotRequest{}, fmt.Errorf("%w: start: %v", reservation.ErrConstruction, err)
	}
	end, err := reservation.ParseClock(r.End)
	if err != nil {
		return reservation.SlotRequest{}, fmt.Errorf("%w: end: %v", reservation.ErrConstruction, err)
	}
	sel := reservation.ByName(r.CourtName)
	if r.CourtIndex > 0 {
		sel = reservation.ByIndex(r.CourtIndex)
	}
	return reservation.NewSlotRequest(sel, date, start, end)
}
