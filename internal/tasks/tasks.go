// Package tasks is the Postgres history of every task the runner has accepted.
package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/example/court-scheduler/internal/db"
	"github.com/example/court-scheduler/internal/domain/reservation"
	"github.com/example/court-scheduler/internal/runner"
)

// Record is one row of the tasks table. Passwords are never stored.
type Record struct {
	ID         string                  `json:"id"`
	Username   string                  `json:"username"`
	Status     reservation.TaskStatus  `json:"state"`
	Requests   []Request               `json:"requests"`
	Result     *reservation.TaskResult `json:"result,omitempty"`
	Error      *string                 `json:"error,omitempty"`
	AcceptedAt time.Time               `json:"accepted_at"`
	StartedAt  *time.Time              `json:"started_at,omitempty"`
	FinishedAt *time.Time              `json:"finished_at,omitempty"`
}

// Request is the stored form of a SlotRequest.
type Request struct {
	Court string `json:"court"`
	Date  string `json:"date"`
	Start string `json:"start"`
	End   string `json:"end"`
}

func requestsOf(t reservation.Task) []Request {
	out := make([]Request, len(t.Requests))
	for i, r := range t.Requests {
		w := r.Window()
		out[i] = Request{
			Court: r.Resource().String(),
			Date:  r.Date().Format(reservation.DateLayout),
			Start: w.Start.Format(reservation.ClockLayout),
			End:   w.End.Format(reservation.ClockLayout),
		}
	}
	return out
}

type Repo struct{ db *db.DB }

func NewRepo(d *db.DB) *Repo { return &Repo{db: d} }

func (r *Repo) Accept(ctx context.Context, t reservation.Task, at time.Time) error {
	reqs, err := json.Marshal(requestsOf(t))
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
INSERT INTO tasks(id, username, status, requests, accepted_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (id) DO NOTHING`,
		t.ID, t.Credentials.Username, string(reservation.TaskQueued), reqs, at)
	return err
}

func (r *Repo) Start(ctx context.Context, id string, at time.Time) error {
	n, err := r.db.Exec(ctx, `UPDATE tasks SET status=$2, started_at=$3 WHERE id=$1`, id, string(reservation.TaskRunning), at)
	if err != nil {
		return err
	}
	if n == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *Repo) Finish(ctx context.Context, res reservation.TaskResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	var lastErr *string
	if res.Error != "" {
		lastErr = &res.Error
	}
	n, err := r.db.Exec(ctx, `UPDATE tasks SET status=$2, result=$3, error=$4, finished_at=$5 WHERE id=$1`,
		res.TaskID, string(res.Status()), data, lastErr, res.FinishedAt)
	if err != nil {
		return err
	}
	if n == 0 {
		return db.ErrNotFound
	}
	return nil
}

const selectCols = `id, username, status, requests, result, error, accepted_at, started_at, finished_at`

func (r *Repo) Get(ctx context.Context, id string) (Record, error) {
	rec, err := scan(r.db.QueryRow(ctx, `SELECT `+selectCols+` FROM tasks WHERE id=$1`, id))
	if err != nil {
		return Record{}, db.WrapNotFound(err)
	}
	return rec, nil
}

func (r *Repo) ListRecent(ctx context.Context, limit int) ([]Record, error) {
	rows, err := r.db.Query(ctx, `SELECT `+selectCols+` FROM tasks ORDER BY accepted_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scan(row db.Row) (Record, error) {
	var (
		rec          Record
		status       string
		reqs, result []byte
	)
	if err := row.Scan(&rec.ID, &rec.Username, &status, &reqs, &result, &rec.Error, &rec.AcceptedAt, &rec.StartedAt, &rec.FinishedAt); err != nil {
		return Record{}, err
	}
	rec.Status = reservation.TaskStatus(status)
	if err := json.Unmarshal(reqs, &rec.Requests); err != nil {
		return Record{}, fmt.Errorf("task %s requests: %w", rec.ID, err)
	}
	if len(result) > 0 {
		rec.Result = new(reservation.TaskResult)
		if err := json.Unmarshal(result, rec.Result); err != nil {
			return Record{}, fmt.Errorf("task %s result: %w", rec.ID, err)
		}
	}
	return rec, nil
}

// Observe writes the task lifecycle into history. Failures are logged; the runner
// never waits on the database to make progress.
func (r *Repo) Observe(ctx context.Context, ev runner.Event) {
	var err error
	switch ev.Kind {
	case runner.TaskAccepted:
		err = r.Accept(ctx, ev.Task, ev.At)
	case runner.TaskStarted:
		err = r.Start(ctx, ev.Task.ID, ev.At)
	case runner.TaskFinished:
		err = r.Finish(ctx, *ev.Result)
	default:
		return
	}
	if err != nil {
		log.Printf("tasks: %s %s: %v", ev.Kind, ev.Task.ID, err)
	}
}
