// Package status keeps the live state of submitted tasks for the API.
package status

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/example/court-scheduler/internal/domain/reservation"
)

var ErrNotFound = errors.New("status: task not found")

// Status is a snapshot of one task. Result is set once the task finishes.
type Status struct {
	TaskID    string                  `json:"id"`
	Username  string                  `json:"username"`
	State     reservation.TaskStatus  `json:"state"`
	Position  int                     `json:"position,omitempty"`
	Requests  int                     `json:"requests"`
	Request   int                     `json:"request"`
	Round     int                     `json:"round"`
	Remaining int                     `json:"remaining"`
	Accepted  time.Time               `json:"accepted_at"`
	Updated   time.Time               `json:"updated_at"`
	Result    *reservation.TaskResult `json:"result,omitempty"`
}

type Store interface {
	Put(ctx context.Context, s Status) error
	Get(ctx context.Context, id string) (Status, error)
	// List returns the known tasks, most recently accepted first.
	List(ctx context.Context) ([]Status, error)
}

// Memory is a Store for a single process.
type Memory struct {
	mu    sync.RWMutex
	tasks map[string]Status
}

func NewMemory() *Memory {
	return &Memory{tasks: make(map[string]Status)}
}

func (m *Memory) Put(ctx context.Context, s Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[s.TaskID] = s
	return nil
}

func (m *Memory) Get(ctx context.Context, id string) (Status, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.tasks[id]
	if !ok {
		return Status{}, ErrNotFound
	}
	return s, nil
}

func (m *Memory) List(ctx context.Context) ([]Status, error) {
	m.mu.RLock()
	out := make([]Status, 0, len(m.tasks))
	for _, s := range m.tasks {
		out = append(out, s)
	}
	m.mu.RUnlock()
	sortRecent(out)
	return out, nil
}

func sortRecent(ss []Status) {
	sort.Slice(ss, func(i, j int) bool { return ss[i].Accepted.After(ss[j].Accepted) })
}
