package status

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/example/court-scheduler/internal/domain/reservation"
	"github.com/example/court-scheduler/internal/domain/user"
	"github.com/example/court-scheduler/internal/runner"
)

func task(t *testing.T) reservation.Task {
	t.Helper()
	req, err := reservation.NewSlotRequest(reservation.ByIndex(1), time.Date(2024, 6, 1, 0, 0, 0, 0, time.Local), 9*time.Hour, 10*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	tk, err := reservation.NewTask(user.Credentials{Username: "alice", Password: "pw"}, []reservation.SlotRequest{req})
	if err != nil {
		t.Fatal(err)
	}
	return tk
}

func TestTrackerLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	tr := &Tracker{Store: store}
	tk := task(t)
	at := time.Date(2024, 5, 31, 12, 0, 0, 0, time.UTC)

	tr.Observe(ctx, runner.Event{Kind: runner.TaskAccepted, Task: tk, Position: 2, At: at})
	s, err := store.Get(ctx, tk.ID)
	if err != nil || s.State != reservation.TaskQueued || s.Position != 2 || s.Username != "alice" {
		t.Fatalf("accepted: %+v, %v", s, err)
	}

	tr.Observe(ctx, runner.Event{Kind: runner.TaskStarted, Task: tk, At: at.Add(time.Second)})
	tr.Observe(ctx, runner.Event{Kind: runner.RoundCompleted, Task: tk, Round: 3, Remaining: 1, At: at.Add(2 * time.Second)})
	s, _ = store.Get(ctx, tk.ID)
	if s.State != reservation.TaskRunning || s.Round != 3 || s.Remaining != 1 || s.Position != 0 {
		t.Fatalf("running: %+v", s)
	}

	res := &reservation.TaskResult{TaskID: tk.ID, Requests: []reservation.RequestResult{{
		Slots: []reservation.SlotResult{{Outcome: reservation.Claimed}},
	}}}
	tr.Observe(ctx, runner.Event{Kind: runner.TaskFinished, Task: tk, Result: res, At: at.Add(3 * time.Second)})
	s, _ = store.Get(ctx, tk.ID)
	if s.State != reservation.TaskDone || s.Result == nil || !s.Accepted.Equal(at) {
		t.Fatalf("finished: %+v", s)
	}
}

func TestTrackerNeverMovesBackwards(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	tr := &Tracker{Store: store}
	tk := task(t)
	at := time.Date(2024, 5, 31, 12, 0, 0, 0, time.UTC)
	res := &reservation.TaskResult{TaskID: tk.ID, Requests: []reservation.RequestResult{{
		Slots: []reservation.SlotResult{{Outcome: reservation.Claimed}},
	}}}

	// Events delivered out of order: the accept lands last.
	tr.Observe(ctx, runner.Event{Kind: runner.TaskStarted, Task: tk, At: at.Add(time.Second)})
	tr.Observe(ctx, runner.Event{Kind: runner.TaskFinished, Task: tk, Result: res, At: at.Add(2 * time.Second)})
	tr.Observe(ctx, runner.Event{Kind: runner.RoundCompleted, Task: tk, Round: 1, Remaining: 1, At: at.Add(3 * time.Second)})
	tr.Observe(ctx, runner.Event{Kind: runner.TaskAccepted, Task: tk, Position: 1, At: at})

	s, err := store.Get(ctx, tk.ID)
	if err != nil {
		t.Fatal(err)
	}
	if s.State != reservation.TaskDone || s.Remaining != 0 || s.Position != 0 {
		t.Fatalf("state = %+v", s)
	}
	if !s.Accepted.Equal(at) || !s.Updated.Equal(at.Add(2*time.Second)) {
		t.Fatalf("accepted %s updated %s", s.Accepted, s.Updated)
	}
}

func TestMemoryListMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Now()
	for i, id := range []string{"a", "b", "c"} {
		m.Put(ctx, Status{TaskID: id, Accepted: base.Add(time.Duration(i) * time.Minute)})
	}
	list, _ := m.List(ctx)
	if len(list) != 3 || list[0].TaskID != "c" || list[2].TaskID != "a" {
		t.Fatalf("list = %+v", list)
	}
	if _, err := m.Get(ctx, "zzz"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing = %v", err)
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	r := NewRedis(addr, "", 0)
	defer r.Close()
	if err := r.Ping(ctx); err != nil {
		t.Fatal(err)
	}

	tk := task(t)
	if err := r.Put(ctx, Status{TaskID: tk.ID, Username: "alice", State: reservation.TaskQueued, Accepted: time.Now()}); err != nil {
		t.Fatal(err)
	}
	defer r.client.Del(ctx, keyPrefix+tk.ID)

	s, err := r.Get(ctx, tk.ID)
	if err != nil || s.Username != "alice" || s.State != reservation.TaskQueued {
		t.Fatalf("Get = %+v, %v", s, err)
	}
	ttl, err := r.client.TTL(ctx, keyPrefix+tk.ID).Result()
	if err != nil || ttl <= 0 || ttl > redisTTL {
		t.Fatalf("ttl = %v, %v", ttl, err)
	}
	list, err := r.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, s := range list {
		found = found || s.TaskID == tk.ID
	}
	if !found {
		t.Fatal("List does not include the stored task")
	}
	if _, err := r.Get(ctx, "missing-"+tk.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing = %v", err)
	}
}
