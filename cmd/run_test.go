package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/example/court-scheduler/internal/domain/reservation"
)

func TestRunFlagsTask(t *testing.T) {
	loc := time.FixedZone("CST", 8*3600)
	now := time.Date(2024, 6, 1, 22, 30, 0, 0, time.UTC) // 06:30 on June 2 in loc

	f := runFlags{username: "alice", password: "pw", courtNum: 3, start: "09:00", end: "10:30"}
	task, err := f.task(loc, now)
	if err != nil {
		t.Fatal(err)
	}
	req := task.Requests[0]
	if !req.Date().Equal(time.Date(2024, 6, 2, 0, 0, 0, 0, loc)) {
		t.Fatalf("default date = %s", req.Date())
	}
	if req.Resource() != reservation.ByIndex(3) || req.End() != 10*time.Hour+30*time.Minute {
		t.Fatalf("request = %s", req)
	}

	f = runFlags{username: "alice", password: "pw", courtName: "A2", date: "2024-07-04", start: "18:00", end: "19:00"}
	task, err = f.task(loc, now)
	if err != nil {
		t.Fatal(err)
	}
	if got := task.Requests[0].Window().Start; !got.Equal(time.Date(2024, 7, 4, 18, 0, 0, 0, loc)) {
		t.Fatalf("window start = %s", got)
	}

	for name, bad := range map[string]runFlags{
		"bad date":  {username: "a", password: "p", courtNum: 1, date: "4/7", start: "09:00", end: "10:00"},
		"bad clock": {username: "a", password: "p", courtNum: 1, start: "9", end: "10:00"},
		"reversed":  {username: "a", password: "p", courtNum: 1, start: "11:00", end: "10:00"},
	} {
		if _, err := bad.task(loc, now); err == nil {
			t.Errorf("%s: no error", name)
		}
	}
	if _, err := (runFlags{username: "a", password: "p", courtNum: 1, start: "11:00", end: "10:00"}).task(loc, now); !errors.Is(err, reservation.ErrConstruction) {
		t.Fatalf("reversed window: %v", err)
	}
}

func TestClaimedAny(t *testing.T) {
	res := reservation.TaskResult{Requests: []reservation.RequestResult{
		{Slots: []reservation.SlotResult{{Outcome: reservation.Contested}}},
		{Slots: []reservation.SlotResult{{Outcome: reservation.OutcomeExpired}, {Outcome: reservation.AlreadyHeld}}},
	}}
	if !claimedAny(res) {
		t.Fatal("already-held slot not counted")
	}
	res.Requests[1].Slots[1].Outcome = reservation.Failed
	if claimedAny(res) {
		t.Fatal("nothing held but claimedAny")
	}
}

func TestRunRequiresOneCourtFlag(t *testing.T) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"run", "-u", "a", "-p", "b", "-n", "1", "-N", "A1", "-s", "09:00", "-e", "10:00"})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "court-name") {
		t.Fatalf("err = %v", err)
	}
}

func TestVersion(t *testing.T) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "courtsched dev") {
		t.Fatalf("version = %q", out.String())
	}
}
