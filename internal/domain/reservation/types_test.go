package reservation

import (
	"errors"
	"testing"
	"time"

	"github.com/example/court-scheduler/internal/domain/user"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestNewSlotRequestSelector(t *testing.T) {
	d := day(t, "2024-06-01")
	cases := []struct {
		name    string
		sel     Selector
		wantErr bool
	}{
		{"index", ByIndex(2), false},
		{"name", ByName("A1"), false},
		{"both", Selector{Index: 1, Name: "A1"}, false},
		{"neither", Selector{}, true},
		{"blank name", ByName("   "), true},
		{"zero index", ByIndex(0), true},
		{"negative index", ByIndex(-3), true},
	}
	for _, tc := range cases {
		_, err := NewSlotRequest(tc.sel, d, 9*time.Hour, 10*time.Hour)
		if gotErr := err != nil; gotErr != tc.wantErr {
			t.Errorf("%s: err=%v, wantErr=%v", tc.name, err, tc.wantErr)
		}
		if err != nil && !errors.Is(err, ErrConstruction) {
			t.Errorf("%s: error %v is not ErrConstruction", tc.name, err)
		}
	}
}

func TestNewSlotRequestWindow(t *testing.T) {
	d := day(t, "2024-06-01")
	if _, err := NewSlotRequest(ByName("A1"), d, 10*time.Hour, 10*time.Hour); !errors.Is(err, ErrConstruction) {
		t.Fatalf("empty window accepted: %v", err)
	}
	if _, err := NewSlotRequest(ByName("A1"), d, 11*time.Hour, 10*time.Hour); !errors.Is(err, ErrConstruction) {
		t.Fatalf("inverted window accepted: %v", err)
	}

	r, err := NewSlotRequest(ByName(" A1 "), d.Add(13*time.Hour), 9*time.Hour, 10*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if r.Resource().Name != "A1" {
		t.Errorf("name not trimmed: %q", r.Resource().Name)
	}
	if !r.Date().Equal(d) {
		t.Errorf("date = %v, want midnight %v", r.Date(), d)
	}
	w := r.Window()
	if w.Start.Format("15:04") != "09:00" || w.End.Format("15:04") != "10:00" {
		t.Errorf("window = %v", w)
	}
}

func TestNewTask(t *testing.T) {
	r, err := NewSlotRequest(ByIndex(1), day(t, "2024-06-01"), 9*time.Hour, 10*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewTask(user.Credentials{Username: "u"}, []SlotRequest{r}); !errors.Is(err, ErrConstruction) {
		t.Fatalf("missing password accepted: %v", err)
	}
	if _, err := NewTask(user.Credentials{Username: "u", Password: "p"}, nil); !errors.Is(err, ErrConstruction) {
		t.Fatalf("empty request list accepted: %v", err)
	}
	a, err := NewTask(user.Credentials{Username: "u", Password: "p"}, []SlotRequest{r})
	if err != nil {
		t.Fatal(err)
	}
	b, _ := NewTask(user.Credentials{Username: "u", Password: "p"}, []SlotRequest{r})
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("task ids not unique: %q %q", a.ID, b.ID)
	}
}

func TestParseClock(t *testing.T) {
	d, err := ParseClock("09:30")
	if err != nil || d != 9*time.Hour+30*time.Minute {
		t.Fatalf("ParseClock = %v, %v", d, err)
	}
	if _, err := ParseClock("9.30"); err == nil {
		t.Fatal("expected error")
	}
}
