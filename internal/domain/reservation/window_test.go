package reservation

import (
	"testing"
	"time"
)

func TestParseTimeRange(t *testing.T) {
	d := day(t, "2024-06-01")
	r, err := ParseTimeRange("09:00-09:30\n可预约", d, time.Local)
	if err != nil {
		t.Fatal(err)
	}
	if got := r.String(); got != "2024-06-01 09:00-09:30" {
		t.Fatalf("range = %s", got)
	}

	for _, bad := range []string{"", "09:00", "9am-10am", "10:00-09:00", "10:00-10:00"} {
		if _, err := ParseTimeRange(bad, d, time.Local); err == nil {
			t.Errorf("ParseTimeRange(%q) succeeded", bad)
		}
	}
}

func TestWithin(t *testing.T) {
	d := day(t, "2024-06-01")
	w := TimeRange{Start: d.Add(9 * time.Hour), End: d.Add(10 * time.Hour)}
	at := func(from, to time.Duration) TimeRange { return TimeRange{Start: d.Add(from), End: d.Add(to)} }

	cases := []struct {
		r    TimeRange
		want bool
	}{
		{at(9*time.Hour, 9*time.Hour+30*time.Minute), true},
		{at(9*time.Hour+30*time.Minute, 10*time.Hour), true},
		{at(9*time.Hour, 10*time.Hour), true},
		{at(8*time.Hour+30*time.Minute, 9*time.Hour+30*time.Minute), false},
		{at(9*time.Hour+30*time.Minute, 10*time.Hour+30*time.Minute), false},
		{at(8*time.Hour, 11*time.Hour), false},
	}
	for _, tc := range cases {
		if got := tc.r.Within(w); got != tc.want {
			t.Errorf("%s within %s = %v, want %v", tc.r, w, got, tc.want)
		}
	}
}

func TestCovers(t *testing.T) {
	d := day(t, "2024-06-01")
	at := func(from, to time.Duration) TimeRange { return TimeRange{Start: d.Add(from), End: d.Add(to)} }
	w := at(9*time.Hour, 10*time.Hour)

	halves := []TimeRange{at(9*time.Hour+30*time.Minute, 10*time.Hour), at(9*time.Hour, 9*time.Hour+30*time.Minute)}
	if !Covers(halves, w) {
		t.Error("two halves should cover the hour")
	}
	if Covers(halves[:1], w) {
		t.Error("one half should not cover the hour")
	}
	if Covers(nil, w) {
		t.Error("nothing covers nothing")
	}
}

func TestTaskResultStatus(t *testing.T) {
	held := SlotResult{Outcome: Claimed}
	gone := SlotResult{Outcome: OutcomeExpired, Err: &ExpiredError{}}

	full := RequestResult{Slots: []SlotResult{held, {Outcome: AlreadyHeld}}}
	partial := RequestResult{Slots: []SlotResult{held, gone}}
	missing := RequestResult{Err: &NotFoundError{What: "court", Key: `"Z9"`}}

	if s := full.Status(); s != RequestClaimed {
		t.Errorf("full = %s", s)
	}
	if s := partial.Status(); s != RequestPartial {
		t.Errorf("partial = %s", s)
	}
	if s := missing.Status(); s != RequestNotFound {
		t.Errorf("missing = %s", s)
	}
	if s := (TaskResult{Requests: []RequestResult{full, missing}}).Status(); s != TaskPartial {
		t.Errorf("task = %s", s)
	}
	if s := (TaskResult{Err: &AuthError{Username: "u"}}).Status(); s != TaskFailed {
		t.Errorf("auth failed task = %s", s)
	}
}

func TestOutcomeText(t *testing.T) {
	var o Outcome
	if err := o.UnmarshalText([]byte("already-held")); err != nil || o != AlreadyHeld {
		t.Fatalf("UnmarshalText = %s, %v", o, err)
	}
	if err := o.UnmarshalText([]byte("maybe")); err == nil {
		t.Fatal("unknown outcome accepted")
	}
}
