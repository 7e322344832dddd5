package reservation

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// TimeRange is a concrete [Start, End) interval.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (r TimeRange) String() string {
	return fmt.Sprintf("%s %s-%s", r.Start.Format(DateLayout), r.Start.Format(ClockLayout), r.End.Format(ClockLayout))
}

// Within reports whether r lies entirely inside w. Partial overlap is not a match.
func (r TimeRange) Within(w TimeRange) bool {
	return !r.Start.Before(w.Start) && !r.End.After(w.End) && r.Start.Before(r.End)
}

// ParseTimeRange reads a rendered cell label. Only the first line is considered and it
// must look like "HH:MM-HH:MM"; the times are placed on date's calendar day in loc.
func ParseTimeRange(label string, date time.Time, loc *time.Location) (TimeRange, error) {
	line, _, _ := strings.Cut(strings.TrimSpace(label), "\n")
	from, to, ok := strings.Cut(strings.TrimSpace(line), "-")
	if !ok {
		return TimeRange{}, fmt.Errorf("time range %q: missing '-'", line)
	}
	start, err := ParseClock(from)
	if err != nil {
		return TimeRange{}, fmt.Errorf("time range %q: %w", line, err)
	}
	end, err := ParseClock(to)
	if err != nil {
		return TimeRange{}, fmt.Errorf("time range %q: %w", line, err)
	}
	if end <= start {
		return TimeRange{}, fmt.Errorf("time range %q: end not after start", line)
	}
	if loc == nil {
		loc = date.Location()
	}
	y, m, d := date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return TimeRange{Start: day.Add(start), End: day.Add(end)}, nil
}

// Covers reports whether ranges, taken together, cover w without gaps.
func Covers(ranges []TimeRange, w TimeRange) bool {
	if len(ranges) == 0 {
		return false
	}
	sorted := append([]TimeRange(nil), ranges...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })
	cursor := w.Start
	for _, r := range sorted {
		if r.Start.After(cursor) {
			return false
		}
		if r.End.After(cursor) {
			cursor = r.End
		}
	}
	return !cursor.Before(w.End)
}
