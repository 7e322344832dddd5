package site

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/example/court-scheduler/internal/domain/reservation"
	"github.com/example/court-scheduler/internal/driver"
)

// DateView is the date tab selected on the venue page.
type DateView struct {
	Date  time.Time
	Label string
}

// ResourceView is one court column within a DateView.
type ResourceView struct {
	Date  DateView
	Index int // 1-based column position
	Name  string
}

// Resolver maps requests onto rendered page elements. Resolution order matters: the
// court header is only meaningful once a date has been selected.
type Resolver struct {
	Driver   driver.Driver
	Layout   Layout
	Location *time.Location

	// sleep is replaced in tests.
	sleep func(context.Context, time.Duration) error
}

func NewResolver(d driver.Driver, l Layout, loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.Local
	}
	return &Resolver{Driver: d, Layout: l, Location: loc}
}

// ResolveDate opens the venue booking view and selects the date tab for date.
func (r *Resolver) ResolveDate(ctx context.Context, date time.Time) (DateView, error) {
	s := r.Layout.Schedule
	if err := r.Driver.Navigate(ctx, r.Layout.VenueURL); err != nil {
		return DateView{}, err
	}
	entry, err := r.Driver.Locate(ctx, s.EntryButton)
	if err != nil {
		return DateView{}, fmt.Errorf("booking entry: %w", err)
	}
	if err := r.Driver.Click(ctx, entry); err != nil {
		return DateView{}, fmt.Errorf("booking entry: %w", err)
	}

	items, err := r.Driver.LocateAll(ctx, s.DateItems)
	if err != nil {
		return DateView{}, fmt.Errorf("date list: %w", err)
	}
	want := date.Format(reservation.DateLayout)
	for _, item := range items {
		divs, err := r.Driver.LocateWithin(ctx, item, "div")
		if err != nil {
			return DateView{}, fmt.Errorf("date list: %w", err)
		}
		if len(divs) < 2 {
			continue
		}
		text, err := r.Driver.Text(ctx, divs[0])
		if err != nil {
			return DateView{}, fmt.Errorf("date list: %w", err)
		}
		if strings.TrimSpace(text) != want {
			continue
		}
		label, err := r.Driver.Text(ctx, divs[1])
		if err != nil {
			return DateView{}, fmt.Errorf("date list: %w", err)
		}
		if err := r.Driver.Click(ctx, item); err != nil {
			return DateView{}, fmt.Errorf("select date %s: %w", want, err)
		}
		return DateView{Date: reservation.Midnight(date), Label: strings.TrimSpace(label)}, nil
	}
	return DateView{}, &reservation.NotFoundError{What: "date", Key: want}
}

// ResolveResource finds the court column matching sel in the selected date view.
func (r *Resolver) ResolveResource(ctx context.Context, dv DateView, sel reservation.Selector) (ResourceView, error) {
	header, err := r.Driver.Locate(ctx, r.Layout.Schedule.ResourceHeader)
	if err != nil {
		return ResourceView{}, fmt.Errorf("court header: %w", err)
	}
	html, err := r.Driver.HTML(ctx, header)
	if err != nil {
		return ResourceView{}, fmt.Errorf("court header: %w", err)
	}
	names, err := CourtNames(html)
	if err != nil {
		return ResourceView{}, fmt.Errorf("court header: %w", err)
	}
	for i, name := range names {
		idx := i + 1
		if (sel.Index > 0 && sel.Index == idx) || (sel.Index < 1 && name == normalize(sel.Name)) {
			return ResourceView{Date: dv, Index: idx, Name: name}, nil
		}
	}
	return ResourceView{}, &reservation.NotFoundError{What: "court", Key: sel.String()}
}

// CourtNames extracts the court labels from the header row's HTML in column order.
func CourtNames(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<table>" + html + "</table>"))
	if err != nil {
		return nil, err
	}
	var names []string
	doc.Find("div").Each(func(_ int, s *goquery.Selection) {
		names = append(names, normalize(s.Text()))
	})
	return names, nil
}

// ListSlots returns every rendered cell of the court column, in page order. Cells
// whose label is not a time range are skipped.
func (r *Resolver) ListSlots(ctx context.Context, rv ResourceView) ([]SlotHandle, error) {
	s := r.Layout.Schedule
	body, err := r.Driver.Locate(ctx, s.SlotBody)
	if err != nil {
		return nil, fmt.Errorf("slot table: %w", err)
	}
	if err := r.wait(ctx, s.SettleDelay()); err != nil {
		return nil, err
	}
	cells, err := r.Driver.LocateWithin(ctx, body, "."+fmt.Sprintf(s.CellClass, rv.Index))
	if err != nil {
		return nil, fmt.Errorf("slot table: %w", err)
	}

	var out []SlotHandle
	for _, cell := range cells {
		divs, err := r.Driver.LocateWithin(ctx, cell, "div")
		if err != nil {
			return nil, fmt.Errorf("slot cell: %w", err)
		}
		if len(divs) == 0 {
			continue
		}
		label, err := r.Driver.Text(ctx, divs[0])
		if err != nil {
			return nil, fmt.Errorf("slot cell: %w", err)
		}
		tr, err := reservation.ParseTimeRange(label, rv.Date.Date, r.Location)
		if err != nil {
			log.Printf("site: skip cell in court %s: %v", rv.Name, err)
			continue
		}
		_, note, _ := strings.Cut(strings.TrimSpace(label), "\n")
		out = append(out, SlotHandle{
			Element: cell,
			Range:   tr,
			Note:    strings.TrimSpace(note),
			Court:   rv.Name,
			Index:   rv.Index,
		})
	}
	return out, nil
}

// FilterWindow keeps the handles that lie entirely inside the request's window.
func FilterWindow(hs []SlotHandle, req reservation.SlotRequest, loc *time.Location) []SlotHandle {
	w := req.Window()
	if loc != nil {
		d := req.Date()
		day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
		w = reservation.TimeRange{Start: day.Add(req.Start()), End: day.Add(req.End())}
	}
	var out []SlotHandle
	for _, h := range hs {
		if h.Range.Within(w) {
			out = append(out, h)
		}
	}
	return out
}

func (r *Resolver) wait(ctx context.Context, d time.Duration) error {
	if r.sleep != nil {
		return r.sleep(ctx, d)
	}
	return Sleep(ctx, d)
}

// Sleep pauses for d or until ctx ends.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
