// Package sitetest builds a fake venue page on top of drivertest for tests above the
// site package.
package sitetest

import (
	"fmt"
	"strings"

	"github.com/example/court-scheduler/internal/driver/drivertest"
	"github.com/example/court-scheduler/internal/site"
)

// Venue is a fake booking page laid out as site.DefaultLayout describes, with no
// settle delay.
type Venue struct {
	Driver *drivertest.Driver
	Layout site.Layout

	dates []*drivertest.Element
	body  *drivertest.Element
}

func NewVenue(courts ...string) *Venue {
	l := site.DefaultLayout()
	l.Schedule.SettleDelayMS = 0
	d := drivertest.New()
	v := &Venue{Driver: d, Layout: l, body: &drivertest.Element{Tag: "tbody"}}

	button := func(name string) *drivertest.Element { return &drivertest.Element{Tag: "button", Text: name} }
	d.Set(l.Login.Username, &drivertest.Element{Tag: "input", Text: "username"})
	d.Set(l.Login.Password, &drivertest.Element{Tag: "input", Text: "password"})
	d.Set(l.Login.Submit, button("login"))
	d.Set(l.Login.Slider, &drivertest.Element{Tag: "span", Text: "slider"})
	d.Set(l.Login.LoggedIn, &drivertest.Element{Tag: "img", Text: "avatar"})
	d.Set(l.Schedule.EntryButton, button("book"))
	d.Set(l.Schedule.SlotBody, v.body)
	for i, step := range l.Confirm {
		if step.XPath != "" {
			d.Set(step.XPath, button(fmt.Sprintf("confirm-%d", i+1)))
		}
	}

	var b strings.Builder
	for _, c := range courts {
		fmt.Fprintf(&b, "<th><div>%s</div></th>", c)
	}
	d.Set(l.Schedule.ResourceHeader, &drivertest.Element{Tag: "tr", HTML: "<tr>" + b.String() + "</tr>"})
	return v
}

// AddDate appends a date tab, e.g. AddDate("2024-06-01", "Sat").
func (v *Venue) AddDate(date, label string) *drivertest.Element {
	li := &drivertest.Element{Tag: "li", Children: []*drivertest.Element{
		{Tag: "div", Text: date},
		{Tag: "div", Text: label},
	}}
	v.dates = append(v.dates, li)
	v.Driver.Set(v.Layout.Schedule.DateItems, v.dates...)
	return li
}

// AddCell appends a cell to the court column (1-based). states are the successive
// extra class tokens; clicking the cell makes it selected.
func (v *Venue) AddCell(court int, label string, states ...string) *drivertest.Element {
	cell := drivertest.Cell(court, label, states...)
	cell.OnClick = func(e *drivertest.Element) {
		e.States = []string{"selected"}
		e.Reads = 0
	}
	v.body.Children = append(v.body.Children, cell)
	return cell
}
