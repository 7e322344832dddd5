// Package drivertest provides an in-memory driver.Driver for tests.
package drivertest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/example/court-scheduler/internal/driver"
)

// Element is a fake DOM node. States is a sequence of extra class tokens: each read
// of the class attribute returns the next one and the last one sticks.
type Element struct {
	Tag      string
	Class    string
	States   []string
	Text     string
	HTML     string
	Children []*Element

	// OnClick runs after a successful click, e.g. to flip the cell to selected.
	OnClick  func(*Element)
	ClickErr error
	// AttrErr fails every attribute read.
	AttrErr error

	Clicks int
	Reads  int
	Value  string
}

// Cell returns a fresh element for a time cell with the given label.
func Cell(column int, label string, states ...string) *Element {
	return &Element{
		Tag:      "td",
		Class:    fmt.Sprintf("schedule-table_column_%d", column),
		States:   states,
		Children: []*Element{{Tag: "div", Text: label}},
	}
}

func (e *Element) class() string {
	state := ""
	if n := len(e.States); n > 0 {
		i := e.Reads
		if i >= n {
			i = n - 1
		}
		state = e.States[i]
	}
	return strings.TrimSpace(e.Class + " " + state)
}

func (e *Element) matches(css string) bool {
	if name, ok := strings.CutPrefix(css, "."); ok {
		for _, tok := range strings.Fields(e.Class) {
			if tok == name {
				return true
			}
		}
		return false
	}
	return e.Tag == css
}

func (e *Element) walk(fn func(*Element)) {
	for _, c := range e.Children {
		fn(c)
		c.walk(fn)
	}
}

// Driver serves elements registered per XPath and records every call.
type Driver struct {
	mu      sync.Mutex
	nodes   map[string][]*Element
	calls   []string
	scripts []string
	closed  bool

	// NavigateErr fails every navigation when set.
	NavigateErr error
}

var _ driver.Driver = (*Driver)(nil)

func New() *Driver {
	return &Driver{nodes: make(map[string][]*Element)}
}

// Set registers the elements returned for xpath. Passing none removes the entry.
func (d *Driver) Set(xpath string, els ...*Element) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(els) == 0 {
		delete(d.nodes, xpath)
		return
	}
	d.nodes[xpath] = els
}

// Calls returns the recorded call log, one "verb arg" entry per call.
func (d *Driver) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

func (d *Driver) Scripts() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.scripts...)
}

func (d *Driver) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *Driver) record(format string, args ...any) {
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("navigate %s", url)
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.NavigateErr
}

func (d *Driver) Locate(ctx context.Context, xpath string) (driver.Element, error) {
	els, err := d.LocateAll(ctx, xpath)
	if err != nil {
		return nil, err
	}
	return els[0], nil
}

func (d *Driver) LocateAll(ctx context.Context, xpath string) ([]driver.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("locate %s", xpath)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	els := d.nodes[xpath]
	if len(els) == 0 {
		return nil, fmt.Errorf("%w: %s", driver.ErrNotFound, xpath)
	}
	out := make([]driver.Element, len(els))
	for i, el := range els {
		out[i] = el
	}
	return out, nil
}

func (d *Driver) LocateWithin(ctx context.Context, parent driver.Element, css string) ([]driver.Element, error) {
	p, err := element(parent)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []driver.Element
	p.walk(func(e *Element) {
		if e.matches(css) {
			out = append(out, e)
		}
	})
	return out, nil
}

func (d *Driver) Text(ctx context.Context, el driver.Element) (string, error) {
	e, err := element(el)
	if err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return e.Text, nil
}

func (d *Driver) HTML(ctx context.Context, el driver.Element) (string, error) {
	e, err := element(el)
	if err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return e.HTML, nil
}

func (d *Driver) Attribute(ctx context.Context, el driver.Element, name string) (string, bool, error) {
	e, err := element(el)
	if err != nil {
		return "", false, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if e.AttrErr != nil {
		return "", false, e.AttrErr
	}
	if name != "class" {
		return "", false, nil
	}
	v := e.class()
	e.Reads++
	return v, true, nil
}

func (d *Driver) Click(ctx context.Context, el driver.Element) error {
	e, err := element(el)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("click %s", e.label())
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.ClickErr != nil {
		return e.ClickErr
	}
	e.Clicks++
	if e.OnClick != nil {
		e.OnClick(e)
	}
	return nil
}

func (d *Driver) Type(ctx context.Context, el driver.Element, text string) error {
	e, err := element(el)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("type %s", e.label())
	e.Value += text
	return nil
}

func (d *Driver) Drag(ctx context.Context, el driver.Element, dx, dy float64) error {
	e, err := element(el)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("drag %s %g,%g", e.label(), dx, dy)
	return nil
}

func (d *Driver) ResizeViewport(ctx context.Context, height, width int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("resize %dx%d", height, width)
	return nil
}

func (d *Driver) AddInitScript(ctx context.Context, js string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("init-script")
	d.scripts = append(d.scripts, js)
	return nil
}

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func (e *Element) label() string {
	switch {
	case e.Text != "":
		return e.Text
	case len(e.Children) > 0 && e.Children[0].Text != "":
		return strings.SplitN(e.Children[0].Text, "\n", 2)[0]
	case e.Class != "":
		return e.Class
	}
	return e.Tag
}

func element(el driver.Element) (*Element, error) {
	e, ok := el.(*Element)
	if !ok || e == nil {
		return nil, errors.New("drivertest: not a fake element")
	}
	return e, nil
}
