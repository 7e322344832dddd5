// Package driver is the browser automation boundary. Everything above it talks to a
// page through Driver; the backends wrap go-rod and chromedp.
package driver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a locate call times out without a match.
var ErrNotFound = errors.New("driver: element not found")

// Element is an opaque handle owned by the backend that produced it.
type Element any

// Driver drives one browsing session. Page-level lookups take XPath expressions;
// LocateWithin takes a CSS selector scoped to a parent element.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	// Locate waits for the first element matching xpath.
	Locate(ctx context.Context, xpath string) (Element, error)
	// LocateAll waits for at least one match and returns every match.
	LocateAll(ctx context.Context, xpath string) ([]Element, error)
	// LocateWithin returns the descendants of parent matching css without waiting.
	LocateWithin(ctx context.Context, parent Element, css string) ([]Element, error)
	Text(ctx context.Context, el Element) (string, error)
	HTML(ctx context.Context, el Element) (string, error)
	// Attribute reports the current value and whether the attribute is present.
	Attribute(ctx context.Context, el Element, name string) (string, bool, error)
	Click(ctx context.Context, el Element) error
	Type(ctx context.Context, el Element, text string) error
	// Drag presses the left button on el and moves by (dx, dy) without releasing.
	Drag(ctx context.Context, el Element, dx, dy float64) error
	ResizeViewport(ctx context.Context, height, width int) error
	AddInitScript(ctx context.Context, js string) error
	Close() error
}

type Options struct {
	Backend        string // "rod" or "chromedp"
	ChromeBin      string
	ChromeURL      string // remote debugging endpoint; skips launching a browser
	Headless       bool
	ElementTimeout time.Duration
	Width, Height  int
}

func (o Options) timeout() time.Duration {
	if o.ElementTimeout <= 0 {
		return 15 * time.Second
	}
	return o.ElementTimeout
}

func (o Options) viewport() (width, height int) {
	width, height = o.Width, o.Height
	if width <= 0 {
		width = 1920
	}
	if height <= 0 {
		height = 1280
	}
	return width, height
}

// Open starts the configured backend. The returned driver is not safe for concurrent
// use; wrap it with Serialize before sharing it.
func Open(ctx context.Context, o Options) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(o.Backend)) {
	case "", "rod":
		return OpenRod(ctx, o)
	case "chromedp":
		return OpenChromedp(ctx, o)
	default:
		return nil, fmt.Errorf("driver: unknown backend %q", o.Backend)
	}
}

// notFound maps a lookup deadline into ErrNotFound, leaving caller cancellation alone.
func notFound(ctx context.Context, xpath string, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrNotFound, xpath)
	}
	return fmt.Errorf("locate %s: %w", xpath, err)
}
