package driver

import (
	"context"
	"sync"
)

// Serialized lets several goroutines share one Driver by running one call at a time.
type Serialized struct {
	mu sync.Mutex
	d  Driver
}

func Serialize(d Driver) *Serialized {
	if s, ok := d.(*Serialized); ok {
		return s
	}
	return &Serialized{d: d}
}

func (s *Serialized) Navigate(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.Navigate(ctx, url)
}

func (s *Serialized) Locate(ctx context.Context, xpath string) (Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.Locate(ctx, xpath)
}

func (s *Serialized) LocateAll(ctx context.Context, xpath string) ([]Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.LocateAll(ctx, xpath)
}

func (s *Serialized) LocateWithin(ctx context.Context, parent Element, css string) ([]Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.LocateWithin(ctx, parent, css)
}

func (s *Serialized) Text(ctx context.Context, el Element) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.Text(ctx, el)
}

func (s *Serialized) HTML(ctx context.Context, el Element) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.HTML(ctx, el)
}

func (s *Serialized) Attribute(ctx context.Context, el Element, name string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.Attribute(ctx, el, name)
}

func (s *Serialized) Click(ctx context.Context, el Element) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.Click(ctx, el)
}

func (s *Serialized) Type(ctx context.Context, el Element, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.Type(ctx, el, text)
}

func (s *Serialized) Drag(ctx context.Context, el Element, dx, dy float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.Drag(ctx, el, dx, dy)
}

func (s *Serialized) ResizeViewport(ctx context.Context, height, width int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.ResizeViewport(ctx, height, width)
}

func (s *Serialized) AddInitScript(ctx context.Context, js string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.AddInitScript(ctx, js)
}

func (s *Serialized) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.Close()
}
