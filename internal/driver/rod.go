package driver

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Rod drives a local or remote Chrome through go-rod with the stealth patches applied
// to its single page.
type Rod struct {
	browser  *rod.Browser
	page     *rod.Page
	launcher *launcher.Launcher
	timeout  time.Duration
}

func OpenRod(ctx context.Context, o Options) (*Rod, error) {
	r := &Rod{timeout: o.timeout()}

	controlURL := o.ChromeURL
	if controlURL != "" {
		u, err := launcher.ResolveURL(controlURL)
		if err != nil {
			return nil, fmt.Errorf("resolve chrome url: %w", err)
		}
		controlURL = u
	} else {
		l := launcher.New().Headless(o.Headless).
			Set(flags.Flag("disable-blink-features"), "AutomationControlled")
		if o.ChromeBin != "" {
			l = l.Bin(o.ChromeBin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		r.launcher = l
		controlURL = u
	}

	r.browser = rod.New().ControlURL(controlURL)
	if err := r.browser.Connect(); err != nil {
		r.cleanup()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	page, err := stealth.Page(r.browser)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}
	r.page = page

	width, height := o.viewport()
	if err := r.ResizeViewport(ctx, height, width); err != nil {
		log.Printf("driver: set viewport: %v", err)
	}
	return r, nil
}

func (r *Rod) Navigate(ctx context.Context, url string) error {
	p := r.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("navigate %s: wait load: %w", url, err)
	}
	return nil
}

func (r *Rod) Locate(ctx context.Context, xpath string) (Element, error) {
	el, err := r.page.Context(ctx).Timeout(r.timeout).ElementX(xpath)
	if err != nil {
		return nil, notFound(ctx, xpath, err)
	}
	return el, nil
}

func (r *Rod) LocateAll(ctx context.Context, xpath string) ([]Element, error) {
	if _, err := r.Locate(ctx, xpath); err != nil {
		return nil, err
	}
	els, err := r.page.Context(ctx).ElementsX(xpath)
	if err != nil {
		return nil, fmt.Errorf("locate all %s: %w", xpath, err)
	}
	out := make([]Element, len(els))
	for i, el := range els {
		out[i] = el
	}
	return out, nil
}

func (r *Rod) LocateWithin(ctx context.Context, parent Element, css string) ([]Element, error) {
	p, err := rodElement(parent)
	if err != nil {
		return nil, err
	}
	els, err := p.Context(ctx).Elements(css)
	if err != nil {
		return nil, fmt.Errorf("locate %s: %w", css, err)
	}
	out := make([]Element, len(els))
	for i, el := range els {
		out[i] = el
	}
	return out, nil
}

func (r *Rod) Text(ctx context.Context, el Element) (string, error) {
	e, err := rodElement(el)
	if err != nil {
		return "", err
	}
	return e.Context(ctx).Text()
}

func (r *Rod) HTML(ctx context.Context, el Element) (string, error) {
	e, err := rodElement(el)
	if err != nil {
		return "", err
	}
	return e.Context(ctx).HTML()
}

func (r *Rod) Attribute(ctx context.Context, el Element, name string) (string, bool, error) {
	e, err := rodElement(el)
	if err != nil {
		return "", false, err
	}
	v, err := e.Context(ctx).Attribute(name)
	if err != nil {
		return "", false, err
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

func (r *Rod) Click(ctx context.Context, el Element) error {
	e, err := rodElement(el)
	if err != nil {
		return err
	}
	return e.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
}

func (r *Rod) Type(ctx context.Context, el Element, text string) error {
	e, err := rodElement(el)
	if err != nil {
		return err
	}
	return e.Context(ctx).Input(text)
}

func (r *Rod) Drag(ctx context.Context, el Element, dx, dy float64) error {
	e, err := rodElement(el)
	if err != nil {
		return err
	}
	shape, err := e.Context(ctx).Shape()
	if err != nil {
		return fmt.Errorf("drag: %w", err)
	}
	box := shape.Box()
	from := proto.Point{X: box.X, Y: box.Y}
	m := r.page.Mouse
	if err := m.MoveTo(from); err != nil {
		return fmt.Errorf("drag: %w", err)
	}
	if err := m.Down(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("drag: %w", err)
	}
	return m.MoveLinear(proto.Point{X: from.X + dx, Y: from.Y + dy}, 20)
}

func (r *Rod) ResizeViewport(ctx context.Context, height, width int) error {
	return proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1,
	}.Call(r.page.Context(ctx))
}

func (r *Rod) AddInitScript(ctx context.Context, js string) error {
	_, err := r.page.Context(ctx).EvalOnNewDocument(js)
	return err
}

func (r *Rod) Close() error {
	var err error
	if r.browser != nil {
		err = r.browser.Close()
	}
	r.cleanup()
	return err
}

func (r *Rod) cleanup() {
	if r.launcher != nil {
		r.launcher.Kill()
		r.launcher = nil
	}
}

func rodElement(el Element) (*rod.Element, error) {
	e, ok := el.(*rod.Element)
	if !ok || e == nil {
		return nil, fmt.Errorf("driver: %T is not a rod element", el)
	}
	return e, nil
}
