package driver

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Chromedp drives Chrome through the DevTools protocol, either launching a local
// browser or attaching to a remote debugging endpoint.
type Chromedp struct {
	ctx         context.Context // tab context; every action runs under it
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	timeout     time.Duration
}

func OpenChromedp(ctx context.Context, o Options) (*Chromedp, error) {
	var (
		allocCtx    context.Context
		cancelAlloc context.CancelFunc
	)
	// The browser outlives the call that opened it.
	parent := context.WithoutCancel(ctx)
	if o.ChromeURL != "" {
		allocCtx, cancelAlloc = chromedp.NewRemoteAllocator(parent, o.ChromeURL)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", o.Headless),
			chromedp.Flag("disable-blink-features", "AutomationControlled"),
		)
		if o.ChromeBin != "" {
			opts = append(opts, chromedp.ExecPath(o.ChromeBin))
		}
		allocCtx, cancelAlloc = chromedp.NewExecAllocator(parent, opts...)
	}
	tabCtx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(log.Printf),
		chromedp.WithErrorf(log.Printf),
	)
	c := &Chromedp{ctx: tabCtx, cancelTab: cancelTab, cancelAlloc: cancelAlloc, timeout: o.timeout()}

	width, height := o.viewport()
	if err := chromedp.Run(tabCtx, emulation.SetDeviceMetricsOverride(int64(width), int64(height), 1, false)); err != nil {
		c.Close()
		return nil, fmt.Errorf("start chrome: %w", err)
	}
	return c, nil
}

// run executes actions on the tab, bounded by the caller's ctx and by d when d > 0.
func (c *Chromedp) run(ctx context.Context, d time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(c.ctx)
	defer cancel()
	if d > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, d)
		defer cancel()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (c *Chromedp) Navigate(ctx context.Context, url string) error {
	if err := c.run(ctx, 0, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (c *Chromedp) Locate(ctx context.Context, xpath string) (Element, error) {
	var nodes []*cdp.Node
	if err := c.run(ctx, c.timeout, chromedp.Nodes(xpath, &nodes, chromedp.BySearch)); err != nil {
		return nil, notFound(ctx, xpath, err)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, xpath)
	}
	return nodes[0], nil
}

func (c *Chromedp) LocateAll(ctx context.Context, xpath string) ([]Element, error) {
	var nodes []*cdp.Node
	if err := c.run(ctx, c.timeout, chromedp.Nodes(xpath, &nodes, chromedp.BySearch)); err != nil {
		return nil, notFound(ctx, xpath, err)
	}
	return elements(nodes), nil
}

func (c *Chromedp) LocateWithin(ctx context.Context, parent Element, css string) ([]Element, error) {
	p, err := cdpNode(parent)
	if err != nil {
		return nil, err
	}
	var nodes []*cdp.Node
	err = c.run(ctx, c.timeout, chromedp.Nodes(css, &nodes,
		chromedp.ByQueryAll, chromedp.FromNode(p), chromedp.AtLeast(0)))
	if err != nil {
		return nil, fmt.Errorf("locate %s: %w", css, err)
	}
	return elements(nodes), nil
}

func (c *Chromedp) Text(ctx context.Context, el Element) (string, error) {
	n, err := cdpNode(el)
	if err != nil {
		return "", err
	}
	var s string
	err = c.run(ctx, c.timeout, chromedp.Text([]cdp.NodeID{n.NodeID}, &s, chromedp.ByNodeID))
	return s, err
}

func (c *Chromedp) HTML(ctx context.Context, el Element) (string, error) {
	n, err := cdpNode(el)
	if err != nil {
		return "", err
	}
	var s string
	err = c.run(ctx, c.timeout, chromedp.OuterHTML([]cdp.NodeID{n.NodeID}, &s, chromedp.ByNodeID))
	return s, err
}

func (c *Chromedp) Attribute(ctx context.Context, el Element, name string) (string, bool, error) {
	n, err := cdpNode(el)
	if err != nil {
		return "", false, err
	}
	var (
		v  string
		ok bool
	)
	err = c.run(ctx, c.timeout, chromedp.AttributeValue([]cdp.NodeID{n.NodeID}, name, &v, &ok, chromedp.ByNodeID))
	return v, ok, err
}

func (c *Chromedp) Click(ctx context.Context, el Element) error {
	n, err := cdpNode(el)
	if err != nil {
		return err
	}
	return c.run(ctx, c.timeout, chromedp.MouseClickNode(n))
}

func (c *Chromedp) Type(ctx context.Context, el Element, text string) error {
	n, err := cdpNode(el)
	if err != nil {
		return err
	}
	return c.run(ctx, c.timeout, chromedp.SendKeys([]cdp.NodeID{n.NodeID}, text, chromedp.ByNodeID))
}

func (c *Chromedp) Drag(ctx context.Context, el Element, dx, dy float64) error {
	n, err := cdpNode(el)
	if err != nil {
		return err
	}
	return c.run(ctx, c.timeout, chromedp.ActionFunc(func(ctx context.Context) error {
		box, err := dom.GetBoxModel().WithNodeID(n.NodeID).Do(ctx)
		if err != nil {
			return fmt.Errorf("drag: %w", err)
		}
		if len(box.Content) < 2 {
			return fmt.Errorf("drag: node has no box")
		}
		x, y := box.Content[0], box.Content[1]
		if err := chromedp.MouseEvent(input.MouseMoved, x, y).Do(ctx); err != nil {
			return err
		}
		if err := chromedp.MouseEvent(input.MousePressed, x, y, chromedp.ButtonLeft, chromedp.ClickCount(1)).Do(ctx); err != nil {
			return err
		}
		const steps = 20
		for i := 1; i <= steps; i++ {
			f := float64(i) / steps
			if err := chromedp.MouseEvent(input.MouseMoved, x+dx*f, y+dy*f, chromedp.ButtonLeft).Do(ctx); err != nil {
				return err
			}
		}
		return nil
	}))
}

func (c *Chromedp) ResizeViewport(ctx context.Context, height, width int) error {
	return c.run(ctx, 0, emulation.SetDeviceMetricsOverride(int64(width), int64(height), 1, false))
}

func (c *Chromedp) AddInitScript(ctx context.Context, js string) error {
	return c.run(ctx, 0, chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(js).Do(ctx)
		return err
	}))
}

func (c *Chromedp) Close() error {
	c.cancelTab()
	c.cancelAlloc()
	return nil
}

func cdpNode(el Element) (*cdp.Node, error) {
	n, ok := el.(*cdp.Node)
	if !ok || n == nil {
		return nil, fmt.Errorf("driver: %T is not a chromedp node", el)
	}
	return n, nil
}

func elements(nodes []*cdp.Node) []Element {
	out := make([]Element, len(nodes))
	for i, n := range nodes {
		out[i] = n
	}
	return out
}
