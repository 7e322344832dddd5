package driver

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"
)

var withChromeDP = flag.String("with-chromedp", "", "The url of the remote debugging port")

func TestMain(m *testing.M) {
	flag.Parse()
	os.Exit(m.Run())
}

const fixture = `<!doctype html>
<html><body>
<ul id="dates">
  <li><div>2024-06-01</div><div>Sat</div></li>
  <li><div>2024-06-02</div><div>Sun</div></li>
</ul>
<table><tbody id="slots">
  <tr><td class="schedule-table_column_1 selected"><div>09:00-09:30
open</div></td></tr>
</tbody></table>
<button id="go" onclick="this.textContent='done'">go</button>
</body></html>`

func TestChromedpBackend(t *testing.T) {
	if *withChromeDP == "" {
		t.Skip("Skipping test because --with-chromedp is not set")
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, fixture)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	d, err := OpenChromedp(ctx, Options{ChromeURL: *withChromeDP, ElementTimeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("OpenChromedp: %v", err)
	}
	defer d.Close()

	if err := d.AddInitScript(ctx, `Object.defineProperty(navigator, 'webdriver', {value: undefined, configurable: true})`); err != nil {
		t.Fatalf("AddInitScript: %v", err)
	}
	if err := d.Navigate(ctx, srv.URL); err != nil {
		t.Fatalf("Navigate: %v", err)
	}

	items, err := d.LocateAll(ctx, `//*[@id="dates"]/li`)
	if err != nil || len(items) != 2 {
		t.Fatalf("LocateAll = %d, %v", len(items), err)
	}
	divs, err := d.LocateWithin(ctx, items[1], "div")
	if err != nil || len(divs) != 2 {
		t.Fatalf("LocateWithin = %d, %v", len(divs), err)
	}
	if s, err := d.Text(ctx, divs[0]); err != nil || s != "2024-06-02" {
		t.Fatalf("Text = %q, %v", s, err)
	}

	body, err := d.Locate(ctx, `//*[@id="slots"]`)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	cells, err := d.LocateWithin(ctx, body, ".schedule-table_column_1")
	if err != nil || len(cells) != 1 {
		t.Fatalf("cells = %d, %v", len(cells), err)
	}
	class, ok, err := d.Attribute(ctx, cells[0], "class")
	if err != nil || !ok || class != "schedule-table_column_1 selected" {
		t.Fatalf("Attribute = %q, %v, %v", class, ok, err)
	}

	btn, err := d.Locate(ctx, `//*[@id="go"]`)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if err := d.Click(ctx, btn); err != nil {
		t.Fatalf("Click: %v", err)
	}
	if err := d.ResizeViewport(ctx, 10000, 1920); err != nil {
		t.Fatalf("ResizeViewport: %v", err)
	}

	if _, err := d.Locate(ctx, `//*[@id="missing"]`); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing element: %v", err)
	}
}
