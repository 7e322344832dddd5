package site

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Layout holds every page location the automation depends on. The defaults describe
// the ydmap venue pages; a TOML file can override any of them.
type Layout struct {
	LoginURL string `toml:"login_url"`
	VenueURL string `toml:"venue_url"`
	// StealthScript runs in every new document before page scripts.
	StealthScript string `toml:"stealth_script"`

	Login    LoginLayout    `toml:"login"`
	Schedule ScheduleLayout `toml:"schedule"`
	Confirm  []ConfirmStep  `toml:"confirm"`
	Classes  ClassTokens    `toml:"classes"`
}

type LoginLayout struct {
	Username       string  `toml:"username"`
	Password       string  `toml:"password"`
	Submit         string  `toml:"submit"`
	Slider         string  `toml:"slider"`
	SliderOffsetPX float64 `toml:"slider_offset_px"`
	LoggedIn       string  `toml:"logged_in"`
}

type ScheduleLayout struct {
	EntryButton    string `toml:"entry_button"`
	DateItems      string `toml:"date_items"`
	ResourceHeader string `toml:"resource_header"`
	SlotBody       string `toml:"slot_body"`
	// CellClass is formatted with the 1-based court index.
	CellClass     string `toml:"cell_class"`
	SettleDelayMS int    `toml:"settle_delay_ms"`
}

func (s ScheduleLayout) SettleDelay() time.Duration {
	return time.Duration(s.SettleDelayMS) * time.Millisecond
}

// ConfirmStep is one action of the confirmation sequence. Action is "click", "wait"
// or "resize".
type ConfirmStep struct {
	Action string `toml:"action"`
	XPath  string `toml:"xpath,omitempty"`
	Height int    `toml:"height,omitempty"`
	Width  int    `toml:"width,omitempty"`
}

// ClassTokens lists the class names that mark each display state. Matching is per
// whitespace-separated token and case-insensitive.
type ClassTokens struct {
	Selected []string `toml:"selected"`
	Expired  []string `toml:"expired"`
	Taken    []string `toml:"taken"`
}

const webdriverPatch = `Object.defineProperty(navigator, 'webdriver', {
    value: undefined,
    configurable: true
})`

func DefaultLayout() Layout {
	return Layout{
		LoginURL:      "https://ftty.ydmap.cn/user/login",
		VenueURL:      "https://ftty.ydmap.cn/venue/101333",
		StealthScript: webdriverPatch,
		Login: LoginLayout{
			Username:       `//*[@id="skin-app"]/div/section/form/div[1]/div/div[1]/input`,
			Password:       `//*[@id="skin-app"]/div/section/form/div[2]/div/div/input`,
			Submit:         `//*[@id="skin-app"]/div/section/section/button`,
			Slider:         `//*[@id="nc_1_n1z"]`,
			SliderOffsetPX: 500,
			LoggedIn:       `//*[@id="skin-app"]/section/section/div[3]/div/div/div[1]/img`,
		},
		Schedule: ScheduleLayout{
			EntryButton:    `//*[@id="skin-app"]/section/div[5]/div/div/a/button`,
			DateItems:      `//*[@id="skin-app"]/section/div[2]/div[2]/div/ul/li`,
			ResourceHeader: `//*[@id="skin-app"]/section/div[3]/div[2]/table/thead/tr[1]`,
			SlotBody:       `//*[@id="skin-app"]/section/div[3]/div[3]/table/tbody`,
			CellClass:      "schedule-table_column_%d",
			SettleDelayMS:  500,
		},
		Confirm: []ConfirmStep{
			{Action: "click", XPath: `//*[@id="skin-app"]/section/div[4]/div[2]/button`},
			{Action: "resize", Height: 10000, Width: 1920},
			{Action: "click", XPath: `/html/body/div[2]/div/div[3]/button[2]`},
			{Action: "resize", Height: 1280, Width: 1920},
			{Action: "click", XPath: `//*[@id="skin-app"]/div/section/div[2]/div[2]/button`},
			{Action: "wait", XPath: `//*[@id="skin-app"]/section/div/div[2]/div[1]/div[1]/div/div/button`},
		},
		Classes: ClassTokens{
			Selected: []string{"selected"},
			Expired:  []string{"expired", "disabled", "past", "overdue"},
			Taken:    []string{"completed", "in-process", "processing", "locked", "booked"},
		},
	}
}

// LoadLayout returns the defaults overlaid with the TOML file at path. An empty path
// returns the defaults.
func LoadLayout(path string) (Layout, error) {
	l := DefaultLayout()
	if path == "" {
		return l, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read layout: %w", err)
	}
	if err := toml.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("parse layout %s: %w", path, err)
	}
	if err := l.Validate(); err != nil {
		return Layout{}, fmt.Errorf("layout %s: %w", path, err)
	}
	return l, nil
}

func (l Layout) Validate() error {
	for _, s := range l.Confirm {
		switch s.Action {
		case "click", "wait":
			if s.XPath == "" {
				return fmt.Errorf("confirm step %q needs an xpath", s.Action)
			}
		case "resize":
			if s.Height <= 0 || s.Width <= 0 {
				return fmt.Errorf("confirm resize needs height and width")
			}
		default:
			return fmt.Errorf("unknown confirm action %q", s.Action)
		}
	}
	if l.Schedule.SettleDelayMS < 0 {
		return fmt.Errorf("settle_delay_ms must be >= 0")
	}
	return nil
}
