package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/example/court-scheduler/internal/config"
	"github.com/example/court-scheduler/internal/driver"
	"github.com/example/court-scheduler/internal/negotiator"
	"github.com/example/court-scheduler/internal/notify"
	"github.com/example/court-scheduler/internal/runner"
	"github.com/example/court-scheduler/internal/site"
)

// openEngine starts the browser and assembles the runner around it. The caller
// closes the returned driver.
func openEngine(ctx context.Context, cfg config.Config, observers ...runner.Observer) (*runner.Runner, driver.Driver, error) {
	layout, err := site.LoadLayout(cfg.LayoutFile)
	if err != nil {
		return nil, nil, err
	}

	raw, err := driver.Open(ctx, driver.Options{
		Backend:        cfg.Browser,
		ChromeBin:      cfg.ChromeBin,
		ChromeURL:      cfg.ChromeURL,
		Headless:       cfg.Headless,
		ElementTimeout: cfg.ElementTimeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open browser: %w", err)
	}
	d := driver.Serialize(raw)
	log.Printf("engine: %s browser ready", cfg.Browser)

	classifier := &site.Classifier{Driver: d, Tokens: layout.Classes}
	r := runner.New(runner.Config{
		Session:    site.NewSession(d, layout),
		Resolver:   site.NewResolver(d, layout, cfg.Location),
		Negotiator: negotiator.New(d, classifier),
		Interval:   cfg.RetryInterval,
		Location:   cfg.Location,
		Observers:  append(observers, notifier(cfg)),
	})
	return r, d, nil
}

func notifier(cfg config.Config) runner.Observer {
	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		tg, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
		if err == nil {
			return &notify.Notifier{Sender: tg}
		}
		log.Printf("engine: telegram disabled: %v", err)
	}
	return &notify.Notifier{Sender: notify.Log{}}
}
