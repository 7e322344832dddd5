package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/court-scheduler/internal/config"
	"github.com/example/court-scheduler/internal/domain/reservation"
	"github.com/example/court-scheduler/internal/domain/user"
	"github.com/example/court-scheduler/internal/runner"
	"github.com/spf13/cobra"
)

type runFlags struct {
	username, password string
	courtNum           int
	courtName          string
	date               string
	start, end         string
	timeout            time.Duration
}

func newRunCmd() *cobra.Command {
	var f runFlags

	c := &cobra.Command{
		Use:   "run",
		Short: "Claim one court window in the foreground and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			task, err := f.task(cfg.Location, time.Now())
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			if f.timeout > 0 {
				ctx, cancel = context.WithTimeout(ctx, f.timeout)
				defer cancel()
			}

			var result *reservation.TaskResult
			capture := runner.ObserverFunc(func(ctx context.Context, ev runner.Event) {
				if ev.Kind == runner.TaskFinished {
					result = ev.Result
				}
			})
			r, drv, err := openEngine(ctx, cfg, capture)
			if err != nil {
				return err
			}
			defer drv.Close()

			if _, err := r.Register(ctx, task); err != nil {
				return err
			}
			r.Stop()
			if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			if result == nil {
				return fmt.Errorf("task %s did not finish: %w", task.ID, ctx.Err())
			}
			fmt.Fprint(cmd.OutOrStdout(), result.Summary())
			if !claimedAny(*result) {
				return fmt.Errorf("no slot claimed")
			}
			return nil
		},
	}

	fl := c.Flags()
	fl.StringVarP(&f.username, "username", "u", "", "booking site username")
	fl.StringVarP(&f.password, "password", "p", "", "booking site password")
	fl.IntVarP(&f.courtNum, "court-num", "n", 0, "court column, 1-based")
	fl.StringVarP(&f.courtName, "court-name", "N", "", "court name as rendered")
	fl.StringVarP(&f.date, "date", "d", "", "date YYYY-MM-DD (default today)")
	fl.StringVarP(&f.start, "start-time", "s", "", "window start HH:MM")
	fl.StringVarP(&f.end, "end-time", "e", "", "window end HH:MM")
	fl.DurationVar(&f.timeout, "timeout", 0, "give up after this long (0 waits until every slot settles)")
	for _, name := range []string{"username", "password", "start-time", "end-time"} {
		_ = c.MarkFlagRequired(name)
	}
	c.MarkFlagsMutuallyExclusive("court-num", "court-name")
	c.MarkFlagsOneRequired("court-num", "court-name")
	return c
}

func (f runFlags) task(loc *time.Location, now time.Time) (reservation.Task, error) {
	date := now.In(loc)
	if f.date != "" {
		var err error
		if date, err = time.ParseInLocation(reservation.DateLayout, f.date, loc); err != nil {
			return reservation.Task{}, fmt.Errorf("--date: want YYYY-MM-DD")
		}
	}
	start, err := reservation.ParseClock(f.start)
	if err != nil {
		return reservation.Task{}, fmt.Errorf("--start-time: %w", err)
	}
	end, err := reservation.ParseClock(f.end)
	if err != nil {
		return reservation.Task{}, fmt.Errorf("--end-time: %w", err)
	}
	sel := reservation.ByName(f.courtName)
	if f.courtNum > 0 {
		sel = reservation.ByIndex(f.courtNum)
	}
	req, err := reservation.NewSlotRequest(sel, date, start, end)
	if err != nil {
		return reservation.Task{}, err
	}
	return reservation.NewTask(user.Credentials{Username: f.username, Password: f.password}, []reservation.SlotRequest{req})
}

func claimedAny(res reservation.TaskResult) bool {
	for _, r := range res.Requests {
		for _, s := range r.Slots {
			if s.Outcome.Held() {
				return true
			}
		}
	}
	return false
}
