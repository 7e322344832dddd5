package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/court-scheduler/internal/auth"
	"github.com/example/court-scheduler/internal/config"
	"github.com/example/court-scheduler/internal/db"
	"github.com/example/court-scheduler/internal/migrate"
	"github.com/example/court-scheduler/internal/runner"
	"github.com/example/court-scheduler/internal/status"
	"github.com/example/court-scheduler/internal/tasks"
	"github.com/example/court-scheduler/internal/web"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newServerCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the HTTP API and the reservation runner",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			if err := cfg.LoadCookieKeys(); err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			d, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := d.Ping(ctx); err != nil {
				return fmt.Errorf("db ping: %w", err)
			}

			if migrateUp {
				if err := migrate.Up(ctx, d); err != nil {
					return err
				}
			}

			var store status.Store = status.NewMemory()
			if cfg.RedisAddr != "" {
				rs := status.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
				if err := rs.Ping(ctx); err != nil {
					return fmt.Errorf("redis ping: %w", err)
				}
				defer rs.Close()
				store = rs
			}
			history := tasks.NewRepo(d)

			r, drv, err := openEngine(ctx, cfg, &status.Tracker{Store: store}, history)
			if err != nil {
				return err
			}
			defer drv.Close()

			done := make(chan error, 1)
			go func() { done <- r.Run(ctx) }()

			gin.SetMode(gin.ReleaseMode)
			ws := &web.Server{
				Auth:     auth.NewStore(auth.NewUsers(d), cfg.CookieHashKey, cfg.CookieBlockKey),
				Runner:   r,
				Status:   store,
				History:  history,
				Location: cfg.Location,
			}
			err = web.Start(ctx, cfg.ListenAddr, ws.Handler())

			r.Stop()
			if rerr := <-done; rerr != nil && !errors.Is(rerr, context.Canceled) && err == nil {
				err = rerr
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")
	cmd.Flags().Lookup("migrate").NoOptDefVal = "true"
	return cmd
}

var _ web.Runner = (*runner.Runner)(nil)
