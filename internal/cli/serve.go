package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"bdaycal/internal/store"
	"bdaycal/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the birthday calendar web server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st := store.New(newAniListClient(cfg), store.Config{
		CacheTTL:      time.Duration(cfg.Cache.TTLMinutes) * time.Minute,
		CacheCapacity: cfg.Cache.Capacity,
		TripThreshold: uint32(cfg.Breaker.TripThreshold),
		Cooldown:      time.Duration(cfg.Breaker.CooldownSeconds) * time.Second,
	})

	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: web.NewServer(cfg, st).Handler(),
	}

	// Background schedule: drop expired cache entries and keep the
	// configured users' collections warm.
	sched := cron.New()
	if _, err := sched.AddFunc(cfg.SweepCron, func() {
		now := time.Now().UTC()
		if removed := st.Sweep(now); removed > 0 {
			slog.Info("cache sweep removed expired entries", "count", removed)
		}
		for _, username := range cfg.WarmUsers {
			warmCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
			if _, err := st.GetOrFetch(warmCtx, username, time.Now().UTC()); err != nil {
				slog.Warn("warm refresh failed", "username", username, "err", err)
			}
			cancel()
		}
	}); err != nil {
		slog.Error("invalid sweep schedule", "err", err, "sweep", cfg.SweepCron)
		return err
	}
	sched.Start()
	defer sched.Stop()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting HTTP server", "listen", "http://"+cfg.Listen, "window_days", cfg.WindowDays)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("signal received, shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
