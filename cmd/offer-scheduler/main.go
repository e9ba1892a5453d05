// cmd/offer-scheduler/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"parkingspace-workers/internal/app"
	"parkingspace-workers/internal/common/config"
	"parkingspace-workers/internal/common/logger"
	"parkingspace-workers/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging)
	defer func() { _ = zapLog.Sync() }()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"app":         cfg.App.Name + "-scheduler",
		"environment": cfg.App.Environment,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.New(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("dependency setup failed", zap.Error(err))
	}
	defer deps.Close()

	sched, err := scheduler.New(deps.Service, scheduler.Config{
		OfferBatches:  cfg.Scheduler.OfferBatches,
		ExpiredOffers: cfg.Scheduler.ExpiredOffers,
	}, log)
	if err != nil {
		zapLog.Fatal("scheduler setup failed", zap.Error(err))
	}
	sched.Start()

	// The worker manager owns the configured port when both run on one host.
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.HealthPort+1),
		Handler:           app.NewRouter(deps.Checks()),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	zapLog.Info("Offer scheduler started",
		zap.String("offerBatches", cfg.Scheduler.OfferBatches),
		zap.String("expiredOffers", cfg.Scheduler.ExpiredOffers))

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sched.Stop(shutdownCtx)
	_ = server.Shutdown(shutdownCtx)

	zapLog.Info("Offer scheduler stopped")
}
