// cmd/worker-manager/main.go
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
	"parkingspace-workers/internal/common/camunda"
	"parkingspace-workers/internal/common/config"
	"parkingspace-workers/internal/common/logger"
	"parkingspace-workers/internal/common/observability"
	"parkingspace-workers/internal/processes/parkingspaces"

	ao "parkingspace-workers/internal/workers/parking-spaces/accept-offer"
	afps "parkingspace-workers/internal/workers/parking-spaces/apply-for-parking-space"
	co "parkingspace-workers/internal/workers/parking-spaces/create-offer"
	do "parkingspace-workers/internal/workers/parking-spaces/deny-offer"
	eo "parkingspace-workers/internal/workers/parking-spaces/expire-offer"
	heo "parkingspace-workers/internal/workers/parking-spaces/handle-expired-offers"
	sob "parkingspace-workers/internal/workers/parking-spaces/start-offer-batches"
	wa "parkingspace-workers/internal/workers/parking-spaces/withdraw-application"
)

const shutdownTimeout = 30 * time.Second

// handlerOptions is what every parking space job handler is built from.
type handlerOptions struct {
	service *parkingspaces.Service
	logger  logger.Logger
	obs     *observability.Observability
	timeout time.Duration
}

type registration struct {
	taskType string
	build    func(o handlerOptions) (camunda.JobHandler, error)
}

var registrations = []registration{
	{afps.TaskType, func(o handlerOptions) (camunda.JobHandler, error) {
		return afps.NewHandler(afps.HandlerOptions{Service: o.service, Logger: o.logger, Observability: o.obs, Timeout: o.timeout})
	}},
	{co.TaskType, func(o handlerOptions) (camunda.JobHandler, error) {
		return co.NewHandler(co.HandlerOptions{Service: o.service, Logger: o.logger, Observability: o.obs, Timeout: o.timeout})
	}},
	{ao.TaskType, func(o handlerOptions) (camunda.JobHandler, error) {
		return ao.NewHandler(ao.HandlerOptions{Service: o.service, Logger: o.logger, Observability: o.obs, Timeout: o.timeout})
	}},
	{do.TaskType, func(o handlerOptions) (camunda.JobHandler, error) {
		return do.NewHandler(do.HandlerOptions{Service: o.service, Logger: o.logger, Observability: o.obs, Timeout: o.timeout})
	}},
	{eo.TaskType, func(o handlerOptions) (camunda.JobHandler, error) {
		return eo.NewHandler(eo.HandlerOptions{Service: o.service, Logger: o.logger, Observability: o.obs, Timeout: o.timeout})
	}},
	{wa.TaskType, func(o handlerOptions) (camunda.JobHandler, error) {
		return wa.NewHandler(wa.HandlerOptions{Service: o.service, Logger: o.logger, Observability: o.obs, Timeout: o.timeout})
	}},
	{sob.TaskType, func(o handlerOptions) (camunda.JobHandler, error) {
		return sob.NewHandler(sob.HandlerOptions{Service: o.service, Logger: o.logger, Observability: o.obs, Timeout: o.timeout})
	}},
	{heo.TaskType, func(o handlerOptions) (camunda.JobHandler, error) {
		return heo.NewHandler(heo.HandlerOptions{Service: o.service, Logger: o.logger, Observability: o.obs, Timeout: o.timeout})
	}},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging)
	defer func() { _ = zapLog.Sync() }()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"app":         cfg.App.Name,
		"environment": cfg.App.Environment,
	})

	zapLog.Info("Starting worker manager...", zap.String("version", cfg.App.Version))

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Fatal("observability setup failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.New(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("dependency setup failed", zap.Error(err))
	}
	defer deps.Close()

	zeebe, err := camunda.Connect(ctx, cfg.Camunda, log)
	if err != nil {
		zapLog.Fatal("zeebe client failed", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected")

	workers := make([]*camunda.CamundaWorker, 0, len(registrations))
	for _, reg := range registrations {
		wcfg := config.GetWorkerConfig(cfg, reg.taskType)
		if !wcfg.Enabled {
			log.Info("worker disabled", map[string]interface{}{"taskType": reg.taskType})
			continue
		}

		handler, err := reg.build(handlerOptions{
			service: deps.Service,
			logger:  log,
			obs:     obs,
			timeout: config.GetDuration(wcfg.Timeout),
		})
		if err != nil {
			zapLog.Fatal("failed to create handler", zap.String("taskType", reg.taskType), zap.Error(err))
		}

		workers = append(workers, camunda.NewWorker(zeebe.GetClient(), reg.taskType, camunda.WorkerOptions{
			MaxJobsActive: wcfg.MaxJobsActive,
			Timeout:       config.GetDuration(wcfg.Timeout),
		}, handler, log))
	}
	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	checks := deps.Checks()
	checks["zeebe"] = zeebe.HealthCheck
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.HealthPort),
		Handler:           app.NewRouter(checks),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for _, w := range workers {
		w.Stop(shutdownCtx)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error flushing metrics", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}
