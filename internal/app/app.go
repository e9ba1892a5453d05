// Package app builds the clients, adapters and parking space service shared
// by the worker manager and the offer scheduler.
package app

import (
	"context"
	"fmt"
	"time"

	"parkingspace-workers/internal/adapters/communication"
	"parkingspace-workers/internal/adapters/leasing"
	published "parkingspace-workers/internal/adapters/parkingspaces"
	"parkingspace-workers/internal/audit"
	"parkingspace-workers/internal/common/aws"
	"parkingspace-workers/internal/common/config"
	"parkingspace-workers/internal/common/database"
	commonhttp "parkingspace-workers/internal/common/http"
	"parkingspace-workers/internal/common/logger"
	"parkingspace-workers/internal/processes/parkingspaces"
)

const (
	connectAttempts = 10
	connectDelay    = 2 * time.Second
)

type App struct {
	Config   *config.Config
	Service  *parkingspaces.Service
	Postgres *database.Postgres
	Redis    *database.Redis
	Search   *database.Search

	logger logger.Logger
}

// New connects to Postgres, Redis and Elasticsearch, retrying with backoff,
// and assembles the parking space service on top of them.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	a := &App{Config: cfg, logger: log}

	err := retryWithBackoff(ctx, func() (err error) {
		a.Postgres, err = database.ConnectPostgres(ctx, cfg.Database.Postgres)
		return err
	}, connectAttempts, connectDelay, log, "PostgreSQL connection")
	if err != nil {
		return nil, err
	}
	log.Info("PostgreSQL connected", nil)

	err = retryWithBackoff(ctx, func() (err error) {
		a.Search, err = database.ConnectElasticsearch(ctx, cfg.Database.Elasticsearch)
		return err
	}, connectAttempts, connectDelay, log, "Elasticsearch connection")
	if err != nil {
		a.Close()
		return nil, err
	}
	log.Info("Elasticsearch connected", nil)

	err = retryWithBackoff(ctx, func() (err error) {
		a.Redis, err = database.ConnectRedis(ctx, cfg.Database.Redis)
		return err
	}, connectAttempts, connectDelay, log, "Redis connection")
	if err != nil {
		a.Close()
		return nil, err
	}
	log.Info("Redis connected", nil)

	recorder := audit.NewRecorder(a.Postgres.DB)
	if err := recorder.EnsureSchema(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("audit schema: %w", err)
	}

	awsClients, err := aws.NewClients(ctx, cfg.Notifications.AWS.Region)
	if err != nil {
		a.Close()
		return nil, err
	}

	leasingHTTP := commonhttp.NewClient(cfg.Services.Leasing.URL, config.GetDuration(cfg.Services.Leasing.Timeout))
	leasingClient := leasing.NewClient(leasingHTTP, log)

	a.Service = parkingspaces.NewService(parkingspaces.Dependencies{
		Leasing:  leasingClient,
		Lookup:   published.NewLookup(a.Search.Client, cfg.Database.Elasticsearch.ParkingSpacesIndex, log),
		Notifier: communication.NewNotifier(awsClients.SES, awsClients.SNS, cfg.Notifications, log),
		Audit:    recorder,
		Guard:    parkingspaces.NewRedisOfferGuard(a.Redis.Client, cfg.Offers.GuardTTL(), log),
		Logger:   log,
	}, ServiceConfig(cfg))

	return a, nil
}

// ServiceConfig maps the offers section onto the process configuration.
func ServiceConfig(cfg *config.Config) parkingspaces.Config {
	return parkingspaces.Config{
		OfferTTL:                 cfg.Offers.TTL(),
		SiblingDenialConcurrency: cfg.Offers.SiblingDenialConcurrency,
		BatchRatePerSecond:       cfg.Offers.BatchRatePerSecond,
		FailureRole:              cfg.Offers.FailureRole,
	}
}

// Checks returns the readiness probes for the shared dependencies.
func (a *App) Checks() map[string]Check {
	return map[string]Check{
		"postgres":      a.Postgres.Ping,
		"redis":         a.Redis.Ping,
		"elasticsearch": a.Search.Ping,
	}
}

func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.logger.Warn("closing redis", map[string]interface{}{"error": err.Error()})
		}
	}
	if a.Postgres != nil {
		if err := a.Postgres.Close(); err != nil {
			a.logger.Warn("closing postgres", map[string]interface{}{"error": err.Error()})
		}
	}
}
