// Package scheduler triggers the parking space batch entry points on cron
// schedules.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"parkingspace-workers/internal/common/logger"
	"parkingspace-workers/internal/domain"

	"github.com/robfig/cron/v3"
)

// Service is the pair of batch entry points the scheduler drives.
type Service interface {
	StartOfferBatches(ctx context.Context) domain.ProcessResult
	HandleExpiredOffers(ctx context.Context) domain.ProcessResult
}

type Config struct {
	OfferBatches  string
	ExpiredOffers string
	// RunTimeout bounds a single batch run.
	RunTimeout time.Duration
}

type Scheduler struct {
	cron    *cron.Cron
	service Service
	timeout time.Duration
	logger  logger.Logger
}

func New(service Service, cfg Config, log logger.Logger) (*Scheduler, error) {
	log = log.WithFields(map[string]interface{}{"component": "scheduler"})
	cronLog := cronLogger{log}

	s := &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLog),
			cron.SkipIfStillRunning(cronLog),
		), cron.WithLogger(cronLog)),
		service: service,
		timeout: cfg.RunTimeout,
		logger:  log,
	}
	if s.timeout <= 0 {
		s.timeout = 10 * time.Minute
	}

	jobs := []struct {
		name string
		spec string
		run  func(ctx context.Context) domain.ProcessResult
	}{
		{"start-offer-batches", cfg.OfferBatches, service.StartOfferBatches},
		{"handle-expired-offers", cfg.ExpiredOffers, service.HandleExpiredOffers},
	}
	for _, job := range jobs {
		if _, err := s.cron.AddFunc(job.spec, s.job(job.name, job.run)); err != nil {
			return nil, fmt.Errorf("schedule %s %q: %w", job.name, job.spec, err)
		}
		log.Info("job scheduled", map[string]interface{}{"job": job.name, "spec": job.spec})
	}

	return s, nil
}

func (s *Scheduler) job(name string, run func(ctx context.Context) domain.ProcessResult) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		s.RunNow(ctx, name, run)
	}
}

// RunNow runs one batch entry point and logs its summary.
func (s *Scheduler) RunNow(ctx context.Context, name string, run func(ctx context.Context) domain.ProcessResult) domain.ProcessResult {
	started := time.Now()
	res := run(ctx)

	fields := map[string]interface{}{
		"job":           name,
		"processStatus": res.ProcessStatus,
		"httpStatus":    res.HTTPStatus,
		"duration":      time.Since(started).String(),
	}
	if !res.Succeeded() {
		fields["error"] = res.Error
		s.logger.Error("scheduled run failed", fields)
		return res
	}
	s.logger.Info("scheduled run finished", fields)
	return res
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for running ones until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("scheduled runs still active at shutdown", nil)
	}
}

func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// cronLogger adapts the field logger to cron's key/value logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, kvFields(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := kvFields(keysAndValues)
	fields["error"] = err.Error()
	l.log.Error(msg, fields)
}

func kvFields(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2+1)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}
