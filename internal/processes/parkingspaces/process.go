// Package parkingspaces implements the parking space allocation workflow:
// application intake, offer issuance, offer replies and the scheduler
// entry points that drive them.
package parkingspaces

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"parkingspace-workers/internal/audit"
	"parkingspace-workers/internal/common/errors"
	"parkingspace-workers/internal/common/logger"
	"parkingspace-workers/internal/common/metrics"
	"parkingspace-workers/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "parkingspace-workers/processes/parkingspaces"

type Config struct {
	OfferTTL                 time.Duration
	SiblingDenialConcurrency int
	BatchRatePerSecond       float64
	// FailureRole receives batch failure summaries.
	FailureRole string
}

type Dependencies struct {
	Leasing  LeasingAdapter
	Lookup   ParkingSpaceLookup
	Notifier Notifier
	Audit    AuditRecorder
	Guard    OfferGuard
	Logger   logger.Logger
}

type Service struct {
	leasing     LeasingAdapter
	lookup      ParkingSpaceLookup
	notifier    Notifier
	audit       AuditRecorder
	guard       OfferGuard
	eligibility *EligibilityValidator
	waitingList *WaitingListRegistrar
	listings    *ListingRegistrar
	config      Config
	logger      logger.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

func NewService(deps Dependencies, config Config) *Service {
	if config.SiblingDenialConcurrency < 1 {
		config.SiblingDenialConcurrency = 1
	}
	if config.FailureRole == "" {
		config.FailureRole = "dev"
	}

	return &Service{
		leasing:     deps.Leasing,
		lookup:      deps.Lookup,
		notifier:    deps.Notifier,
		audit:       deps.Audit,
		guard:       deps.Guard,
		eligibility: NewEligibilityValidator(deps.Leasing),
		waitingList: NewWaitingListRegistrar(deps.Leasing, deps.Logger),
		listings:    NewListingRegistrar(deps.Leasing, deps.Logger),
		config:      config,
		logger:      deps.Logger.WithFields(map[string]interface{}{"component": "parkingspaces"}),
		tracer:      otel.Tracer(tracerName),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// run carries per-invocation bookkeeping from start to finish.
type run struct {
	process       string
	subject       string
	correlationID string
	started       time.Time
	logger        logger.Logger
	span          trace.Span
}

func (s *Service) start(ctx context.Context, process, subject string, fields map[string]interface{}) (context.Context, *run) {
	correlationID := uuid.New().String()

	ctx, span := s.tracer.Start(ctx, process, trace.WithAttributes(
		attribute.String("process", process),
		attribute.String("subject", subject),
		attribute.String("correlationId", correlationID),
	))

	logFields := map[string]interface{}{
		"process":       process,
		"correlationId": correlationID,
	}
	for k, v := range fields {
		logFields[k] = v
	}
	log := s.logger.WithFields(logFields)
	log.Info("process started", nil)

	return ctx, &run{
		process:       process,
		subject:       subject,
		correlationID: correlationID,
		started:       time.Now(),
		logger:        log,
		span:          span,
	}
}

// finish records the outcome in metrics, the audit trail and the span, and
// returns res unchanged.
func (s *Service) finish(ctx context.Context, r *run, res domain.ProcessResult) domain.ProcessResult {
	defer r.span.End()

	metrics.ProcessTotal.WithLabelValues(r.process, string(res.ProcessStatus), res.Error).Inc()
	metrics.ProcessDuration.WithLabelValues(r.process).Observe(time.Since(r.started).Seconds())

	r.span.SetAttributes(
		attribute.String("processStatus", string(res.ProcessStatus)),
		attribute.Int("httpStatus", res.HTTPStatus),
	)

	fields := map[string]interface{}{
		"processStatus": res.ProcessStatus,
		"httpStatus":    res.HTTPStatus,
	}
	if res.Succeeded() {
		r.logger.Info("process finished", fields)
	} else {
		fields["error"] = res.Error
		r.span.SetStatus(codes.Error, res.Error)
		r.logger.Warn("process failed", fields)
	}

	if s.audit != nil {
		entry := audit.Entry{
			CorrelationID: r.correlationID,
			Process:       r.process,
			Subject:       r.subject,
			ProcessStatus: string(res.ProcessStatus),
			HTTPStatus:    res.HTTPStatus,
			ErrorCode:     res.Error,
		}
		if res.Response != nil {
			entry.Details = map[string]interface{}{"message": res.Response.Message}
		}
		if err := s.audit.Record(context.WithoutCancel(ctx), entry); err != nil {
			r.logger.Warn("audit record failed", map[string]interface{}{"error": err})
		}
	}

	return res
}

func successful(status int, data interface{}, message string) domain.ProcessResult {
	res := domain.ProcessResult{
		ProcessStatus: domain.ProcessStatusSuccessful,
		HTTPStatus:    status,
		Data:          data,
	}
	if message != "" {
		res.Response = &domain.Response{Message: message}
	}
	return res
}

func failed(code errors.ErrorCode, format string, args ...interface{}) domain.ProcessResult {
	return failedWithStatus(code, errors.DefaultHTTPStatus(code), format, args...)
}

func failedWithStatus(code errors.ErrorCode, status int, format string, args ...interface{}) domain.ProcessResult {
	return domain.ProcessResult{
		ProcessStatus: domain.ProcessStatusFailed,
		HTTPStatus:    status,
		Error:         string(code),
		Response:      &domain.Response{Message: fmt.Sprintf(format, args...)},
	}
}

func inProgress(code errors.ErrorCode, format string, args ...interface{}) domain.ProcessResult {
	return domain.ProcessResult{
		ProcessStatus: domain.ProcessStatusInProgress,
		HTTPStatus:    http.StatusConflict,
		Error:         string(code),
		Response:      &domain.Response{Message: fmt.Sprintf(format, args...)},
	}
}
