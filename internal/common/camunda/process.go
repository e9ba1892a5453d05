package camunda

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"parkingspace-workers/internal/common/errors"
	"parkingspace-workers/internal/common/logger"
	"parkingspace-workers/internal/common/metrics"
	"parkingspace-workers/internal/common/observability"
	"parkingspace-workers/internal/common/validation"
	"parkingspace-workers/internal/domain"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"
)

const defaultJobTimeout = 30 * time.Second

// ProcessFunc decodes a job and runs one workflow entry point.
type ProcessFunc func(ctx context.Context, job entities.Job) domain.ProcessResult

type ProcessRunnerOptions struct {
	TaskType      string
	Timeout       time.Duration
	Schema        *validation.Schema
	Logger        logger.Logger
	Observability *observability.Observability
}

// ProcessRunner reports a ProcessResult back to the engine. Successful and
// in-progress envelopes complete the job; failed envelopes are thrown as
// BPMN errors whose code is the process error tag.
type ProcessRunner struct {
	taskType string
	timeout  time.Duration
	schema   *validation.Schema
	logger   logger.Logger
	errors   *errors.ErrorHandler
	obs      *observability.Observability
}

func NewProcessRunner(opts ProcessRunnerOptions) *ProcessRunner {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	obs := opts.Observability
	if obs == nil {
		obs = observability.NewNoop()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultJobTimeout
	}

	log = log.WithFields(map[string]interface{}{"worker": opts.TaskType})
	return &ProcessRunner{
		taskType: opts.TaskType,
		timeout:  timeout,
		schema:   opts.Schema,
		logger:   log,
		errors:   errors.NewErrorHandler(log),
		obs:      obs,
	}
}

func (r *ProcessRunner) Run(client worker.JobClient, job entities.Job, process ProcessFunc) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(r.taskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(r.taskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	ctx, span := r.obs.StartSpan(ctx, r.taskType,
		attribute.Int64("jobKey", job.GetKey()),
		attribute.Int64("processInstanceKey", job.GetProcessInstanceKey()),
	)
	defer span.End()

	r.logger.Info("Processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	if err := r.validate(job); err != nil {
		r.fail(ctx, client, job, err, startTime)
		return
	}

	res := process(ctx, job)
	if res.ProcessStatus == domain.ProcessStatusFailed {
		r.fail(ctx, client, job, ResultError(res), startTime)
		return
	}

	if err := r.complete(ctx, client, job, res); err != nil {
		r.logger.Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		metrics.WorkerJobsFailed.WithLabelValues(r.taskType, "complete-job").Inc()
		r.obs.RecordJob(ctx, r.taskType, "failed", time.Since(startTime))
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(r.taskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(r.taskType).Observe(time.Since(startTime).Seconds())
	r.obs.RecordJob(ctx, r.taskType, string(res.ProcessStatus), time.Since(startTime))
}

func (r *ProcessRunner) validate(job entities.Job) *errors.StandardError {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, "Failed to parse job variables", err)
	}
	if r.schema == nil {
		return nil
	}
	if vr := r.schema.Validate(variables); !vr.Valid {
		return errors.NewInvalidInputError(strings.Join(vr.GetErrorMessages(), "; "))
	}
	return nil
}

func (r *ProcessRunner) complete(ctx context.Context, client worker.JobClient, job entities.Job, res domain.ProcessResult) error {
	variables, err := ResultVariables(res)
	if err != nil {
		return err
	}

	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromMap(variables)
	if err != nil {
		return fmt.Errorf("build complete command: %w", err)
	}
	if _, err := request.Send(ctx); err != nil {
		return fmt.Errorf("send complete command: %w", err)
	}

	r.logger.Info("Job completed", map[string]interface{}{
		"jobKey":        job.GetKey(),
		"processStatus": res.ProcessStatus,
		"httpStatus":    res.HTTPStatus,
	})
	return nil
}

func (r *ProcessRunner) fail(ctx context.Context, client worker.JobClient, job entities.Job, err *errors.StandardError, startTime time.Time) {
	metrics.WorkerJobsFailed.WithLabelValues(r.taskType, string(err.Code)).Inc()
	metrics.WorkerJobDuration.WithLabelValues(r.taskType).Observe(time.Since(startTime).Seconds())
	r.obs.RecordJob(ctx, r.taskType, "failed", time.Since(startTime))
	if sendErr := r.errors.HandleJobError(ctx, client, job, err); sendErr != nil {
		r.logger.Error("Failed to report job error", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  sendErr.Error(),
		})
	}
}

// ResultError converts a failed envelope into the error thrown to the engine.
// Tags outside the taxonomy are thrown as unknown; the original tag stays in
// the error variables.
func ResultError(res domain.ProcessResult) *errors.StandardError {
	code := errors.ErrorCode(res.Error)
	if !errors.IsKnown(code) {
		code = errors.ErrCodeUnknown
	}

	message := string(code)
	if res.Response != nil && res.Response.Message != "" {
		message = res.Response.Message
	}

	e := errors.New(code, message)
	if res.HTTPStatus != 0 {
		e.HTTPStatus = res.HTTPStatus
	}
	e.Metadata = map[string]interface{}{
		"processStatus": string(res.ProcessStatus),
		"error":         res.Error,
	}
	if res.Response != nil {
		e.Metadata["response"] = map[string]interface{}{"message": res.Response.Message}
	}
	return e
}

// ResultVariables flattens an envelope into job variables. The keys follow
// the envelope's JSON names.
func ResultVariables(res domain.ProcessResult) (map[string]interface{}, error) {
	raw, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("encode process result: %w", err)
	}
	var variables map[string]interface{}
	if err := json.Unmarshal(raw, &variables); err != nil {
		return nil, fmt.Errorf("decode process result: %w", err)
	}
	return variables, nil
}

// InvalidInput is the envelope for job variables that decode but cannot be
// used.
func InvalidInput(details string) domain.ProcessResult {
	return domain.ProcessResult{
		ProcessStatus: domain.ProcessStatusFailed,
		HTTPStatus:    errors.DefaultHTTPStatus(errors.ErrCodeInvalidInput),
		Error:         string(errors.ErrCodeInvalidInput),
		Response:      &domain.Response{Message: details},
	}
}
