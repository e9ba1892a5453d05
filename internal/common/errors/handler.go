package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// Logger is the subset of the logging surface the handler needs.
type Logger interface {
	Error(msg string, fields map[string]interface{})
}

// ErrorHandler reports a failed job to the engine.
type ErrorHandler struct {
	logger Logger
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleJobError fails the job with retries left when err is retryable and
// the job still has retries; otherwise it throws a BPMN error carrying the
// envelope variables. The returned error is only about reaching the engine.
func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) error {
	stdErr := Normalize(err)
	bpmnErr := ConvertToBPMNError(stdErr)
	h.logError(job, stdErr, bpmnErr)

	if bpmnErr.Retries > 0 && job.GetRetries() > 1 {
		return h.failJob(ctx, client, job, bpmnErr)
	}
	return h.throwError(ctx, client, job, bpmnErr)
}

// Normalize keeps a StandardError and wraps anything else as unknown.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:       ErrCodeUnknown,
		Message:    "Unexpected error",
		Details:    err.Error(),
		HTTPStatus: DefaultHTTPStatus(ErrCodeUnknown),
		Timestamp:  time.Now().UTC(),
	}
}

func (h *ErrorHandler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError) error {
	retries := min(int(job.GetRetries())-1, bpmnErr.Retries)

	cmd, err := client.NewFailJobCommand().
		JobKey(job.GetKey()).
		Retries(int32(retries)).
		ErrorMessage(bpmnErr.Message).
		VariablesFromMap(bpmnErr.ToErrorVariables())
	if err != nil {
		return fmt.Errorf("build fail command for job %d: %w", job.GetKey(), err)
	}
	if _, err := cmd.Send(ctx); err != nil {
		return fmt.Errorf("send fail command for job %d: %w", job.GetKey(), err)
	}
	return nil
}

func (h *ErrorHandler) throwError(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError) error {
	cmd, err := client.NewThrowErrorCommand().
		JobKey(job.GetKey()).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(bpmnErr.Message).
		VariablesFromMap(bpmnErr.ToErrorVariables())
	if err != nil {
		return fmt.Errorf("build throw command for job %d: %w", job.GetKey(), err)
	}
	if _, err := cmd.Send(ctx); err != nil {
		return fmt.Errorf("send throw command for job %d: %w", job.GetKey(), err)
	}
	return nil
}

func (h *ErrorHandler) logError(job entities.Job, stdErr *StandardError, bpmnErr *BPMNError) {
	h.logger.Error("Job failed", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"jobType":            job.GetType(),
		"processInstanceKey": job.GetProcessInstanceKey(),
		"errorCode":          string(stdErr.Code),
		"errorCategory":      GetErrorCategory(stdErr.Code),
		"httpStatus":         stdErr.HTTPStatus,
		"message":            bpmnErr.Message,
		"details":            stdErr.Details,
		"retries":            bpmnErr.Retries,
	})
}
