package createoffer

import (
	"context"
	"fmt"
	"time"

	"parkingspace-workers/internal/common/camunda"
	"parkingspace-workers/internal/common/logger"
	"parkingspace-workers/internal/common/observability"
	"parkingspace-workers/internal/domain"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "create-offer"

type Service interface {
	CreateOffer(ctx context.Context, listingID int) domain.ProcessResult
}

type HandlerOptions struct {
	Service       Service
	Logger        logger.Logger
	Observability *observability.Observability
	Timeout       time.Duration
}

type Handler struct {
	service Service
	runner  *camunda.ProcessRunner
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	if opts.Service == nil {
		return nil, fmt.Errorf("invalid configuration for %s: service is required", TaskType)
	}

	return &Handler{
		service: opts.Service,
		runner: camunda.NewProcessRunner(camunda.ProcessRunnerOptions{
			TaskType:      TaskType,
			Timeout:       opts.Timeout,
			Schema:        inputSchema,
			Logger:        opts.Logger,
			Observability: opts.Observability,
		}),
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.runner.Run(client, job, h.process)
}

func (h *Handler) process(ctx context.Context, job entities.Job) domain.ProcessResult {
	input, err := parseInput(job)
	if err != nil {
		return camunda.InvalidInput(err.Error())
	}
	return h.Execute(ctx, input)
}

// Execute issues an offer for an expired listing. An offer already being
// issued elsewhere comes back in progress and still completes the job.
func (h *Handler) Execute(ctx context.Context, input *Input) domain.ProcessResult {
	return h.service.CreateOffer(ctx, input.ListingID)
}
