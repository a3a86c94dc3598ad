// internal/workers/assistant/aggregate-sales/handler.go
package aggregatesales

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"dashboard-assistant/internal/common/camunda"
	apperrors "dashboard-assistant/internal/common/errors"
	"dashboard-assistant/internal/common/logger"
)

const TaskType = "aggregate-sales"

type Handler struct {
	config     *Config
	aggregator *Aggregator
	logger     logger.Logger
	errors     *apperrors.ErrorHandler
}

func NewHandler(config *Config, aggregator *Aggregator, log logger.Logger) *Handler {
	log = log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		aggregator: aggregator,
		logger:     log,
		errors:     apperrors.NewErrorHandler(log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := camunda.DecodeVariables(job, &input); err != nil {
		h.errors.HandleJobError(ctx, client, job, apperrors.NewParseError(err))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	camunda.CompleteJob(client, job, output, h.logger)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, apperrors.NewInvalidInputError("input cannot be nil")
	}

	summaries := h.aggregator.Aggregate(input.Results)
	return &Output{
		Summaries: summaries,
		Delta:     Delta(summaries),
	}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
