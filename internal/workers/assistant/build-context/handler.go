// internal/workers/assistant/build-context/handler.go
package buildcontext

import (
	"context"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"dashboard-assistant/internal/common/camunda"
	apperrors "dashboard-assistant/internal/common/errors"
	"dashboard-assistant/internal/common/logger"
	"dashboard-assistant/internal/common/validation"
)

const TaskType = "build-context"

var inputSchema = validation.MustCompile("build-context-input", map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"question"},
	"properties": map[string]interface{}{
		"question": map[string]interface{}{"type": "string"},
		"month":    map[string]interface{}{"type": "string"},
	},
})

type Handler struct {
	config  *Config
	builder *Builder
	logger  logger.Logger
	errors  *apperrors.ErrorHandler
}

func NewHandler(config *Config, builder *Builder, log logger.Logger) *Handler {
	log = log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		builder: builder,
		logger:  log,
		errors:  apperrors.NewErrorHandler(log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	if err := inputSchema.ValidateJSON([]byte(job.Variables)).Err(); err != nil {
		h.errors.HandleJobError(ctx, client, job, apperrors.NewInvalidInputError(err.Error()))
		return
	}

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

// An unparsable month completes the job with raw.status "invalid_month".
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, apperrors.NewInvalidInputError("input cannot be nil")
	}
	if strings.TrimSpace(input.Question) == "" {
		return nil, apperrors.NewInvalidQueryError("question must not be empty")
	}

	month := input.Month
	if month == "" {
		month = h.config.DefaultMonth
	}
	return newOutput(h.builder.Build(ctx, input.Question, month)), nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
