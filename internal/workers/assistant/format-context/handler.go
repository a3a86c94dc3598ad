// internal/workers/assistant/format-context/handler.go
package formatcontext

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"dashboard-assistant/internal/common/camunda"
	apperrors "dashboard-assistant/internal/common/errors"
	"dashboard-assistant/internal/common/logger"
	"dashboard-assistant/internal/common/metrics"
	"dashboard-assistant/internal/common/monthkey"
)

const TaskType = "format-context"

type Handler struct {
	config    *Config
	formatter *Formatter
	logger    logger.Logger
	errors    *apperrors.ErrorHandler
}

func NewHandler(config *Config, formatter *Formatter, log logger.Logger) *Handler {
	log = log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		formatter: formatter,
		logger:    log,
		errors:    apperrors.NewErrorHandler(log),
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
	if len(input.Months) == 0 {
		return nil, apperrors.NewInvalidInputError("months must not be empty")
	}
	for _, m := range input.Months {
		if _, err := monthkey.Parse(m); err != nil {
			return nil, apperrors.NewInvalidMonthError(m, err)
		}
	}

	doc := h.formatter.Document(*input)
	text := doc.Render()
	metrics.ContextDocumentBytes.Observe(float64(len(text)))

	return &Output{FormattedText: text, Sections: doc.Sections, Sources: doc.Sources}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
