// internal/workers/assistant/fetch-sources/handler.go
package fetchsources

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"dashboard-assistant/internal/common/camunda"
	apperrors "dashboard-assistant/internal/common/errors"
	"dashboard-assistant/internal/common/logger"
	"dashboard-assistant/internal/common/monthkey"
	"dashboard-assistant/internal/common/validation"
)

const TaskType = "fetch-sources"

var inputSchema = validation.MustCompile("fetch-sources-input", map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"requiredSources", "months"},
	"properties": map[string]interface{}{
		"requiredSources": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"months": map[string]interface{}{
			"type":     "array",
			"minItems": 1,
			"items":    map[string]interface{}{"type": "string", "pattern": `^\d{4}-(0[1-9]|1[0-2])$`},
		},
	},
})

type Handler struct {
	config  *Config
	fetcher *Fetcher
	logger  logger.Logger
	errors  *apperrors.ErrorHandler
}

func NewHandler(config *Config, fetcher *Fetcher, log logger.Logger) *Handler {
	log = log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		fetcher: fetcher,
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

	results := h.fetcher.FetchAll(ctx, input.RequiredSources, input.Months)
	loaded, missing := Summarize(results)

	h.logger.Info("sources fetched", map[string]interface{}{
		"cells":   len(results),
		"loaded":  len(loaded),
		"missing": len(missing),
	})

	return &Output{Results: results, Loaded: loaded, Missing: missing}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
