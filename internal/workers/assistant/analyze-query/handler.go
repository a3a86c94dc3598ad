// internal/workers/assistant/analyze-query/handler.go
package analyzequery

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"dashboard-assistant/internal/common/camunda"
	apperrors "dashboard-assistant/internal/common/errors"
	"dashboard-assistant/internal/common/logger"
	"dashboard-assistant/internal/common/monthkey"
)

const TaskType = "analyze-query"

type Handler struct {
	config   *Config
	analyzer *Analyzer
	logger   logger.Logger
	errors   *apperrors.ErrorHandler
}

func NewHandler(config *Config, analyzer *Analyzer, log logger.Logger) *Handler {
	log = log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		analyzer: analyzer,
		logger:   log,
		errors:   apperrors.NewErrorHandler(log),
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

	intent := h.analyzer.Analyze(input.Question)
	output := &Output{
		RequiredSources: intent.RequiredSources,
		MonthsToLoad:    intent.MonthsToLoad,
		MatchedRules:    intent.MatchedRules,
	}

	if input.Month != "" {
		start, err := monthkey.Parse(input.Month)
		if err != nil {
			return nil, apperrors.NewInvalidMonthError(input.Month, err)
		}
		output.Months = monthkey.Strings(monthkey.Range(start, intent.MonthsToLoad))
	}

	h.logger.Debug("query analyzed", map[string]interface{}{
		"sources":      len(output.RequiredSources),
		"monthsToLoad": output.MonthsToLoad,
		"matchedRules": output.MatchedRules,
	})
	return output, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
