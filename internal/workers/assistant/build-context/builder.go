// internal/workers/assistant/build-context/builder.go
package buildcontext

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	apperrors "dashboard-assistant/internal/common/errors"
	"dashboard-assistant/internal/common/logger"
	"dashboard-assistant/internal/common/metrics"
	"dashboard-assistant/internal/common/monthkey"
	"dashboard-assistant/internal/common/observability"
	"dashboard-assistant/internal/models"
	aggregatesales "dashboard-assistant/internal/workers/assistant/aggregate-sales"
	fetchsources "dashboard-assistant/internal/workers/assistant/fetch-sources"
	formatcontext "dashboard-assistant/internal/workers/assistant/format-context"
	"dashboard-assistant/pkg/registry"
)

type Analyzer interface {
	Analyze(query string) models.QueryIntent
}

type Fetcher interface {
	FetchAll(ctx context.Context, sourceIDs, months []string) []models.FetchResult
}

type Aggregator interface {
	Aggregate(results []models.FetchResult) []models.SalesSummary
}

type Formatter interface {
	Document(in formatcontext.Input) models.ContextDocument
	InvalidMonth(month string) models.ContextDocument
	Unrendered(months, loaded []string) models.ContextDocument
}

// Builder runs one question through analysis, fetching, aggregation and
// formatting. Build never fails; problems surface in Raw.Status.
type Builder struct {
	catalog    *registry.Catalog
	analyzer   Analyzer
	fetcher    Fetcher
	aggregator Aggregator
	formatter  Formatter
	logger     logger.Logger
	obs        *observability.Observability
	now        func() time.Time
	newID      func() string
}

type Option func(*Builder)

func WithObservability(obs *observability.Observability) Option {
	return func(b *Builder) { b.obs = obs }
}

// WithClock overrides the generated-at timestamp source.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(b *Builder) { b.newID = newID }
}

func NewBuilder(
	catalog *registry.Catalog,
	analyzer Analyzer,
	fetcher Fetcher,
	aggregator Aggregator,
	formatter Formatter,
	log logger.Logger,
	opts ...Option,
) *Builder {
	b := &Builder{
		catalog:    catalog,
		analyzer:   analyzer,
		fetcher:    fetcher,
		aggregator: aggregator,
		formatter:  formatter,
		logger:     log,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Builder) Build(ctx context.Context, query, month string) models.BuildResult {
	start := time.Now()
	raw := models.RawContext{
		BuildID:        b.newID(),
		Query:          query,
		Month:          month,
		Months:         []string{},
		Data:           map[string]map[string]*models.TabularPayload{},
		Insights:       map[string]*models.InsightPayload{},
		SalesSummaries: []models.SalesSummary{},
		GeneratedAt:    b.now().UTC(),
	}

	ctx, span := b.obs.StartSpan(ctx, "assistant.build_context",
		attribute.String("build.id", raw.BuildID),
		attribute.String("build.month", month),
	)
	defer span.End()

	log := b.logger.With(map[string]interface{}{"buildId": raw.BuildID})

	key, err := monthkey.Parse(month)
	if err != nil {
		stdErr := apperrors.NewInvalidMonthError(month, err)
		raw.Status = models.BuildStatusInvalidMonth
		raw.Error = stdErr.Error()
		span.SetStatus(codes.Error, string(stdErr.Code))
		log.Warn("context build rejected", map[string]interface{}{
			"errorCode": string(stdErr.Code),
			"month":     month,
		})
		return b.finish(ctx, raw, b.formatter.InvalidMonth(month), []string{}, start)
	}

	raw.Intent = b.analyzer.Analyze(query)
	raw.Months = monthkey.Strings(monthkey.Range(key, raw.Intent.MonthsToLoad))
	span.SetAttributes(
		attribute.Int("build.sources", len(raw.Intent.RequiredSources)),
		attribute.Int("build.months", len(raw.Months)),
	)

	results := b.fetcher.FetchAll(ctx, raw.Intent.RequiredSources, raw.Months)
	loaded, missing := fetchsources.Summarize(results)
	sources := b.catalog.Order(loaded)
	raw.Missing = missing
	collect(&raw, results)

	degraded := false
	if !b.guard(log, "aggregate", func() {
		raw.SalesSummaries = b.aggregator.Aggregate(results)
		raw.Delta = aggregatesales.Delta(raw.SalesSummaries)
	}) {
		raw.SalesSummaries = []models.SalesSummary{}
		raw.Delta = nil
		degraded = true
	}

	var doc models.ContextDocument
	if !b.guard(log, "format", func() {
		doc = b.formatter.Document(formatcontext.Input{
			Months:      raw.Months,
			Sources:     raw.Intent.RequiredSources,
			Results:     results,
			Summaries:   raw.SalesSummaries,
			Delta:       raw.Delta,
			GeneratedAt: raw.GeneratedAt,
		})
	}) {
		doc = b.formatter.Unrendered(raw.Months, sources)
		degraded = true
	}

	raw.Status = buildStatus(len(loaded), len(missing), degraded)
	if raw.Status != models.BuildStatusComplete {
		span.SetStatus(codes.Error, string(raw.Status))
	}
	b.logSummary(log, raw, sources)
	return b.finish(ctx, raw, doc, sources, start)
}

func (b *Builder) finish(ctx context.Context, raw models.RawContext, doc models.ContextDocument, sources []string, start time.Time) models.BuildResult {
	text := doc.Render()

	metrics.ContextBuilds.WithLabelValues(string(raw.Status)).Inc()
	metrics.ContextMonths.Observe(float64(len(raw.Months)))
	metrics.ContextDocumentBytes.Observe(float64(len(text)))
	b.obs.RecordBuild(ctx, string(raw.Status), len(raw.Months), len(raw.Missing))
	b.obs.RecordJobProcessed(ctx, string(raw.Status))
	b.obs.RecordJobDuration(ctx, time.Since(start), string(raw.Status))

	return models.BuildResult{FormattedText: text, Sources: sources, Raw: raw}
}

// guard runs fn and reports whether it returned without panicking.
func (b *Builder) guard(log logger.Logger, stage string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("context build stage panicked", map[string]interface{}{
				"stage": stage,
				"panic": fmt.Sprint(r),
			})
			ok = false
		}
	}()
	fn()
	return true
}

func collect(raw *models.RawContext, results []models.FetchResult) {
	for _, m := range raw.Months {
		raw.Data[m] = map[string]*models.TabularPayload{}
	}
	for _, r := range results {
		if tp := r.Tabular(); tp != nil {
			if raw.Data[r.Month] == nil {
				raw.Data[r.Month] = map[string]*models.TabularPayload{}
			}
			raw.Data[r.Month][r.SourceID] = tp
		}
		if ip := r.Insight(); ip != nil {
			raw.Insights[r.SourceID] = ip
		}
	}
}

func buildStatus(loaded, missing int, degraded bool) models.BuildStatus {
	switch {
	case loaded == 0:
		return models.BuildStatusEmpty
	case missing > 0 || degraded:
		return models.BuildStatusPartial
	default:
		return models.BuildStatusComplete
	}
}

func (b *Builder) logSummary(log logger.Logger, raw models.RawContext, loaded []string) {
	failed := make([]string, 0, len(raw.Missing))
	for _, m := range raw.Missing {
		failed = append(failed, m.SourceID+"@"+m.Month)
	}
	fields := map[string]interface{}{
		"status":    string(raw.Status),
		"months":    raw.Months,
		"requested": raw.Intent.RequiredSources,
		"loaded":    loaded,
		"failed":    failed,
	}

	switch raw.Status {
	case models.BuildStatusEmpty:
		log.Error("context built without data", fields)
	case models.BuildStatusPartial:
		log.Warn("context built with missing sources", fields)
	default:
		log.Info("context built", fields)
	}
}
