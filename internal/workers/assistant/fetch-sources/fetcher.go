// internal/workers/assistant/fetch-sources/fetcher.go
package fetchsources

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	apperrors "dashboard-assistant/internal/common/errors"
	"dashboard-assistant/internal/common/logger"
	"dashboard-assistant/internal/common/metrics"
	"dashboard-assistant/internal/common/observability"
	"dashboard-assistant/internal/common/retrieval"
	"dashboard-assistant/internal/models"
	"dashboard-assistant/pkg/registry"
)

// Fetcher loads every requested (month, source) cell concurrently. A failing
// cell never affects its siblings; it comes back with a nil payload.
type Fetcher struct {
	catalog        *registry.Catalog
	retriever      retrieval.Retriever
	logger         logger.Logger
	obs            *observability.Observability
	maxConcurrency int
}

type Option func(*Fetcher)

// WithMaxConcurrency caps in-flight retrievals. Zero means unlimited.
func WithMaxConcurrency(n int) Option {
	return func(f *Fetcher) { f.maxConcurrency = n }
}

func WithObservability(obs *observability.Observability) Option {
	return func(f *Fetcher) { f.obs = obs }
}

func NewFetcher(catalog *registry.Catalog, retriever retrieval.Retriever, log logger.Logger, opts ...Option) *Fetcher {
	f := &Fetcher{
		catalog:   catalog,
		retriever: retriever,
		logger:    log,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

type task struct {
	source models.DataSourceDescriptor
	month  string
}

// plan lists the cells FetchAll will load, in canonical order: months as
// given, then catalog order. Insight sources are planned for months[0] only.
func (f *Fetcher) plan(sourceIDs, months []string) []task {
	sources := f.catalog.Describe(sourceIDs)
	tasks := make([]task, 0, len(sources)*len(months))
	for i, month := range months {
		for _, src := range sources {
			if src.IsInsight() && i != 0 {
				continue
			}
			tasks = append(tasks, task{source: src, month: month})
		}
	}
	return tasks
}

// FetchAll starts every planned retrieval, waits for all of them and returns
// one result per cell in plan order. It never returns an error.
func (f *Fetcher) FetchAll(ctx context.Context, sourceIDs, months []string) []models.FetchResult {
	tasks := f.plan(sourceIDs, months)
	results := make([]models.FetchResult, len(tasks))

	var g errgroup.Group
	if f.maxConcurrency > 0 {
		g.SetLimit(f.maxConcurrency)
	}
	for i, t := range tasks {
		i, t := i, t
		g.Go(func() error {
			results[i] = f.fetchOne(ctx, t.source, t.month)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (f *Fetcher) fetchOne(ctx context.Context, source models.DataSourceDescriptor, month string) (result models.FetchResult) {
	result = models.FetchResult{SourceID: source.ID, Month: month, Kind: source.Kind}
	backend := retrieval.BackendName(f.retriever)

	ctx, span := f.obs.StartSpan(ctx, "fetch-source",
		attribute.String("source", source.ID),
		attribute.String("month", month),
	)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			result.Payload = nil
			result.Status = models.FetchStatusUnavailable
			result.Error = fmt.Sprintf("retriever panic: %v", r)
		}
		metrics.SourceFetchDuration.WithLabelValues(backend).Observe(time.Since(start).Seconds())
		metrics.SourceFetches.WithLabelValues(source.ID, string(result.Status)).Inc()
		if result.Status != models.FetchStatusOK {
			span.SetStatus(codes.Error, result.Error)
			f.logMiss(result)
		}
		span.End()
	}()

	raw, err := f.retriever.Fetch(ctx, source, month)
	if err != nil {
		result.Status = models.FetchStatusUnavailable
		if errors.Is(err, retrieval.ErrMalformed) {
			result.Status = models.FetchStatusMalformed
		}
		result.Error = err.Error()
		return result
	}

	payload, err := retrieval.Decode(source.Kind, raw)
	if err != nil {
		result.Status = models.FetchStatusMalformed
		result.Error = err.Error()
		return result
	}

	result.Payload = payload
	result.Status = models.FetchStatusOK
	return result
}

func (f *Fetcher) logMiss(result models.FetchResult) {
	var stdErr *apperrors.StandardError
	cause := errors.New(result.Error)
	if result.Status == models.FetchStatusMalformed {
		stdErr = apperrors.NewPayloadMalformedError(result.SourceID, result.Month, cause)
	} else {
		stdErr = apperrors.NewSourceUnavailableError(result.SourceID, result.Month, cause)
	}

	f.logger.Warn("source cell unavailable", map[string]interface{}{
		"errorCode": string(stdErr.Code),
		"source":    result.SourceID,
		"month":     result.Month,
		"error":     result.Error,
	})
}
