// internal/workers/assistant/engine.go

// Package assistant assembles the context engine components from configuration.
package assistant

import (
	"fmt"

	"golang.org/x/text/language"

	"dashboard-assistant/internal/common/config"
	"dashboard-assistant/internal/common/logger"
	"dashboard-assistant/internal/common/observability"
	"dashboard-assistant/internal/common/retrieval"
	"dashboard-assistant/internal/models"
	aggregatesales "dashboard-assistant/internal/workers/assistant/aggregate-sales"
	analyzequery "dashboard-assistant/internal/workers/assistant/analyze-query"
	buildcontext "dashboard-assistant/internal/workers/assistant/build-context"
	fetchsources "dashboard-assistant/internal/workers/assistant/fetch-sources"
	formatcontext "dashboard-assistant/internal/workers/assistant/format-context"
	"dashboard-assistant/pkg/registry"
)

// Engine holds one instance of every component, shared by the workers, the
// HTTP endpoint and the preview CLI.
type Engine struct {
	Catalog    *registry.Catalog
	Rules      analyzequery.RuleTable
	Analyzer   *analyzequery.Analyzer
	Fetcher    *fetchsources.Fetcher
	Aggregator *aggregatesales.Aggregator
	Formatter  *formatcontext.Formatter
	Builder    *buildcontext.Builder
}

func NewEngine(cfg *config.Config, retriever retrieval.Retriever, log logger.Logger, obs *observability.Observability) (*Engine, error) {
	catalog := registry.DefaultCatalog()
	if path := cfg.Assistant.CatalogPath; path != "" {
		loaded, err := registry.LoadCatalog(path)
		if err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
		catalog = loaded
	}

	rules := analyzequery.DefaultRuleTable()
	if path := cfg.Assistant.RulesPath; path != "" {
		loaded, err := analyzequery.LoadRuleTable(path, catalog)
		if err != nil {
			return nil, fmt.Errorf("load rules: %w", err)
		}
		rules = loaded
	}

	analyzer, err := analyzequery.NewAnalyzer(rules, catalog)
	if err != nil {
		return nil, err
	}

	lang := language.Korean
	if tag := cfg.Assistant.Language; tag != "" {
		parsed, err := language.Parse(tag)
		if err != nil {
			return nil, fmt.Errorf("assistant language: %w", err)
		}
		lang = parsed
	}

	brand := Brand(cfg.Assistant.Brand)
	fetcher := fetchsources.NewFetcher(catalog, retriever, log,
		fetchsources.WithMaxConcurrency(cfg.Assistant.MaxConcurrency),
		fetchsources.WithObservability(obs),
	)
	aggregator := aggregatesales.NewAggregator(brand, aggregatesales.SalesFieldName, log)
	formatter := formatcontext.NewFormatter(catalog, formatcontext.Options{
		Brand:          brand,
		MaxRows:        cfg.Assistant.MaxRows,
		MaxCellRunes:   cfg.Assistant.MaxCellRunes,
		InsightExcerpt: cfg.Assistant.InsightExcerpt,
		Language:       lang,
	})

	return &Engine{
		Catalog:    catalog,
		Rules:      rules,
		Analyzer:   analyzer,
		Fetcher:    fetcher,
		Aggregator: aggregator,
		Formatter:  formatter,
		Builder: buildcontext.NewBuilder(catalog, analyzer, fetcher, aggregator, formatter, log,
			buildcontext.WithObservability(obs)),
	}, nil
}

func Brand(cfg config.BrandConfig) models.Brand {
	return models.Brand{
		Name:        cfg.Name,
		Products:    append([]string(nil), cfg.Products...),
		MatchFields: append([]string(nil), cfg.MatchFields...),
	}
}
