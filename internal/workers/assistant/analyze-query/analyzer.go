// internal/workers/assistant/analyze-query/analyzer.go
package analyzequery

import (
	"strings"

	"dashboard-assistant/internal/models"
	"dashboard-assistant/pkg/registry"
)

// Analyzer maps a free-text question to the sources and month count it needs.
// It holds no mutable state and is safe for concurrent use.
type Analyzer struct {
	catalog  *registry.Catalog
	baseline []string
	rules    []Rule
}

func NewAnalyzer(table RuleTable, catalog *registry.Catalog) (*Analyzer, error) {
	if err := table.Validate(catalog); err != nil {
		return nil, err
	}

	baseline := table.Baseline
	if len(baseline) == 0 {
		baseline = catalog.Baseline()
	}

	rules := make([]Rule, len(table.Rules))
	for i, r := range table.Rules {
		r.Keywords = lowerAll(r.Keywords)
		r.AlsoKeywords = lowerAll(r.AlsoKeywords)
		r.Sources = append([]string(nil), r.Sources...)
		rules[i] = r
	}

	return &Analyzer{
		catalog:  catalog,
		baseline: catalog.Order(baseline),
		rules:    rules,
	}, nil
}

// Analyze never fails: an empty or unmatched query yields the baseline for one month.
func (a *Analyzer) Analyze(query string) models.QueryIntent {
	q := strings.ToLower(query)

	sources := append([]string(nil), a.baseline...)
	months := 1
	var matched []string
	all := false

	for _, r := range a.rules {
		if !containsAny(q, r.Keywords) {
			continue
		}
		if len(r.AlsoKeywords) > 0 && !containsAny(q, r.AlsoKeywords) {
			continue
		}
		matched = append(matched, r.Name)
		sources = append(sources, r.Sources...)
		if r.AllSources {
			all = true
		}
		if r.Months > months {
			months = r.Months
		}
	}

	if all {
		sources = a.catalog.IDs()
	}

	return models.QueryIntent{
		RequiredSources: a.catalog.Order(sources),
		MonthsToLoad:    months,
		MatchedRules:    matched,
	}
}

func (a *Analyzer) Baseline() []string {
	return append([]string(nil), a.baseline...)
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
