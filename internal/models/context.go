// internal/models/context.go
package models

import (
	"strings"
	"time"
)

// QueryIntent is the analyzer's decision for one question.
type QueryIntent struct {
	RequiredSources []string `json:"requiredSources"`
	MonthsToLoad    int      `json:"monthsToLoad"`
	MatchedRules    []string `json:"matchedRules,omitempty"`
}

type BuildStatus string

const (
	BuildStatusComplete     BuildStatus = "complete"
	BuildStatusPartial      BuildStatus = "partial"
	BuildStatusEmpty        BuildStatus = "empty"
	BuildStatusInvalidMonth BuildStatus = "invalid_month"
)

type SectionKind string

const (
	SectionHeader   SectionKind = "header"
	SectionSales    SectionKind = "sales"
	SectionInsights SectionKind = "insights"
	SectionMonth    SectionKind = "month"
	SectionNotice   SectionKind = "notice"
)

// Section is one rendered block of the context document. Body carries its own
// markdown heading.
type Section struct {
	Kind  SectionKind `json:"kind"`
	Title string      `json:"title"`
	Body  string      `json:"body"`
}

// ContextDocument is the ordered set of sections handed to the answer generator.
// Sources lists the sources that produced data, in catalog order.
type ContextDocument struct {
	Months   []string  `json:"months"`
	Sections []Section `json:"sections"`
	Sources  []string  `json:"sources"`
}

func (d ContextDocument) Render() string {
	var b strings.Builder
	for i, s := range d.Sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(s.Body)
	}
	return b.String()
}

// MissingCell records a requested (source, month) that produced no payload.
type MissingCell struct {
	SourceID string      `json:"sourceId"`
	Month    string      `json:"month"`
	Status   FetchStatus `json:"status"`
	Error    string      `json:"error,omitempty"`
}

// RawContext is the structured form of a build, returned next to the text.
type RawContext struct {
	BuildID        string                                `json:"buildId"`
	Query          string                                `json:"query"`
	Month          string                                `json:"month"`
	Months         []string                              `json:"months"`
	Intent         QueryIntent                           `json:"intent"`
	Data           map[string]map[string]*TabularPayload `json:"data"`
	Insights       map[string]*InsightPayload            `json:"insights"`
	SalesSummaries []SalesSummary                        `json:"salesSummaries"`
	Delta          *SalesDelta                           `json:"delta,omitempty"`
	Missing        []MissingCell                         `json:"missing,omitempty"`
	Status         BuildStatus                           `json:"status"`
	Error          string                                `json:"error,omitempty"`
	GeneratedAt    time.Time                             `json:"generatedAt"`
}

type BuildResult struct {
	FormattedText string     `json:"formattedText"`
	Sources       []string   `json:"sources"`
	Raw           RawContext `json:"raw"`
}
