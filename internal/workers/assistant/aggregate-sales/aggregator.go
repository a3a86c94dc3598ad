// internal/workers/assistant/aggregate-sales/aggregator.go
package aggregatesales

import (
	"fmt"
	"math"

	apperrors "dashboard-assistant/internal/common/errors"
	"dashboard-assistant/internal/common/logger"
	"dashboard-assistant/internal/common/metrics"
	"dashboard-assistant/internal/common/monthkey"
	"dashboard-assistant/internal/models"
)

// SalesSourceID is the catalog id of the sales table.
const SalesSourceID = "sale"

// FieldNamer maps a calendar month number (1-12) to the sales column for that month.
type FieldNamer func(month int) string

// SalesFieldName is the dashboard export convention: 9 -> "9월 판매량".
func SalesFieldName(month int) string {
	return fmt.Sprintf("%d월 판매량", month)
}

var nameFields = []string{"키워드", "제품명"}

type Aggregator struct {
	brand     models.Brand
	fieldName FieldNamer
	logger    logger.Logger
}

func NewAggregator(brand models.Brand, fieldName FieldNamer, log logger.Logger) *Aggregator {
	if fieldName == nil {
		fieldName = SalesFieldName
	}
	return &Aggregator{brand: brand, fieldName: fieldName, logger: log}
}

// Aggregate builds one summary per month that has a usable sales payload, in
// result order. Months without one are skipped. Calling it twice on the same
// input yields the same output.
func (a *Aggregator) Aggregate(results []models.FetchResult) []models.SalesSummary {
	summaries := []models.SalesSummary{}
	for _, r := range results {
		if r.SourceID != SalesSourceID {
			continue
		}
		summary, reason := a.summarize(r)
		if summary == nil {
			a.skip(r.Month, reason)
			continue
		}
		summaries = append(summaries, *summary)
	}
	return summaries
}

func (a *Aggregator) summarize(r models.FetchResult) (*models.SalesSummary, string) {
	tp := r.Tabular()
	if tp == nil {
		return nil, "sales payload unavailable"
	}
	key, err := monthkey.Parse(r.Month)
	if err != nil {
		return nil, err.Error()
	}
	rows := a.brand.Filter(tp.Rows)
	if len(rows) == 0 {
		return nil, "no brand rows"
	}

	field := a.fieldName(key.Number())
	summary := &models.SalesSummary{Month: r.Month, Products: []models.ProductSales{}}
	for _, row := range rows {
		sales := salesValue(row, field)
		summary.Total += sales

		name := productName(row)
		if name == "" {
			continue
		}
		summary.Products = append(summary.Products, models.ProductSales{Name: name, Sales: sales})
	}
	return summary, ""
}

func (a *Aggregator) skip(month, reason string) {
	stdErr := apperrors.NewAggregationSkippedError(month, reason)
	metrics.AggregationSkipped.Inc()
	a.logger.Warn("sales aggregation skipped", map[string]interface{}{
		"errorCode": string(stdErr.Code),
		"month":     month,
		"reason":    reason,
	})
}

// salesValue truncates toward zero; missing or unparsable cells count as 0.
func salesValue(row models.Record, field string) int64 {
	v, ok := row.Number(field)
	if !ok {
		return 0
	}
	return int64(v)
}

func productName(row models.Record) string {
	for _, f := range nameFields {
		if name := row.Text(f); name != "" {
			return name
		}
	}
	return ""
}

// Delta compares the two most recent summaries. It returns nil with fewer than two.
func Delta(summaries []models.SalesSummary) *models.SalesDelta {
	if len(summaries) < 2 {
		return nil
	}
	cur, prev := summaries[0], summaries[1]

	d := &models.SalesDelta{
		CurrentMonth:  cur.Month,
		PreviousMonth: prev.Month,
		Current:       cur.Total,
		Previous:      prev.Total,
		ChangeAbs:     cur.Total - prev.Total,
		ChangePct:     changePct(cur.Total, prev.Total),
	}

	previous := make(map[string]int64, len(prev.Products))
	for _, p := range prev.Products {
		if _, dup := previous[p.Name]; !dup {
			previous[p.Name] = p.Sales
		}
	}
	for _, p := range cur.Products {
		before, ok := previous[p.Name]
		if !ok {
			continue
		}
		d.Products = append(d.Products, models.ProductDelta{
			Name:      p.Name,
			Previous:  before,
			Current:   p.Sales,
			ChangeAbs: p.Sales - before,
			ChangePct: changePct(p.Sales, before),
		})
	}
	return d
}

// changePct is nil when prev is zero.
func changePct(cur, prev int64) *float64 {
	if prev == 0 {
		return nil
	}
	pct := math.Round(float64(cur-prev)/float64(prev)*1000) / 10
	return &pct
}
