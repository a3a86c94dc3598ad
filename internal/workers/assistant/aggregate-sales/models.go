// internal/workers/assistant/aggregate-sales/models.go
package aggregatesales

import "dashboard-assistant/internal/models"

type Input struct {
	Results []models.FetchResult `json:"results"`
}

type Output struct {
	Summaries []models.SalesSummary `json:"salesSummaries"`
	Delta     *models.SalesDelta    `json:"delta,omitempty"`
}
