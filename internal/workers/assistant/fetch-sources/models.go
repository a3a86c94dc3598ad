// internal/workers/assistant/fetch-sources/models.go
package fetchsources

import "dashboard-assistant/internal/models"

type Input struct {
	RequiredSources []string `json:"requiredSources"`
	Months          []string `json:"months"`
}

type Output struct {
	Results []models.FetchResult `json:"results"`
	Loaded  []string             `json:"loaded"`
	Missing []models.MissingCell `json:"missing,omitempty"`
}

// Summarize lists loaded sources in result order and every missing cell.
func Summarize(results []models.FetchResult) (loaded []string, missing []models.MissingCell) {
	seen := make(map[string]bool)
	loaded = []string{}
	for _, r := range results {
		if r.Available() {
			if !seen[r.SourceID] {
				seen[r.SourceID] = true
				loaded = append(loaded, r.SourceID)
			}
			continue
		}
		missing = append(missing, models.MissingCell{
			SourceID: r.SourceID,
			Month:    r.Month,
			Status:   r.Status,
			Error:    r.Error,
		})
	}
	return loaded, missing
}
