// internal/workers/assistant/format-context/models.go
package formatcontext

import "dashboard-assistant/internal/models"

type Output struct {
	FormattedText string           `json:"formattedText"`
	Sections      []models.Section `json:"sections"`
	Sources       []string         `json:"sources"`
}
