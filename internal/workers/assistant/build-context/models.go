// internal/workers/assistant/build-context/models.go
package buildcontext

import "dashboard-assistant/internal/models"

// Input holds the job variables. Month falls back to Config.DefaultMonth.
type Input struct {
	Question string `json:"question"`
	Month    string `json:"month,omitempty"`
}

type Output struct {
	FormattedText string            `json:"formattedText"`
	Sources       []string          `json:"sources"`
	Raw           models.RawContext `json:"raw"`
}

func newOutput(r models.BuildResult) *Output {
	return &Output{FormattedText: r.FormattedText, Sources: r.Sources, Raw: r.Raw}
}

// ContextRequest is the body of POST /api/assistant/context.
type ContextRequest struct {
	Query string `json:"query"`
	Month string `json:"month,omitempty"`
}

type ContextResponse struct {
	Success bool    `json:"success"`
	Data    *Output `json:"data,omitempty"`
	Error   string  `json:"error,omitempty"`
}
