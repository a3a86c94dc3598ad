// internal/workers/assistant/analyze-query/models.go
package analyzequery

type Input struct {
	Question string `json:"question"`
	Month    string `json:"month,omitempty"`
}

type Output struct {
	RequiredSources []string `json:"requiredSources"`
	MonthsToLoad    int      `json:"monthsToLoad"`
	Months          []string `json:"months,omitempty"`
	MatchedRules    []string `json:"matchedRules,omitempty"`
}
