package retrieval

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"dashboard-assistant/internal/common/validation"
	"dashboard-assistant/internal/models"
)

var rowArray = map[string]interface{}{
	"type":  "array",
	"items": map[string]interface{}{"type": "object"},
}

var stringArray = map[string]interface{}{
	"type":  "array",
	"items": map[string]interface{}{"type": "string"},
}

// Accepted tabular shapes: a bare row array, {"rows": [...]}, or the dashboard
// file API response {"headers", "marketData", "asterasysData"}.
var tabularSchema = validation.MustCompile("tabular-payload", map[string]interface{}{
	"anyOf": []interface{}{
		rowArray,
		map[string]interface{}{
			"type":     "object",
			"required": []interface{}{"rows"},
			"properties": map[string]interface{}{
				"rows":    rowArray,
				"columns": stringArray,
			},
		},
		map[string]interface{}{
			"type": "object",
			"anyOf": []interface{}{
				map[string]interface{}{"required": []interface{}{"marketData"}},
				map[string]interface{}{"required": []interface{}{"asterasysData"}},
			},
			"properties": map[string]interface{}{
				"headers":       stringArray,
				"marketData":    rowArray,
				"asterasysData": rowArray,
			},
		},
	},
})

var shareObject = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"organic", "managed"},
}

// Accepted insight shapes: {"sections": [...]}, channel/viral analysis, or an
// organic/managed share comparison.
var insightSchema = validation.MustCompile("insight-payload", map[string]interface{}{
	"type": "object",
	"anyOf": []interface{}{
		map[string]interface{}{
			"required": []interface{}{"sections"},
			"properties": map[string]interface{}{
				"sections": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type":     "object",
						"required": []interface{}{"body"},
						"properties": map[string]interface{}{
							"title": map[string]interface{}{"type": "string"},
							"body":  map[string]interface{}{"type": "string"},
						},
					},
				},
			},
		},
		map[string]interface{}{
			"anyOf": []interface{}{
				map[string]interface{}{"required": []interface{}{"channels"}},
				map[string]interface{}{"required": []interface{}{"viral"}},
			},
			"properties": map[string]interface{}{
				"channels": map[string]interface{}{
					"type":                 "object",
					"additionalProperties": map[string]interface{}{"type": "object"},
				},
				"viral": map[string]interface{}{"type": "object"},
			},
		},
		map[string]interface{}{
			"required": []interface{}{"competitor", "gap"},
			"properties": map[string]interface{}{
				"competitor": shareObject,
			},
		},
	},
})

// Decode validates raw against the schema for kind and converts it into a payload.
func Decode(kind models.SourceKind, raw json.RawMessage) (*models.Payload, error) {
	switch kind {
	case models.SourceKindInsight:
		ip, err := DecodeInsight(raw)
		if err != nil {
			return nil, err
		}
		return &models.Payload{Insight: ip}, nil
	default:
		tp, err := DecodeTabular(raw)
		if err != nil {
			return nil, err
		}
		return &models.Payload{Tabular: tp}, nil
	}
}

func DecodeTabular(raw json.RawMessage) (*models.TabularPayload, error) {
	if err := tabularSchema.ValidateJSON(raw).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var rows []models.Record
	var columns []string

	if trimmed := strings.TrimSpace(string(raw)); strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	} else {
		var doc struct {
			Rows          []models.Record `json:"rows"`
			Columns       []string        `json:"columns"`
			Headers       []string        `json:"headers"`
			MarketData    []models.Record `json:"marketData"`
			AsterasysData []models.Record `json:"asterasysData"`
		}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		switch {
		case doc.Rows != nil:
			rows, columns = doc.Rows, doc.Columns
		case doc.MarketData != nil:
			rows, columns = doc.MarketData, doc.Headers
		default:
			rows, columns = doc.AsterasysData, doc.Headers
		}
	}

	if len(columns) == 0 && len(rows) > 0 {
		columns = rows[0].Keys()
	}
	return &models.TabularPayload{Columns: columns, Rows: rows}, nil
}

func DecodeInsight(raw json.RawMessage) (*models.InsightPayload, error) {
	if err := insightSchema.ValidateJSON(raw).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var doc struct {
		Sections []models.InsightSection `json:"sections"`
		Channels *models.Record          `json:"channels"`
		Viral    *struct {
			Strategy *struct {
				Content string `json:"content"`
			} `json:"strategy"`
		} `json:"viral"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if doc.Sections != nil {
		return &models.InsightPayload{Sections: doc.Sections}, nil
	}
	if doc.Channels != nil || doc.Viral != nil {
		var strategy string
		if doc.Viral != nil && doc.Viral.Strategy != nil {
			strategy = doc.Viral.Strategy.Content
		}
		return channelInsights(doc.Channels, strategy), nil
	}
	return shareInsights(raw)
}

func channelInsights(channels *models.Record, strategy string) *models.InsightPayload {
	out := &models.InsightPayload{}
	if channels != nil {
		for _, name := range channels.Keys() {
			v, _ := channels.Get(name)
			entry, ok := v.(map[string]interface{})
			if !ok {
				continue
			}
			if text, ok := entry["insight"].(string); ok && text != "" {
				out.Sections = append(out.Sections, models.InsightSection{Title: name, Body: text})
			}
		}
	}
	if strategy != "" {
		out.Sections = append(out.Sections, models.InsightSection{Title: "바이럴 전략", Body: strategy})
	}
	return out
}

func shareInsights(raw json.RawMessage) (*models.InsightPayload, error) {
	var doc models.Record
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	title := cases.Title(language.Und)
	var lines []string
	for _, key := range doc.Keys() {
		v, _ := doc.Get(key)
		if key == "gap" {
			continue
		}
		share, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		label := title.String(key)
		if key == "competitor" {
			label = "경쟁사 평균"
		}
		lines = append(lines, fmt.Sprintf("- %s: Organic %v%%, Managed %v%%", label, share["organic"], share["managed"]))
	}
	lines = append(lines, fmt.Sprintf("- 격차: %s%%p", doc.Text("gap")))

	return &models.InsightPayload{Sections: []models.InsightSection{{
		Title: "Organic/Managed",
		Body:  strings.Join(lines, "\n"),
	}}}, nil
}
