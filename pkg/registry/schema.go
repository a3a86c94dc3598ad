// pkg/registry/schema.go
package registry

import "dashboard-assistant/internal/models"

// CatalogFile is the on-disk form of a source catalog.
type CatalogFile struct {
	Version     string                        `json:"version"`
	LastUpdated string                        `json:"lastUpdated"`
	Baseline    []string                      `json:"baseline"`
	Sources     []models.DataSourceDescriptor `json:"sources"`
}

var catalogFileSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"sources", "baseline"},
	"properties": map[string]interface{}{
		"version":  map[string]interface{}{"type": "string"},
		"baseline": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
		"sources": map[string]interface{}{
			"type":     "array",
			"minItems": 1,
			"items": map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"id", "kind", "title"},
				"properties": map[string]interface{}{
					"id":    map[string]interface{}{"type": "string", "minLength": 1},
					"kind":  map[string]interface{}{"enum": []interface{}{"tabular", "insight"}},
					"title": map[string]interface{}{"type": "string"},
					"group": map[string]interface{}{"type": "string"},
					"path":  map[string]interface{}{"type": "string"},
				},
			},
		},
	},
}
