// internal/models/source.go
package models

// SourceKind separates monthly tables from current-month analysis documents.
type SourceKind string

const (
	SourceKindTabular SourceKind = "tabular"
	SourceKindInsight SourceKind = "insight"
)

// DataSourceDescriptor describes one retrievable data source.
type DataSourceDescriptor struct {
	ID    string     `json:"id"`
	Kind  SourceKind `json:"kind"`
	Title string     `json:"title"`
	Group string     `json:"group,omitempty"`
	// Path overrides the retrieval path template for HTTP backends.
	Path string `json:"path,omitempty"`
}

func (d DataSourceDescriptor) IsInsight() bool {
	return d.Kind == SourceKindInsight
}
