// pkg/registry/file.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ReadCatalogFile reads and schema-checks a catalog file without building it.
func ReadCatalogFile(path string) (*CatalogFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := fileSchema.ValidateJSON(data).Err(); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}

	var file CatalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// Catalog builds the catalog the file describes.
func (f *CatalogFile) Catalog() (*Catalog, error) {
	return NewCatalog(f.Version, f.Sources, f.Baseline)
}

// Export is the on-disk form of c.
func Export(c *Catalog) *CatalogFile {
	return &CatalogFile{
		Version:  c.Version(),
		Baseline: c.Baseline(),
		Sources:  c.All(),
	}
}

// SaveCatalogFile validates f, stamps LastUpdated and writes it as indented JSON.
func SaveCatalogFile(path string, f *CatalogFile) error {
	if _, err := f.Catalog(); err != nil {
		return err
	}
	f.LastUpdated = time.Now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write catalog file: %w", err)
	}
	return nil
}
