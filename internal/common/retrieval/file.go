package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"dashboard-assistant/internal/models"
)

// FileRetriever reads exported payloads laid out as <root>/<month>/<source>.json.
// Used by the preview CLI and in tests.
type FileRetriever struct {
	root string
}

func NewFileRetriever(root string) *FileRetriever {
	return &FileRetriever{root: root}
}

func (r *FileRetriever) Name() string {
	return "file"
}

func (r *FileRetriever) Path(source models.DataSourceDescriptor, month string) string {
	name := source.ID
	if source.Path != "" {
		name = source.Path
	}
	return filepath.Join(r.root, month, filepath.Base(name)+".json")
}

func (r *FileRetriever) Fetch(ctx context.Context, source models.DataSourceDescriptor, month string) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(r.Path(source, month))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("file retrieval %s/%s: %w", source.ID, month, err)
	}
	return data, nil
}
