package registry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashboard-assistant/internal/models"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	assert.Len(t, c.All(), 23)
	assert.Equal(t, []string{"sale", "blog_rank", "cafe_rank", "news_rank"}, c.Baseline())

	sale, ok := c.Lookup("sale")
	require.True(t, ok)
	assert.Equal(t, models.SourceKindTabular, sale.Kind)

	insights, ok := c.Lookup("llm_insights")
	require.True(t, ok)
	assert.True(t, insights.IsInsight())

	_, ok = c.Lookup("missing")
	assert.False(t, ok)
	assert.Equal(t, -1, c.Position("missing"))
}

func TestCatalog_Order(t *testing.T) {
	c := DefaultCatalog()

	got := c.Order([]string{"traffic", "sale", "unknown", "blog_rank", "sale", "organic_viral"})
	assert.Equal(t, []string{"sale", "blog_rank", "traffic", "organic_viral"}, got)

	assert.Empty(t, c.Order(nil))
}

func TestNewCatalog_Errors(t *testing.T) {
	src := []models.DataSourceDescriptor{
		{ID: "a", Kind: models.SourceKindTabular},
		{ID: "a", Kind: models.SourceKindTabular},
	}
	_, err := NewCatalog("v", src, nil)
	assert.True(t, errors.Is(err, ErrDuplicateSource))

	_, err = NewCatalog("v", src[:1], []string{"b"})
	assert.True(t, errors.Is(err, ErrUnknownSource))

	_, err = NewCatalog("v", []models.DataSourceDescriptor{{ID: "x", Kind: "video"}}, nil)
	assert.Error(t, err)
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "catalog.json")
	require.NoError(t, os.WriteFile(valid, []byte(`{
		"version": "test",
		"baseline": ["sale"],
		"sources": [
			{"id": "sale", "kind": "tabular", "title": "판매 현황"},
			{"id": "traffic", "kind": "tabular", "title": "트래픽 현황"},
			{"id": "llm_insights", "kind": "insight", "title": "인사이트"}
		]
	}`), 0o600))

	c, err := LoadCatalog(valid)
	require.NoError(t, err)
	assert.Equal(t, "test", c.Version())
	assert.Equal(t, []string{"sale", "traffic", "llm_insights"}, c.IDs())

	invalid := filepath.Join(dir, "invalid.json")
	require.NoError(t, os.WriteFile(invalid, []byte(`{"baseline": [], "sources": [{"id": "x", "kind": "video", "title": "x"}]}`), 0o600))
	_, err = LoadCatalog(invalid)
	assert.Error(t, err)

	_, err = LoadCatalog(filepath.Join(dir, "absent.json"))
	assert.Error(t, err)
}
