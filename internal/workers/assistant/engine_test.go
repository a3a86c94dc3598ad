// internal/workers/assistant/engine_test.go
package assistant

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashboard-assistant/internal/common/config"
	"dashboard-assistant/internal/common/logger"
	"dashboard-assistant/internal/common/retrieval"
	"dashboard-assistant/internal/models"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Assistant.Brand = config.BrandConfig{
		Name:        "Asterasys",
		Products:    []string{"쿨페이즈", "리프테라", "쿨소닉"},
		MatchFields: []string{"키워드"},
	}
	return cfg
}

var rowsOnly = retrieval.Func(func(ctx context.Context, source models.DataSourceDescriptor, month string) (json.RawMessage, error) {
	if source.IsInsight() {
		return nil, retrieval.ErrNotFound
	}
	return json.RawMessage(`[{"키워드":"쿨페이즈","9월 판매량":12}]`), nil
})

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewEngine_Defaults(t *testing.T) {
	e, err := NewEngine(testConfig(), rowsOnly, logger.NewTestLogger(t), nil)
	require.NoError(t, err)

	assert.Len(t, e.Catalog.All(), 23)
	assert.NotEmpty(t, e.Rules.Rules)

	got := e.Builder.Build(context.Background(), "이번 달 판매량", "2025-09")
	assert.Equal(t, models.BuildStatusComplete, got.Raw.Status)
	require.Len(t, got.Raw.SalesSummaries, 1)
	assert.Equal(t, int64(12), got.Raw.SalesSummaries[0].Total)
	assert.Contains(t, got.FormattedText, "# 📊 Asterasys 마케팅 데이터 (2025-09)")
}

func TestNewEngine_RulesFile(t *testing.T) {
	cfg := testConfig()
	cfg.Assistant.RulesPath = writeFile(t, "rules.yaml", `
baseline: [sale]
rules:
  - name: blog
    keywords: [블로그]
    sources: [blog_rank]
  - name: quarter
    keywords: [분기]
    months: 3
`)

	e, err := NewEngine(cfg, rowsOnly, logger.NewTestLogger(t), nil)
	require.NoError(t, err)

	intent := e.Analyzer.Analyze("분기 블로그 성과")
	assert.Equal(t, []string{"sale", "blog_rank"}, intent.RequiredSources)
	assert.Equal(t, 3, intent.MonthsToLoad)
}

func TestNewEngine_CatalogFile(t *testing.T) {
	cfg := testConfig()
	cfg.Assistant.CatalogPath = writeFile(t, "catalog.json", `{
  "version": "test",
  "baseline": ["sale"],
  "sources": [
    {"id": "sale", "kind": "tabular", "title": "판매 현황"},
    {"id": "traffic", "kind": "tabular", "title": "트래픽 현황"}
  ]
}`)

	// The default rules name sources this catalog lacks.
	_, err := NewEngine(cfg, rowsOnly, logger.NewTestLogger(t), nil)
	assert.Error(t, err)

	cfg.Assistant.RulesPath = writeFile(t, "rules.yaml", "rules:\n  - name: traffic\n    keywords: [트래픽]\n    sources: [traffic]\n")
	e, err := NewEngine(cfg, rowsOnly, logger.NewTestLogger(t), nil)
	require.NoError(t, err)
	assert.Equal(t, "test", e.Catalog.Version())
	assert.Equal(t, []string{"sale", "traffic"}, e.Analyzer.Analyze("트래픽").RequiredSources)
}

func TestNewEngine_MissingFiles(t *testing.T) {
	cfg := testConfig()
	cfg.Assistant.RulesPath = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := NewEngine(cfg, rowsOnly, logger.NewTestLogger(t), nil)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.Assistant.CatalogPath = filepath.Join(t.TempDir(), "missing.json")
	_, err = NewEngine(cfg, rowsOnly, logger.NewTestLogger(t), nil)
	assert.Error(t, err)
}

func TestNewEngine_Language(t *testing.T) {
	cfg := testConfig()
	cfg.Assistant.Language = "en"
	e, err := NewEngine(cfg, rowsOnly, logger.NewTestLogger(t), nil)
	require.NoError(t, err)
	assert.NotNil(t, e.Formatter)

	cfg.Assistant.Language = "not a tag!"
	_, err = NewEngine(cfg, rowsOnly, logger.NewTestLogger(t), nil)
	assert.Error(t, err)
}

func TestBrand(t *testing.T) {
	b := Brand(config.BrandConfig{Name: "X", Products: []string{"a"}, MatchFields: []string{"k"}})
	assert.True(t, b.Matches(models.NewRecord("k", "xa")))
	assert.False(t, b.Matches(models.NewRecord("other", "a")))
}
