// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"dashboard-assistant/internal/common/config"
	"dashboard-assistant/internal/common/database"
	"dashboard-assistant/internal/common/logger"
	"dashboard-assistant/internal/common/monthkey"
	"dashboard-assistant/internal/common/retrieval"
	"dashboard-assistant/internal/models"
	"dashboard-assistant/internal/workers/assistant"
	aggregatesales "dashboard-assistant/internal/workers/assistant/aggregate-sales"
	buildcontext "dashboard-assistant/internal/workers/assistant/build-context"
	"dashboard-assistant/pkg/registry"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

// ==========================
// Fake dashboard file API
// ==========================

var monthlySales = map[string][2]int{
	"2025-09": {100, 59},
	"2025-08": {90, 50},
}

type dashboard struct {
	server   *httptest.Server
	requests atomic.Int64
	missing  map[string]bool // "source@month"
}

func newDashboard(t *testing.T) *dashboard {
	t.Helper()
	d := &dashboard{missing: map[string]bool{}}
	d.server = httptest.NewServer(http.HandlerFunc(d.serve))
	t.Cleanup(d.server.Close)
	return d
}

func (d *dashboard) serve(w http.ResponseWriter, r *http.Request) {
	d.requests.Add(1)
	source := strings.TrimPrefix(r.URL.Path, "/api/data/files/")
	month := r.URL.Query().Get("month")

	if d.missing[source+"@"+month] {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":false,"error":"file not found"}`))
		return
	}
	body, ok := payload(source, month)
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func payload(source, month string) ([]byte, bool) {
	key, err := monthkey.Parse(month)
	if err != nil {
		return nil, false
	}
	switch source {
	case "sale":
		counts, ok := monthlySales[month]
		if !ok {
			counts = [2]int{10, 10}
		}
		field := aggregatesales.SalesFieldName(key.Number())
		rows := []map[string]interface{}{
			{"키워드": "쿨페이즈", field: fmt.Sprint(counts[0])},
			{"키워드": "리프테라", field: fmt.Sprint(counts[1])},
		}
		b, _ := json.Marshal(rows)
		return b, true
	case "llm_insights", "organic_viral":
		return []byte(`{"sections":[{"title":"요약","body":"` + month + ` 블로그 참여도가 높습니다."}]}`), true
	default:
		if !servesFile(source) {
			return nil, false
		}
		return []byte(`{"rows":[{"키워드":"쿨페이즈","순위":"1"},{"키워드":"리프테라","순위":"3"}],"columns":["키워드","순위"]}`), true
	}
}

// servesFile reports whether name is a catalog file name, which is the
// descriptor path when one is set.
func servesFile(name string) bool {
	for _, src := range registry.DefaultCatalog().All() {
		file := src.ID
		if src.Path != "" {
			file = src.Path
		}
		if file == name {
			return true
		}
	}
	return false
}

// ==========================
// Helpers
// ==========================

func newConfig(baseURL string) *config.Config {
	cfg := config.Default()
	cfg.Retrieval.HTTP.BaseURL = baseURL
	return cfg
}

func newEngine(t *testing.T, cfg *config.Config) *assistant.Engine {
	t.Helper()
	stores, err := database.Open(context.Background(), cfg, logger.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = stores.Close() })

	retriever, err := retrieval.NewFromConfig(cfg.Retrieval, stores.Backends())
	require.NoError(t, err)

	engine, err := assistant.NewEngine(cfg, retriever, logger.NewTestLogger(t), nil)
	require.NoError(t, err)
	return engine
}

func newAPI(t *testing.T, cfg *config.Config, engine *assistant.Engine) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.Handle(buildcontext.ContextPath, buildcontext.NewHTTPHandler(&buildcontext.Config{
		Timeout:      10 * time.Second,
		DefaultMonth: cfg.Assistant.DefaultMonth,
	}, engine.Builder, logger.NewTestLogger(t)))
	api := httptest.NewServer(mux)
	t.Cleanup(api.Close)
	return api
}

func postContext(t *testing.T, api *httptest.Server, body string) (int, buildcontext.ContextResponse) {
	t.Helper()
	resp, err := api.Client().Post(api.URL+buildcontext.ContextPath, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out buildcontext.ContextResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

// ==========================
// Scenarios over the HTTP endpoint
// ==========================

func TestE2E_CurrentMonthSales(t *testing.T) {
	d := newDashboard(t)
	cfg := newConfig(d.server.URL)
	api := newAPI(t, cfg, newEngine(t, cfg))

	code, resp := postContext(t, api, `{"query":"이번 달 판매량","month":"2025-09"}`)
	require.Equal(t, http.StatusOK, code)
	require.True(t, resp.Success)
	require.NotNil(t, resp.Data)

	raw := resp.Data.Raw
	assert.Equal(t, models.BuildStatusComplete, raw.Status)
	assert.Equal(t, []string{"2025-09"}, raw.Months)
	assert.Equal(t, registry.DefaultBaseline, resp.Data.Sources)
	assert.Empty(t, raw.Missing)
	assert.Nil(t, raw.Delta)

	assert.Contains(t, resp.Data.FormattedText, "판매 현황")
	assert.Contains(t, resp.Data.FormattedText, "쿨페이즈")
	assert.Equal(t, int64(len(registry.DefaultBaseline)), d.requests.Load())
}

func TestE2E_MonthOverMonth(t *testing.T) {
	d := newDashboard(t)
	cfg := newConfig(d.server.URL)
	api := newAPI(t, cfg, newEngine(t, cfg))

	code, resp := postContext(t, api, `{"query":"전월 대비 판매 변화","month":"2025-09"}`)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, resp.Data)

	raw := resp.Data.Raw
	assert.Equal(t, []string{"2025-09", "2025-08"}, raw.Months)
	assert.Equal(t, models.BuildStatusComplete, raw.Status)
	require.NotNil(t, raw.Delta)
	assert.Equal(t, int64(19), raw.Delta.ChangeAbs)

	assert.Contains(t, resp.Data.FormattedText, "**총 판매**: 140대 → 159대 (증가 19대, +13.6%)")
	assert.Contains(t, resp.Data.FormattedText, "블로그 참여도가 높습니다")
}

func TestE2E_SixMonthTrend(t *testing.T) {
	d := newDashboard(t)
	cfg := newConfig(d.server.URL)
	api := newAPI(t, cfg, newEngine(t, cfg))

	code, resp := postContext(t, api, `{"query":"최근 6개월 트렌드","month":"2025-09"}`)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, resp.Data)

	raw := resp.Data.Raw
	assert.Equal(t, []string{"2025-09", "2025-08", "2025-07", "2025-06", "2025-05", "2025-04"}, raw.Months)
	assert.Len(t, raw.SalesSummaries, 6)
	assert.Equal(t, models.BuildStatusComplete, raw.Status)
}

func TestE2E_YearBoundary(t *testing.T) {
	d := newDashboard(t)
	cfg := newConfig(d.server.URL)
	api := newAPI(t, cfg, newEngine(t, cfg))

	_, resp := postContext(t, api, `{"query":"최근 3개월 판매 추이","month":"2025-01"}`)
	require.NotNil(t, resp.Data)
	assert.Equal(t, []string{"2025-01", "2024-12", "2024-11"}, resp.Data.Raw.Months)
}

func TestE2E_PartialWhenCellMissing(t *testing.T) {
	d := newDashboard(t)
	d.missing["sale@2025-08"] = true
	cfg := newConfig(d.server.URL)
	api := newAPI(t, cfg, newEngine(t, cfg))

	_, resp := postContext(t, api, `{"query":"전월 대비 판매 변화","month":"2025-09"}`)
	require.NotNil(t, resp.Data)

	raw := resp.Data.Raw
	assert.Equal(t, models.BuildStatusPartial, raw.Status)
	require.Len(t, raw.Missing, 1)
	assert.Equal(t, "sale", raw.Missing[0].SourceID)
	assert.Equal(t, "2025-08", raw.Missing[0].Month)
	assert.Nil(t, raw.Delta)
	assert.Contains(t, resp.Data.Sources, "sale")
}

func TestE2E_InvalidMonth(t *testing.T) {
	d := newDashboard(t)
	cfg := newConfig(d.server.URL)
	api := newAPI(t, cfg, newEngine(t, cfg))

	code, resp := postContext(t, api, `{"query":"이번 달 판매량","month":"2025-13"}`)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, resp.Data)
	assert.Equal(t, models.BuildStatusInvalidMonth, resp.Data.Raw.Status)
	assert.Empty(t, resp.Data.Sources)
	assert.Zero(t, d.requests.Load())
}

func TestE2E_DashboardDown(t *testing.T) {
	d := newDashboard(t)
	cfg := newConfig(d.server.URL)
	engine := newEngine(t, cfg)
	d.server.Close()

	result := engine.Builder.Build(context.Background(), "이번 달 판매량", "2025-09")
	assert.Equal(t, models.BuildStatusEmpty, result.Raw.Status)
	assert.Empty(t, result.Sources)
	assert.NotEmpty(t, result.FormattedText)
}

func TestE2E_RejectsBadRequests(t *testing.T) {
	d := newDashboard(t)
	cfg := newConfig(d.server.URL)
	api := newAPI(t, cfg, newEngine(t, cfg))

	for _, body := range []string{`{}`, `{"query":""}`, `not json`} {
		code, resp := postContext(t, api, body)
		assert.Equal(t, http.StatusBadRequest, code, body)
		assert.False(t, resp.Success, body)
	}
}

// ==========================
// Mixed backends
// ==========================

func TestE2E_InsightsFromRedis(t *testing.T) {
	d := newDashboard(t)
	mr := miniredis.RunT(t)

	cfg := newConfig(d.server.URL)
	cfg.Retrieval.InsightBackend = config.BackendRedis
	cfg.Database.Redis.Address = mr.Addr()

	for _, month := range []string{"2025-09", "2025-08"} {
		require.NoError(t, mr.Set("payload:llm_insights:"+month, `{"sections":[{"title":"캐시","body":"redis `+month+`"}]}`))
		require.NoError(t, mr.Set("payload:organic_viral:"+month, `{"asterasys":{"organic":60,"managed":40},"competitor":{"organic":50,"managed":50},"gap":"10"}`))
	}

	engine := newEngine(t, cfg)
	result := engine.Builder.Build(context.Background(), "전월 대비 판매 변화", "2025-09")

	assert.Equal(t, models.BuildStatusComplete, result.Raw.Status)
	assert.Contains(t, result.FormattedText, "redis 2025-09")
	require.Contains(t, result.Raw.Insights, "llm_insights")
	assert.Equal(t, "캐시", result.Raw.Insights["llm_insights"].Sections[0].Title)
}

func TestE2E_Deterministic(t *testing.T) {
	d := newDashboard(t)
	cfg := newConfig(d.server.URL)
	engine := newEngine(t, cfg)

	first := engine.Builder.Build(context.Background(), "전월 대비 판매 변화", "2025-09")
	second := engine.Builder.Build(context.Background(), "전월 대비 판매 변화", "2025-09")

	assert.Equal(t, first.FormattedText, second.FormattedText)
	assert.Equal(t, first.Sources, second.Sources)
	assert.NotEqual(t, first.Raw.BuildID, second.Raw.BuildID)
}

func BenchmarkBuild_MonthOverMonth(b *testing.B) {
	payloads := retrieval.Func(func(_ context.Context, src models.DataSourceDescriptor, month string) (json.RawMessage, error) {
		body, ok := payload(src.ID, month)
		if !ok {
			return nil, retrieval.ErrNotFound
		}
		return body, nil
	})
	engine, err := assistant.NewEngine(config.Default(), payloads, logger.NewNoOpLogger(), nil)
	require.NoError(b, err)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		engine.Builder.Build(context.Background(), "전월 대비 판매 변화", "2025-09")
	}
}
