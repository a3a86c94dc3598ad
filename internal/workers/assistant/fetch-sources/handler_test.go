// internal/workers/assistant/fetch-sources/handler_test.go
package fetchsources

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	apperrors "dashboard-assistant/internal/common/errors"
	"dashboard-assistant/internal/common/logger"
	"dashboard-assistant/internal/common/retrieval"
	"dashboard-assistant/internal/models"
	"dashboard-assistant/pkg/registry"
)

// ==========================
// Test Helper Functions
// ==========================

type call struct {
	source string
	month  string
}

// fakeRetriever serves a fixed tabular payload unless a cell is configured to fail.
type fakeRetriever struct {
	mu       sync.Mutex
	calls    []call
	failures map[call]error
	panics   map[call]bool
	bodies   map[call]string
	delay    func(source string) time.Duration
	inFlight int32
	peak     int32
}

func newFakeRetriever() *fakeRetriever {
	return &fakeRetriever{
		failures: make(map[call]error),
		panics:   make(map[call]bool),
		bodies:   make(map[call]string),
	}
}

func (f *fakeRetriever) Fetch(ctx context.Context, source models.DataSourceDescriptor, month string) (json.RawMessage, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		p := atomic.LoadInt32(&f.peak)
		if n <= p || atomic.CompareAndSwapInt32(&f.peak, p, n) {
			break
		}
	}

	c := call{source.ID, month}
	f.mu.Lock()
	f.calls = append(f.calls, c)
	err := f.failures[c]
	shouldPanic := f.panics[c]
	body, hasBody := f.bodies[c]
	f.mu.Unlock()

	if f.delay != nil {
		select {
		case <-time.After(f.delay(source.ID)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if shouldPanic {
		panic("boom")
	}
	if err != nil {
		return nil, err
	}
	if hasBody {
		return json.RawMessage(body), nil
	}
	if source.IsInsight() {
		return json.RawMessage(`{"sections":[{"title":"요약","body":"` + source.ID + `"}]}`), nil
	}
	return json.RawMessage(`[{"키워드":"쿨페이즈","값":"` + month + `"}]`), nil
}

func newTestFetcher(t *testing.T, r retrieval.Retriever, opts ...Option) *Fetcher {
	return NewFetcher(registry.DefaultCatalog(), r, logger.NewTestLogger(t), opts...)
}

func cells(results []models.FetchResult) []call {
	out := make([]call, len(results))
	for i, r := range results {
		out[i] = call{r.SourceID, r.Month}
	}
	return out
}

// ==========================
// Fetcher Tests
// ==========================

func TestFetchAll_CanonicalOrderAndInsightOnlyForCurrentMonth(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := newFakeRetriever()
	// Later catalog entries finish first.
	r.delay = func(source string) time.Duration {
		if source == "sale" {
			return 20 * time.Millisecond
		}
		return 0
	}
	f := newTestFetcher(t, r)

	results := f.FetchAll(context.Background(),
		[]string{"llm_insights", "blog_rank", "sale"},
		[]string{"2025-09", "2025-08"})

	want := []call{
		{"sale", "2025-09"}, {"blog_rank", "2025-09"}, {"llm_insights", "2025-09"},
		{"sale", "2025-08"}, {"blog_rank", "2025-08"},
	}
	assert.Equal(t, want, cells(results))
	assert.Len(t, r.calls, 5)

	for _, res := range results {
		assert.True(t, res.Available(), "%s/%s", res.SourceID, res.Month)
		assert.Equal(t, models.FetchStatusOK, res.Status)
	}
	assert.Equal(t, models.SourceKindInsight, results[2].Kind)
	require.NotNil(t, results[2].Insight())
	assert.Equal(t, "llm_insights", results[2].Insight().Sections[0].Body)
}

func TestFetchAll_FailureIsolation(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := newFakeRetriever()
	r.failures[call{"blog_rank", "2025-09"}] = retrieval.ErrNotFound
	r.failures[call{"cafe_rank", "2025-09"}] = errors.New("connection refused")
	r.panics[call{"news_rank", "2025-09"}] = true
	r.bodies[call{"sale", "2025-08"}] = `{"unexpected": true}`
	f := newTestFetcher(t, r)

	results := f.FetchAll(context.Background(), registry.DefaultBaseline, []string{"2025-09", "2025-08"})
	require.Len(t, results, 8)

	byCell := make(map[call]models.FetchResult)
	for _, res := range results {
		byCell[call{res.SourceID, res.Month}] = res
	}

	assert.Equal(t, models.FetchStatusUnavailable, byCell[call{"blog_rank", "2025-09"}].Status)
	assert.Equal(t, models.FetchStatusUnavailable, byCell[call{"cafe_rank", "2025-09"}].Status)
	assert.Contains(t, byCell[call{"news_rank", "2025-09"}].Error, "panic")
	assert.Equal(t, models.FetchStatusMalformed, byCell[call{"sale", "2025-08"}].Status)

	for _, c := range []call{{"sale", "2025-09"}, {"blog_rank", "2025-08"}, {"cafe_rank", "2025-08"}, {"news_rank", "2025-08"}} {
		assert.True(t, byCell[c].Available(), "%v should be unaffected", c)
	}
	for _, res := range results {
		if !res.Available() {
			assert.Nil(t, res.Payload)
			assert.NotEmpty(t, res.Error)
		}
	}
}

func TestFetchAll_MalformedFromRetriever(t *testing.T) {
	r := newFakeRetriever()
	r.failures[call{"sale", "2025-09"}] = retrieval.ErrMalformed
	f := newTestFetcher(t, r)

	results := f.FetchAll(context.Background(), []string{"sale"}, []string{"2025-09"})
	require.Len(t, results, 1)
	assert.Equal(t, models.FetchStatusMalformed, results[0].Status)
}

func TestFetchAll_RunsConcurrently(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := newFakeRetriever()
	r.delay = func(string) time.Duration { return 30 * time.Millisecond }
	f := newTestFetcher(t, r)

	start := time.Now()
	results := f.FetchAll(context.Background(), registry.DefaultCatalog().IDs(), []string{"2025-09", "2025-08", "2025-07"})
	elapsed := time.Since(start)

	// 21 tabular x 3 months + 2 insight
	assert.Len(t, results, 65)
	assert.Less(t, elapsed, time.Second)
	assert.Greater(t, atomic.LoadInt32(&r.peak), int32(1))
}

func TestFetchAll_ConcurrencyLimit(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := newFakeRetriever()
	r.delay = func(string) time.Duration { return 5 * time.Millisecond }
	f := newTestFetcher(t, r, WithMaxConcurrency(2))

	results := f.FetchAll(context.Background(), registry.DefaultBaseline, []string{"2025-09", "2025-08"})
	assert.Len(t, results, 8)
	assert.LessOrEqual(t, atomic.LoadInt32(&r.peak), int32(2))
}

func TestFetchAll_ContextCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := newFakeRetriever()
	r.delay = func(string) time.Duration { return time.Hour }
	f := newTestFetcher(t, r)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	results := f.FetchAll(ctx, registry.DefaultBaseline, []string{"2025-09"})
	require.Len(t, results, 4)
	for _, res := range results {
		assert.False(t, res.Available())
		assert.Equal(t, models.FetchStatusUnavailable, res.Status)
	}
}

func TestFetchAll_UnknownSourcesAreDropped(t *testing.T) {
	r := newFakeRetriever()
	f := newTestFetcher(t, r)

	results := f.FetchAll(context.Background(), []string{"tiktok", "sale"}, []string{"2025-09"})
	assert.Equal(t, []call{{"sale", "2025-09"}}, cells(results))
}

func TestSummarize(t *testing.T) {
	results := []models.FetchResult{
		{SourceID: "sale", Month: "2025-09", Payload: &models.Payload{Tabular: &models.TabularPayload{}}, Status: models.FetchStatusOK},
		{SourceID: "blog_rank", Month: "2025-09", Status: models.FetchStatusUnavailable, Error: "SOURCE_NOT_FOUND"},
		{SourceID: "sale", Month: "2025-08", Payload: &models.Payload{Tabular: &models.TabularPayload{}}, Status: models.FetchStatusOK},
		{SourceID: "blog_rank", Month: "2025-08", Payload: &models.Payload{Tabular: &models.TabularPayload{}}, Status: models.FetchStatusOK},
	}

	loaded, missing := Summarize(results)
	assert.Equal(t, []string{"sale", "blog_rank"}, loaded)
	assert.Equal(t, []models.MissingCell{
		{SourceID: "blog_rank", Month: "2025-09", Status: models.FetchStatusUnavailable, Error: "SOURCE_NOT_FOUND"},
	}, missing)
}

// ==========================
// Handler Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	h := NewHandler(LoadConfig(), newTestFetcher(t, newFakeRetriever()), logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{
		RequiredSources: []string{"sale", "organic_viral"},
		Months:          []string{"2025-09", "2025-08"},
	})
	require.NoError(t, err)
	assert.Len(t, out.Results, 3)
	assert.Equal(t, []string{"sale", "organic_viral"}, out.Loaded)
	assert.Empty(t, out.Missing)
}

func TestHandler_Execute_InvalidMonth(t *testing.T) {
	h := NewHandler(LoadConfig(), newTestFetcher(t, newFakeRetriever()), logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{RequiredSources: []string{"sale"}, Months: []string{"2025-9"}})
	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeInvalidMonth, stdErr.Code)

	_, err = h.Execute(context.Background(), &Input{RequiredSources: []string{"sale"}})
	assert.Error(t, err)
}

func TestInputSchema(t *testing.T) {
	assert.True(t, inputSchema.ValidateJSON([]byte(`{"requiredSources":["sale"],"months":["2025-09"]}`)).Valid)
	assert.False(t, inputSchema.ValidateJSON([]byte(`{"requiredSources":["sale"],"months":[]}`)).Valid)
	assert.False(t, inputSchema.ValidateJSON([]byte(`{"requiredSources":["sale"],"months":["2025-13"]}`)).Valid)
	assert.False(t, inputSchema.ValidateJSON([]byte(`{"months":["2025-09"]}`)).Valid)
}
