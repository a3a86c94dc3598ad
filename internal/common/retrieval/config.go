package retrieval

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"

	"dashboard-assistant/internal/common/config"
	commonhttp "dashboard-assistant/internal/common/http"
)

// Backends are the connections a Router may be built over. Only the ones
// named by the retrieval settings need to be set.
type Backends struct {
	HTTP          *commonhttp.Client
	DB            *sql.DB
	Elasticsearch *elasticsearch.Client
	Redis         *redis.Client
}

// NewFromConfig builds the Router described by cfg. Each backend is created
// once and shared by every route that names it.
func NewFromConfig(cfg config.RetrievalConfig, b Backends) (*Router, error) {
	built := make(map[string]Retriever)
	get := func(name string) (Retriever, error) {
		if r, ok := built[name]; ok {
			return r, nil
		}
		r, err := newBackend(name, cfg, b)
		if err != nil {
			return nil, err
		}
		built[name] = r
		return r, nil
	}

	fallback, err := get(cfg.Backend)
	if err != nil {
		return nil, err
	}
	router := NewRouter(fallback)

	if cfg.InsightBackend != "" {
		insight, err := get(cfg.InsightBackend)
		if err != nil {
			return nil, err
		}
		router.RouteInsights(insight)
	}

	ids := make([]string, 0, len(cfg.Routes))
	for id := range cfg.Routes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		backend, err := get(cfg.Routes[id])
		if err != nil {
			return nil, fmt.Errorf("route %s: %w", id, err)
		}
		router.Route(id, backend)
	}
	return router, nil
}

func newBackend(name string, cfg config.RetrievalConfig, b Backends) (Retriever, error) {
	switch name {
	case config.BackendHTTP:
		client := b.HTTP
		if client == nil {
			client = commonhttp.NewRateLimitedClient(
				time.Duration(cfg.HTTP.Timeout)*time.Millisecond, cfg.HTTP.RateLimit, cfg.HTTP.Burst)
		}
		return NewHTTPRetriever(client, HTTPOptions{
			BaseURL:      cfg.HTTP.BaseURL,
			PathTemplate: cfg.HTTP.PathTemplate,
			APIKey:       cfg.HTTP.APIKey,
			MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
		}), nil
	case config.BackendPostgres:
		if b.DB == nil {
			return nil, fmt.Errorf("retrieval backend %q: no database connection", name)
		}
		return NewPostgresRetriever(b.DB, cfg.Postgres.Table)
	case config.BackendElasticsearch:
		if b.Elasticsearch == nil {
			return nil, fmt.Errorf("retrieval backend %q: no elasticsearch client", name)
		}
		return NewElasticsearchRetriever(b.Elasticsearch, cfg.Elasticsearch.Index), nil
	case config.BackendRedis:
		if b.Redis == nil {
			return nil, fmt.Errorf("retrieval backend %q: no redis client", name)
		}
		return NewRedisRetriever(b.Redis, cfg.Redis.KeyPrefix), nil
	default:
		return nil, fmt.Errorf("unknown retrieval backend %q", name)
	}
}
