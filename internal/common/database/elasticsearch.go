// internal/common/database/elasticsearch.go
package database

import (
	"context"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"dashboard-assistant/internal/common/config"
)

// Elasticsearch holds the client behind the payload index.
type Elasticsearch struct {
	Client *elasticsearch.Client
}

func OpenElasticsearch(cfg config.ElasticsearchConfig) (*Elasticsearch, error) {
	addresses := cfg.GetAddresses()
	if len(addresses) == 0 {
		return nil, fmt.Errorf("elasticsearch: no addresses configured")
	}

	esCfg := elasticsearch.Config{Addresses: addresses}
	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return &Elasticsearch{Client: es}, nil
}

func (e *Elasticsearch) Ping(ctx context.Context) error {
	res, err := e.Client.Ping(e.Client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}
	return nil
}
