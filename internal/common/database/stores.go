// internal/common/database/stores.go
package database

import (
	"context"
	"errors"
	"time"

	"dashboard-assistant/internal/common/config"
	"dashboard-assistant/internal/common/logger"
	"dashboard-assistant/internal/common/retrieval"
)

const pingTimeout = 5 * time.Second

// Stores are the connections the configured retrieval backends need. Fields
// for unused backends stay nil.
type Stores struct {
	Postgres      *Postgres
	Redis         *Redis
	Elasticsearch *Elasticsearch
}

// Open connects every store referenced by cfg.Retrieval and pings it once.
func Open(ctx context.Context, cfg *config.Config, log logger.Logger) (*Stores, error) {
	used := cfg.Retrieval.BackendsInUse()
	s := &Stores{}

	if used[config.BackendPostgres] {
		pg, err := OpenPostgres(cfg.Database.Postgres)
		if err != nil {
			return nil, err
		}
		s.Postgres = pg
	}
	if used[config.BackendRedis] {
		s.Redis = OpenRedis(cfg.Database.Redis)
	}
	if used[config.BackendElasticsearch] {
		es, err := OpenElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.Elasticsearch = es
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.Ping(pingCtx); err != nil {
		_ = s.Close()
		return nil, err
	}

	log.Info("stores connected", map[string]interface{}{
		"postgres":      s.Postgres != nil,
		"redis":         s.Redis != nil,
		"elasticsearch": s.Elasticsearch != nil,
	})
	return s, nil
}

// Ping checks every open store and joins the failures.
func (s *Stores) Ping(ctx context.Context) error {
	var errs []error
	if s.Postgres != nil {
		errs = append(errs, s.Postgres.Ping(ctx))
	}
	if s.Redis != nil {
		errs = append(errs, s.Redis.Ping(ctx))
	}
	if s.Elasticsearch != nil {
		errs = append(errs, s.Elasticsearch.Ping(ctx))
	}
	return errors.Join(errs...)
}

func (s *Stores) Close() error {
	var errs []error
	if s.Postgres != nil {
		errs = append(errs, s.Postgres.Close())
	}
	if s.Redis != nil {
		errs = append(errs, s.Redis.Close())
	}
	return errors.Join(errs...)
}

// Backends exposes the open connections to the retrieval router.
func (s *Stores) Backends() retrieval.Backends {
	var b retrieval.Backends
	if s.Postgres != nil {
		b.DB = s.Postgres.DB
	}
	if s.Redis != nil {
		b.Redis = s.Redis.Client
	}
	if s.Elasticsearch != nil {
		b.Elasticsearch = s.Elasticsearch.Client
	}
	return b
}
