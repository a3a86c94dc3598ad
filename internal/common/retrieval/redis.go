package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"dashboard-assistant/internal/models"
)

// RedisRetriever reads payloads stored as JSON strings under
// "<prefix>:<source>:<month>".
type RedisRetriever struct {
	client *redis.Client
	prefix string
}

func NewRedisRetriever(client *redis.Client, prefix string) *RedisRetriever {
	return &RedisRetriever{client: client, prefix: prefix}
}

func (r *RedisRetriever) Name() string {
	return "redis"
}

func (r *RedisRetriever) Key(sourceID, month string) string {
	return r.prefix + ":" + sourceID + ":" + month
}

func (r *RedisRetriever) Fetch(ctx context.Context, source models.DataSourceDescriptor, month string) (json.RawMessage, error) {
	val, err := r.client.Get(ctx, r.Key(source.ID, month)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis retrieval %s/%s: %w", source.ID, month, err)
	}
	return val, nil
}
