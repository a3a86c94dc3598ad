// Package retrieval reads raw source payloads from the configured stores and
// turns them into validated tabular or insight payloads.
package retrieval

import (
	"context"
	"encoding/json"
	"errors"

	"dashboard-assistant/internal/models"
)

var (
	// ErrNotFound means the store has no payload for the (source, month) pair.
	ErrNotFound = errors.New("SOURCE_NOT_FOUND")
	// ErrMalformed means a payload was returned but failed shape validation.
	ErrMalformed = errors.New("PAYLOAD_MALFORMED")
)

// Retriever fetches the raw JSON payload of one source for one month.
type Retriever interface {
	Fetch(ctx context.Context, source models.DataSourceDescriptor, month string) (json.RawMessage, error)
}

// Func adapts a plain function to Retriever.
type Func func(ctx context.Context, source models.DataSourceDescriptor, month string) (json.RawMessage, error)

func (f Func) Fetch(ctx context.Context, source models.DataSourceDescriptor, month string) (json.RawMessage, error) {
	return f(ctx, source, month)
}

type named interface {
	Name() string
}

// BackendName labels a retriever for logs and metrics.
func BackendName(r Retriever) string {
	if n, ok := r.(named); ok {
		return n.Name()
	}
	return "custom"
}

// Router sends each source to its configured backend.
type Router struct {
	fallback Retriever
	insight  Retriever
	routes   map[string]Retriever
}

func NewRouter(fallback Retriever) *Router {
	return &Router{fallback: fallback, routes: make(map[string]Retriever)}
}

// Route pins one source id to a backend.
func (r *Router) Route(sourceID string, backend Retriever) *Router {
	r.routes[sourceID] = backend
	return r
}

// RouteInsights sends every insight source without an explicit route to backend.
func (r *Router) RouteInsights(backend Retriever) *Router {
	r.insight = backend
	return r
}

func (r *Router) Resolve(source models.DataSourceDescriptor) Retriever {
	if backend, ok := r.routes[source.ID]; ok {
		return backend
	}
	if source.IsInsight() && r.insight != nil {
		return r.insight
	}
	return r.fallback
}

func (r *Router) Fetch(ctx context.Context, source models.DataSourceDescriptor, month string) (json.RawMessage, error) {
	return r.Resolve(source).Fetch(ctx, source, month)
}

func (r *Router) Name() string {
	return "router"
}
