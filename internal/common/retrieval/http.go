package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	commonhttp "dashboard-assistant/internal/common/http"
	"dashboard-assistant/internal/models"
)

// HTTPRetriever reads payloads from the dashboard file API:
// GET {base}{path}?month=YYYY-MM.
type HTTPRetriever struct {
	client       *commonhttp.Client
	baseURL      string
	pathTemplate string
	apiKey       string
	maxBodyBytes int64
}

type HTTPOptions struct {
	BaseURL      string
	PathTemplate string // "{source}" is replaced by the escaped source path
	APIKey       string
	MaxBodyBytes int64
}

func NewHTTPRetriever(client *commonhttp.Client, opts HTTPOptions) *HTTPRetriever {
	if opts.PathTemplate == "" {
		opts.PathTemplate = "/api/data/files/{source}"
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 8 << 20
	}
	return &HTTPRetriever{
		client:       client,
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		pathTemplate: opts.PathTemplate,
		apiKey:       opts.APIKey,
		maxBodyBytes: opts.MaxBodyBytes,
	}
}

func (r *HTTPRetriever) Name() string {
	return "http"
}

func (r *HTTPRetriever) endpoint(source models.DataSourceDescriptor, month string) string {
	name := source.ID
	if source.Path != "" {
		name = source.Path
	}
	path := strings.ReplaceAll(r.pathTemplate, "{source}", url.PathEscape(name))
	return r.baseURL + path + "?" + url.Values{"month": {month}}.Encode()
}

func (r *HTTPRetriever) Fetch(ctx context.Context, source models.DataSourceDescriptor, month string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint(source, month), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if r.apiKey != "" {
		req.Header.Set("X-API-Key", r.apiKey)
	}

	resp, err := r.client.DoWithContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("http retrieval %s/%s: %w", source.ID, month, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("http retrieval %s/%s: status %d", source.ID, month, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("http retrieval %s/%s: read body: %w", source.ID, month, err)
	}
	if int64(len(body)) > r.maxBodyBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrMalformed, r.maxBodyBytes)
	}

	// The file API wraps failures as {"success": false} with a 200.
	var envelope struct {
		Success *bool `json:"success"`
	}
	if json.Unmarshal(body, &envelope) == nil && envelope.Success != nil && !*envelope.Success {
		return nil, ErrNotFound
	}
	return body, nil
}
