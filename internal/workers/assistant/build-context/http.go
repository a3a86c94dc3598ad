// internal/workers/assistant/build-context/http.go
package buildcontext

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "dashboard-assistant/internal/common/errors"
	"dashboard-assistant/internal/common/logger"
	"dashboard-assistant/internal/common/validation"
)

const (
	ContextPath     = "/api/assistant/context"
	maxRequestBytes = 64 << 10
)

var requestSchema = validation.MustCompile("context-request", map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"query"},
	"properties": map[string]interface{}{
		"query": map[string]interface{}{"type": "string", "minLength": 1},
		"month": map[string]interface{}{"type": "string"},
	},
})

// HTTPHandler serves POST /api/assistant/context over the same Builder the
// worker uses.
type HTTPHandler struct {
	builder      *Builder
	defaultMonth string
	timeout      time.Duration
	logger       logger.Logger
}

func NewHTTPHandler(config *Config, builder *Builder, log logger.Logger) *HTTPHandler {
	return &HTTPHandler{
		builder:      builder,
		defaultMonth: config.DefaultMonth,
		timeout:      config.Timeout,
		logger:       log.With(map[string]interface{}{"route": ContextPath}),
	}
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		h.fail(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		h.fail(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	if err := requestSchema.ValidateJSON(body).Err(); err != nil {
		stdErr := apperrors.NewInvalidInputError(err.Error())
		h.logger.Warn("rejected context request", map[string]interface{}{
			"errorCode": string(stdErr.Code),
			"details":   stdErr.Details,
		})
		h.fail(w, http.StatusBadRequest, stdErr.Details)
		return
	}

	var req ContextRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.fail(w, http.StatusBadRequest, apperrors.NewParseError(err).Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		h.fail(w, http.StatusBadRequest, "query must not be empty")
		return
	}
	if req.Month == "" {
		req.Month = h.defaultMonth
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	result := h.builder.Build(ctx, req.Query, req.Month)
	writeJSON(w, http.StatusOK, ContextResponse{Success: true, Data: newOutput(result)})
}

func (h *HTTPHandler) fail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ContextResponse{Success: false, Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
