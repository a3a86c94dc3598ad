package camunda

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "dashboard-assistant/internal/common/errors"
)

func testClient() *Client {
	return &Client{config: &ClientConfig{
		ConnectionTimeout: time.Second,
		RetryConfig:       &RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond},
	}}
}

func TestExecuteWithRetry_RecoversFromTransientError(t *testing.T) {
	c := testClient()
	calls := 0

	err := c.ExecuteWithRetry(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("rpc error: code = Unavailable desc = connection refused")
		}
		return nil
	}, "topology")

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestExecuteWithRetry_StopsOnPermanentError(t *testing.T) {
	c := testClient()
	calls := 0

	err := c.ExecuteWithRetry(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.New("permission denied")
	}, "topology")

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, stdErr.Code)
}

func TestExecuteWithRetry_ExhaustsRetries(t *testing.T) {
	c := testClient()
	calls := 0

	err := c.ExecuteWithRetry(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.New("context deadline exceeded")
	}, "topology")

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeTimeout, stdErr.Code)
}

func TestExecuteWithRetry_Cancelled(t *testing.T) {
	c := testClient()
	c.config.RetryConfig.BaseDelay = time.Hour
	c.config.RetryConfig.MaxDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.ExecuteWithRetry(ctx, func(ctx context.Context) error {
		return errors.New("connection reset")
	}, "topology")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackoff(t *testing.T) {
	cfg := &RetryConfig{BaseDelay: time.Second, MaxDelay: 5 * time.Second}

	assert.Equal(t, time.Second, backoff(cfg, 0))
	assert.Equal(t, 4*time.Second, backoff(cfg, 2))
	assert.Equal(t, 5*time.Second, backoff(cfg, 3))
}
