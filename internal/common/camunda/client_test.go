package camunda

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"parkingspace-workers/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "unavailable", err: status.Error(codes.Unavailable, "gateway down"), want: true},
		{name: "deadline", err: status.Error(codes.DeadlineExceeded, "slow"), want: true},
		{name: "backpressure", err: status.Error(codes.ResourceExhausted, "busy"), want: true},
		{name: "not found", err: status.Error(codes.NotFound, "no job"), want: false},
		{name: "context deadline", err: fmt.Errorf("send: %w", context.DeadlineExceeded), want: true},
		{name: "refused", err: errors.New("dial tcp: connection refused"), want: true},
		{name: "other", err: errors.New("bad variables"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryable(tt.err))
		})
	}
}

func testClient(t *testing.T, maxRetries int) *Client {
	return &Client{
		timeout: time.Second,
		retry:   RetryPolicy{MaxRetries: maxRetries, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond},
		logger:  logger.NewTestLogger(t),
	}
}

func TestWithRetry(t *testing.T) {
	t.Run("recovers from transient failures", func(t *testing.T) {
		calls := 0
		err := testClient(t, 3).withRetry(t.Context(), "topology", func(context.Context) error {
			calls++
			if calls < 3 {
				return status.Error(codes.Unavailable, "starting")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		calls := 0
		err := testClient(t, 2).withRetry(t.Context(), "topology", func(context.Context) error {
			calls++
			return status.Error(codes.Unavailable, "down")
		})
		assert.ErrorContains(t, err, "topology failed after 3 attempts")
		assert.Equal(t, 3, calls)
	})

	t.Run("permanent errors are not retried", func(t *testing.T) {
		calls := 0
		err := testClient(t, 3).withRetry(t.Context(), "topology", func(context.Context) error {
			calls++
			return status.Error(codes.PermissionDenied, "no")
		})
		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("stops when the context ends", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		c := testClient(t, 5)
		c.retry.BaseDelay = time.Hour
		c.retry.MaxDelay = time.Hour

		err := c.withRetry(ctx, "topology", func(context.Context) error {
			cancel()
			return status.Error(codes.Unavailable, "down")
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
