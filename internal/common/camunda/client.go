package camunda

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"parkingspace-workers/internal/common/config"
	"parkingspace-workers/internal/common/errors"
	"parkingspace-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const defaultRequestTimeout = 10 * time.Second

type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

var DefaultRetryPolicy = RetryPolicy{
	MaxRetries: 3,
	BaseDelay:  1 * time.Second,
	MaxDelay:   10 * time.Second,
}

// Client owns the gateway connection shared by every job worker.
type Client struct {
	zeebe   zbc.Client
	timeout time.Duration
	retry   RetryPolicy
	logger  logger.Logger
}

// Connect dials the gateway and waits for a topology answer, so workers are
// only opened against a reachable broker.
func Connect(ctx context.Context, cfg config.CamundaConfig, log logger.Logger) (*Client, error) {
	timeout := config.GetDuration(cfg.RequestTimeout)
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	zc, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         cfg.BrokerAddress,
		UsePlaintextConnection: !cfg.TLS,
	})
	if err != nil {
		return nil, fmt.Errorf("create zeebe client: %w", err)
	}

	c := &Client{
		zeebe:   zc,
		timeout: timeout,
		retry:   DefaultRetryPolicy,
		logger:  log.WithFields(map[string]interface{}{"gateway": cfg.BrokerAddress}),
	}
	if err := c.withRetry(ctx, "topology", c.topology); err != nil {
		_ = zc.Close()
		return nil, errors.NewExternalServiceError("zeebe", err)
	}
	return c, nil
}

func (c *Client) GetClient() zbc.Client {
	return c.zeebe
}

func (c *Client) Close() error {
	return c.zeebe.Close()
}

func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.topology(ctx); err != nil {
		return fmt.Errorf("zeebe health check: %w", err)
	}
	return nil
}

func (c *Client) topology(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	_, err := c.zeebe.NewTopologyCommand().Send(ctx)
	return err
}

// withRetry runs op with exponential backoff while the gateway reports
// transient failures.
func (c *Client) withRetry(ctx context.Context, name string, op func(context.Context) error) error {
	for attempt := 0; ; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !isRetryable(err) || attempt >= c.retry.MaxRetries {
			return fmt.Errorf("%s failed after %d attempts: %w", name, attempt+1, err)
		}

		delay := c.retry.BaseDelay * time.Duration(1<<attempt)
		if delay > c.retry.MaxDelay {
			delay = c.retry.MaxDelay
		}
		c.logger.Warn("zeebe request failed, retrying", map[string]interface{}{
			"operation": name,
			"attempt":   attempt + 1,
			"delay":     delay.String(),
			"error":     err.Error(),
		})

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%s cancelled after %d attempts: %w", name, attempt+1, ctx.Err())
		}
	}
}

func isRetryable(err error) bool {
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted:
			return true
		}
		return false
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") || strings.Contains(msg, "connection reset")
}
