package database

import (
	"context"
	"fmt"
	"net/http"

	"parkingspace-workers/internal/common/config"

	"github.com/elastic/go-elasticsearch/v8"
)

const searchMaxRetries = 3

// Search is the client for the published parking space index.
type Search struct {
	Client *elasticsearch.Client
}

func ConnectElasticsearch(ctx context.Context, cfg config.ElasticsearchConfig) (*Search, error) {
	addresses := cfg.Addresses
	if len(addresses) == 0 && cfg.URL != "" {
		addresses = []string{cfg.URL}
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     addresses,
		Username:      cfg.Username,
		Password:      cfg.Password,
		MaxRetries:    searchMaxRetries,
		RetryOnStatus: []int{http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout},
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	s := &Search{Client: client}
	if err := s.Ping(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Search) Ping(ctx context.Context) error {
	ctx, cancel := withPingTimeout(ctx)
	defer cancel()

	res, err := s.Client.Ping(s.Client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: %s", res.Status())
	}
	return nil
}
