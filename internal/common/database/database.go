// Package database connects the stores behind the parking space workers:
// Postgres for the audit trail, Redis for the offer guard and Elasticsearch
// for published parking spaces. Every Connect function pings before
// returning so a half-open client never reaches the caller.
package database

import (
	"context"
	"time"
)

const pingTimeout = 5 * time.Second

func withPingTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, pingTimeout)
}
