package parkingspaces

import (
	"context"
	"fmt"
	"time"

	"parkingspace-workers/internal/common/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const offerGuardPrefix = "parkingspaces:offer-guard:"

// releaseScript deletes the key only while it still holds our token, so an
// expired guard taken over by another worker is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisOfferGuard struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger logger.Logger
}

func NewRedisOfferGuard(client redis.UniversalClient, ttl time.Duration, log logger.Logger) *RedisOfferGuard {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisOfferGuard{
		client: client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "offerGuard"}),
	}
}

func offerGuardKey(listingID int) string {
	return fmt.Sprintf("%s%d", offerGuardPrefix, listingID)
}

func (g *RedisOfferGuard) Acquire(ctx context.Context, listingID int) (func(), bool, error) {
	key := offerGuardKey(listingID)
	token := uuid.New().String()

	ok, err := g.client.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		return func() {}, false, fmt.Errorf("acquire offer guard %s: %w", key, err)
	}
	if !ok {
		return func() {}, false, nil
	}

	releaseCtx := context.WithoutCancel(ctx)
	release := func() {
		if err := releaseScript.Run(releaseCtx, g.client, []string{key}, token).Err(); err != nil {
			g.logger.Warn("offer guard release failed", map[string]interface{}{
				"key":   key,
				"error": err,
			})
		}
	}
	return release, true, nil
}
