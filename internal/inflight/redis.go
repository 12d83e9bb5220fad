package inflight

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// releaseScript deletes the key only while it still carries our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a Guard shared by every replica talking to the same Redis.
// Claims expire after ttl so a crashed holder cannot wedge an entity.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedis creates a Redis-backed guard
func NewRedis(client *redis.Client, prefix string, ttl time.Duration, logger *zap.Logger) *Redis {
	return &Redis{client: client, prefix: prefix, ttl: ttl, logger: logger}
}

func (g *Redis) Acquire(ctx context.Context, key string) (func(), error) {
	redisKey := fmt.Sprintf("%s:%s", g.prefix, key)
	token := uuid.NewString()

	ok, err := g.client.SetNX(ctx, redisKey, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire in-flight key: %w", err)
	}
	if !ok {
		return nil, ErrInFlight
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// the request context may already be done
			if err := releaseScript.Run(context.Background(), g.client, []string{redisKey}, token).Err(); err != nil {
				g.logger.Warn("Failed to release in-flight key",
					zap.String("key", redisKey),
					zap.Error(err),
				)
			}
		})
	}, nil
}
