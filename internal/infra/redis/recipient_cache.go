package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/antsif-a/schizontology-bot/internal/domain"
	"github.com/antsif-a/schizontology-bot/internal/domain/model"
	"github.com/antsif-a/schizontology-bot/internal/domain/ports/repository"
	"github.com/antsif-a/schizontology-bot/internal/infra/metrics"
)

const recipientKeyPrefix = "relay:recipient:"

var _ repository.RecipientCache = (*RecipientCache)(nil)

// RecipientCache keeps resolved destinations so a message does not cost one
// directory lookup per recipient.
type RecipientCache struct {
	client RedisClient
	ttl    time.Duration
}

func NewRecipientCache(client RedisClient, ttl time.Duration) *RecipientCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RecipientCache{client: client, ttl: ttl}
}

func recipientKey(identifier string) string { return recipientKeyPrefix + identifier }

func (c *RecipientCache) Get(ctx context.Context, identifier string) (model.Destination, error) {
	data, err := c.client.Get(ctx, recipientKey(identifier))
	if errors.Is(err, redis.Nil) {
		metrics.IncCacheRequest("recipient", "miss")
		return model.Destination{}, domain.ErrNotFound
	}
	if err != nil {
		metrics.IncCacheRequest("recipient", "error")
		return model.Destination{}, err
	}

	var dest model.Destination
	if err := json.Unmarshal([]byte(data), &dest); err != nil {
		// unreadable entries behave like a miss and get overwritten
		metrics.IncCacheRequest("recipient", "miss")
		return model.Destination{}, domain.ErrNotFound
	}
	metrics.IncCacheRequest("recipient", "hit")
	return dest, nil
}

func (c *RecipientCache) Set(ctx context.Context, dest model.Destination) error {
	if dest.Identifier == "" {
		return domain.ErrInvalidArgument
	}
	data, err := json.Marshal(dest)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, recipientKey(dest.Identifier), data, c.ttl)
}

func (c *RecipientCache) Invalidate(ctx context.Context, identifier string) error {
	return c.client.Del(ctx, recipientKey(identifier))
}
