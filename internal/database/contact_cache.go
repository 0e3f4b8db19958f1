package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/medibook/backend/internal/models"
	"github.com/medibook/backend/internal/zlog"
)

const (
	contactCachePrefix = "medibook:contact:"
	contactCacheTTL    = 5 * time.Minute
)

// ContactCache is a read-through cache of recipient contacts. A nil client
// disables it; every method is then a no-op miss.
type ContactCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewContactCache(client *redis.Client) *ContactCache {
	return &ContactCache{client: client, ttl: contactCacheTTL}
}

func contactKey(userID uint) string {
	return fmt.Sprintf("%s%d", contactCachePrefix, userID)
}

// Get retrieves a contact from cache or returns nil on miss
func (c *ContactCache) Get(ctx context.Context, userID uint) *models.RecipientContact {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := c.client.Get(ctx, contactKey(userID)).Bytes()
	if err != nil {
		return nil
	}
	var contact models.RecipientContact
	if err := json.Unmarshal(data, &contact); err != nil {
		return nil
	}
	return &contact
}

// Set stores a contact in cache
func (c *ContactCache) Set(ctx context.Context, contact *models.RecipientContact) {
	if c == nil || c.client == nil || contact == nil {
		return
	}
	data, err := json.Marshal(contact)
	if err != nil {
		zlog.Warn("Failed to marshal contact for cache", zap.Error(err))
		return
	}
	c.client.Set(ctx, contactKey(contact.UserID), data, c.ttl)
}

// Invalidate removes a contact from cache (call on token change)
func (c *ContactCache) Invalidate(ctx context.Context, userID uint) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, contactKey(userID)).Err(); err != nil {
		zlog.Warn("Failed to invalidate contact cache", zap.Uint("user_id", userID), zap.Error(err))
	}
}
