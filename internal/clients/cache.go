package clients

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/recist-io/recist/internal/logging"
	"github.com/recist-io/recist/internal/models"
)

// KnowledgeCache is the bounded most-recent-first cache of knowledge
// entries. The id list at knowledge:<ns>:recent is trimmed to maxEntries;
// entry blobs at knowledge:<ns>:entry:<id> expire on the Redis default TTL.
type KnowledgeCache struct {
	redis      *RedisClient
	namespace  string
	maxEntries int64
	logger     *logging.Logger
}

// NewKnowledgeCache creates a cache bound to one namespace.
func NewKnowledgeCache(redis *RedisClient, namespace string, maxEntries int64) *KnowledgeCache {
	return &KnowledgeCache{
		redis:      redis,
		namespace:  namespace,
		maxEntries: maxEntries,
		logger:     logging.GetLogger("clients.cache"),
	}
}

func (c *KnowledgeCache) listKey() string {
	return fmt.Sprintf("knowledge:%s:recent", c.namespace)
}

func (c *KnowledgeCache) entryKey(id string) string {
	return fmt.Sprintf("knowledge:%s:entry:%s", c.namespace, id)
}

// AddEntry stores the entry blob, pushes its id onto the recent list, and
// trims the list to the configured bound.
func (c *KnowledgeCache) AddEntry(ctx context.Context, entry *models.KnowledgeEntry) error {
	if err := c.redis.Set(ctx, c.entryKey(entry.ID), entry); err != nil {
		return err
	}
	if err := c.redis.LPush(ctx, c.listKey(), entry.ID); err != nil {
		return err
	}
	return c.redis.LTrim(ctx, c.listKey(), 0, c.maxEntries-1)
}

// GetRecentEntries returns up to limit entries, most recent first. Ids whose
// blob has expired are skipped.
func (c *KnowledgeCache) GetRecentEntries(ctx context.Context, limit int64) ([]models.KnowledgeEntry, error) {
	items, err := c.redis.LRange(ctx, c.listKey(), 0, limit-1)
	if err != nil {
		return nil, err
	}

	entries := make([]models.KnowledgeEntry, 0, len(items))
	for _, item := range items {
		var id string
		if err := json.Unmarshal([]byte(item), &id); err != nil {
			c.logger.Warn("Failed to decode list item: %v", err)
			continue
		}

		var entry models.KnowledgeEntry
		found, err := c.redis.Get(ctx, c.entryKey(id), &entry)
		if err != nil {
			return nil, err
		}
		if found {
			entries = append(entries, entry)
		}
	}

	return entries, nil
}

// FindSimilarInCache returns the most recent successful entry with the given
// error type, or nil when none is cached.
func (c *KnowledgeCache) FindSimilarInCache(ctx context.Context, errorType string) (*models.KnowledgeEntry, error) {
	entries, err := c.GetRecentEntries(ctx, c.maxEntries)
	if err != nil {
		return nil, err
	}

	for i := range entries {
		if entries[i].ErrorType == errorType && entries[i].Outcome.Success {
			return &entries[i], nil
		}
	}

	return nil, nil
}
