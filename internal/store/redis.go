package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/xzo-x0zxk1d/rxx-AI/internal/models"
)

const chatListTTL = 5 * time.Minute

// RedisStore caches per-owner chat listings. The cache is invalidated on
// every write so a listing never shows a deleted or stale chat.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// chatListKey returns the key for an owner's cached chat listing.
func chatListKey(ownerID uuid.UUID) string {
	return fmt.Sprintf("chats:owner:%s", ownerID)
}

// GetChatList returns the cached listing for an owner, if present.
func (s *RedisStore) GetChatList(ctx context.Context, ownerID uuid.UUID) ([]models.Chat, bool, error) {
	data, err := s.client.Get(ctx, chatListKey(ownerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var chats []models.Chat
	if err := json.Unmarshal(data, &chats); err != nil {
		return nil, false, err
	}
	return chats, true, nil
}

// CacheChatList stores an owner's chat listing with a short TTL.
func (s *RedisStore) CacheChatList(ctx context.Context, ownerID uuid.UUID, chats []models.Chat) error {
	data, err := json.Marshal(chats)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, chatListKey(ownerID), data, chatListTTL).Err()
}

// InvalidateChatList drops an owner's cached listing.
func (s *RedisStore) InvalidateChatList(ctx context.Context, ownerID uuid.UUID) error {
	return s.client.Del(ctx, chatListKey(ownerID)).Err()
}
