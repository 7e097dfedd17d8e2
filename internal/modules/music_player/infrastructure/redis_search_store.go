package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/frostzzone/frost-music/internal/modules/music_player/application/ports"
	"github.com/frostzzone/frost-music/internal/modules/music_player/domain"
	"github.com/redis/go-redis/v9"
)

const redisSearchPrefix = "frostmusic:search"

// RedisConfig contains Redis connection configuration.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

// RedisSearchStore keeps search result sets in Redis so they survive restarts
// and can be shared between shards.
type RedisSearchStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSearchStore connects to Redis and verifies the connection.
func NewRedisSearchStore(ctx context.Context, config RedisConfig) (*RedisSearchStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisSearchStore{client: client, ttl: config.TTL}, nil
}

// Get returns the set stored under key in the guild.
func (s *RedisSearchStore) Get(
	ctx context.Context,
	guildID, key snowflake.ID,
) (domain.SearchResultSet, bool, error) {
	data, err := s.client.Get(ctx, redisSearchKey(guildID, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.SearchResultSet{}, false, nil
	}
	if err != nil {
		return domain.SearchResultSet{}, false, fmt.Errorf("failed to get search results: %w", err)
	}

	var set domain.SearchResultSet
	if err := json.Unmarshal(data, &set); err != nil {
		return domain.SearchResultSet{}, false, fmt.Errorf("failed to decode search results: %w", err)
	}
	return set, true, nil
}

// Set replaces the set stored under key in the guild.
func (s *RedisSearchStore) Set(
	ctx context.Context,
	guildID, key snowflake.ID,
	results domain.SearchResultSet,
) error {
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to encode search results: %w", err)
	}

	if err := s.client.Set(ctx, redisSearchKey(guildID, key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store search results: %w", err)
	}
	return nil
}

// Clear removes every set stored for the guild.
func (s *RedisSearchStore) Clear(ctx context.Context, guildID snowflake.ID) error {
	pattern := redisGuildPattern(guildID)

	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan search results: %w", err)
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete search results: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Close closes the Redis connection.
func (s *RedisSearchStore) Close() error {
	return s.client.Close()
}

func redisSearchKey(guildID, key snowflake.ID) string {
	return fmt.Sprintf("%s:%d:%d", redisSearchPrefix, guildID, key)
}

func redisGuildPattern(guildID snowflake.ID) string {
	return fmt.Sprintf("%s:%d:*", redisSearchPrefix, guildID)
}

// Ensure RedisSearchStore implements ports.SearchStore.
var _ ports.SearchStore = (*RedisSearchStore)(nil)
