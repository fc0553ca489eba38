// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package cache provides the JSON envelope cache shared across the platform.

Every value is wrapped in a standard envelope before hitting Redis:

	{"data": <value>, "key": "<key>", "created_at": <epoch>, "exp": <seconds|null>}

Sibling services read these entries directly, so the envelope shape is a wire
contract, not an implementation detail.

Core Responsibilities:

  - Volatility: Handles data with optional TTL (Time-To-Live).
  - Taxonomy: Prefix-based truncation for bulk invalidation.
  - Safety: Bounded timeouts on every round trip.
*/
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by [Cache.Get] when the key does not exist.
var ErrMiss = errors.New("cache: key not found")

// truncateScanCount is the SCAN batch size used by [Cache.Truncate].
const truncateScanCount = 5000

// envelope is the standard wrapper persisted for every cache entry.
type envelope struct {
	Data      json.RawMessage `json:"data"`
	Key       string          `json:"key"`
	CreatedAt int64           `json:"created_at"`
	Exp       *int64          `json:"exp"`
}

// Cache wraps a Redis client with the platform envelope conventions.
type Cache struct {
	client *redis.Client
}

// New creates a Cache on top of an established Redis client.
func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

/*
Set stores a value under key, wrapped in the standard envelope.

Parameters:
  - context: context.Context
  - key: string
  - value: interface{} (JSON-serializable)
  - ttl: time.Duration (zero means no expiry)

Returns:
  - error: Serialization or Redis failures
*/
func (cache *Cache) Set(context context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache_set_marshal_failed: %w", err)
	}

	env := envelope{
		Data:      data,
		Key:       key,
		CreatedAt: time.Now().Unix(),
	}
	if ttl > 0 {
		seconds := int64(ttl.Seconds())
		env.Exp = &seconds
	}

	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("cache_set_envelope_failed: %w", err)
	}

	if err := cache.client.Set(context, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("cache_set_failed: %w", err)
	}

	return nil
}

/*
Get retrieves a value by key and unmarshals the envelope's data field into target.

Parameters:
  - context: context.Context
  - key: string
  - target: interface{} (pointer to the destination value)

Returns:
  - error: ErrMiss when absent, otherwise Redis or decode failures
*/
func (cache *Cache) Get(context context.Context, key string, target interface{}) error {
	payload, err := cache.client.Get(context, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrMiss
		}
		return fmt.Errorf("cache_get_failed: %w", err)
	}

	env := envelope{}
	if err := json.Unmarshal(payload, &env); err != nil {
		return fmt.Errorf("cache_get_envelope_decode_failed: %w", err)
	}

	if err := json.Unmarshal(env.Data, target); err != nil {
		return fmt.Errorf("cache_get_data_decode_failed: %w", err)
	}

	return nil
}

// Exists reports whether the key is present.
func (cache *Cache) Exists(context context.Context, key string) (bool, error) {
	count, err := cache.client.Exists(context, key).Result()
	if err != nil {
		return false, fmt.Errorf("cache_exists_failed: %w", err)
	}
	return count > 0, nil
}

// Delete removes the key. Deleting a missing key is not an error.
func (cache *Cache) Delete(context context.Context, key string) error {
	if err := cache.client.Del(context, key).Err(); err != nil {
		return fmt.Errorf("cache_delete_failed: %w", err)
	}
	return nil
}

/*
Truncate removes every key under the given prefix.

It walks the keyspace with SCAN in batches rather than KEYS, so it stays
safe to run against a shared production Redis.

Parameters:
  - context: context.Context
  - prefix: string

Returns:
  - int: Number of keys removed
  - error: Redis failures
*/
func (cache *Cache) Truncate(context context.Context, prefix string) (int, error) {
	var cursor uint64
	removed := 0

	for {
		keys, nextCursor, err := cache.client.Scan(context, cursor, prefix+"*", truncateScanCount).Result()
		if err != nil {
			return removed, fmt.Errorf("cache_truncate_scan_failed: %w", err)
		}

		if len(keys) > 0 {
			deleted, err := cache.client.Del(context, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("cache_truncate_delete_failed: %w", err)
			}
			removed += int(deleted)
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return removed, nil
}

// Ping verifies connectivity to the underlying Redis.
func (cache *Cache) Ping(context context.Context) error {
	if err := cache.client.Ping(context).Err(); err != nil {
		return fmt.Errorf("cache_ping_failed: %w", err)
	}
	return nil
}
