package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	appErrors "github.com/noah-isme/portal-agenda-api/pkg/errors"
)

// MemoryCacheRepository is an in-process cache used when Redis is disabled.
// Entries share a single TTL fixed at construction; the ttl argument of Set is capped by it.
type MemoryCacheRepository struct {
	lru *expirable.LRU[string, memoryEntry]
}

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// NewMemoryCacheRepository builds an LRU holding at most size entries for ttl.
func NewMemoryCacheRepository(size int, ttl time.Duration) *MemoryCacheRepository {
	if size <= 0 {
		size = 1024
	}
	return &MemoryCacheRepository{lru: expirable.NewLRU[string, memoryEntry](size, nil, ttl)}
}

// Get retrieves and unmarshals the cached value into the provided destination.
func (r *MemoryCacheRepository) Get(_ context.Context, key string, dest interface{}) error {
	entry, ok := r.lru.Get(key)
	if !ok {
		return appErrors.ErrCacheMiss
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		r.lru.Remove(key)
		return appErrors.ErrCacheMiss
	}
	if err := json.Unmarshal(entry.payload, dest); err != nil {
		r.lru.Remove(key)
		return appErrors.ErrCacheMiss
	}
	return nil
}

// Set stores the JSON encoding of value.
func (r *MemoryCacheRepository) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}
	entry := memoryEntry{payload: payload}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	r.lru.Add(key, entry)
	return nil
}

// Delete removes the exact keys given.
func (r *MemoryCacheRepository) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		r.lru.Remove(key)
	}
	return nil
}

// DeleteByPattern removes keys matching a glob pattern ("*" and "?").
func (r *MemoryCacheRepository) DeleteByPattern(_ context.Context, pattern string) error {
	for _, key := range r.lru.Keys() {
		matched, err := path.Match(pattern, key)
		if err != nil {
			return fmt.Errorf("match pattern %s: %w", pattern, err)
		}
		if matched {
			r.lru.Remove(key)
		}
	}
	return nil
}

// Len reports the number of live entries.
func (r *MemoryCacheRepository) Len() int {
	return r.lru.Len()
}
