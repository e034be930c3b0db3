// Package core defines the repository ports the forum services depend on, plus small
// orchestration helpers that sit between services and storage.
package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/target/forum-api/internal/domain/model"
)

// CacheRepository defines the interface for caching operations.
// The core defines it and the data layer provides implementations.
type CacheRepository interface {
	// Set stores a value in the cache with the given key and TTL.
	// If TTL is 0, the key will not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get retrieves a value from the cache by key.
	// Returns nil if the key doesn't exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes a key from the cache.
	// Returns true if the key was deleted, false if it didn't exist.
	Delete(ctx context.Context, key string) (bool, error)

	// Health checks the health of the cache connection.
	Health(ctx context.Context) error
}

// ProfileCacheConfig holds configuration for profile caching.
type ProfileCacheConfig struct {
	TTL time.Duration `json:"ttl"`
}

// DefaultProfileCacheConfig returns a ProfileCacheConfig with sensible defaults.
func DefaultProfileCacheConfig() ProfileCacheConfig {
	return ProfileCacheConfig{TTL: 2 * time.Minute}
}

// ProfileCacheServiceOptions bundles dependencies for NewProfileCacheService.
type ProfileCacheServiceOptions struct {
	Cache  CacheRepository
	Config ProfileCacheConfig
}

// ProfileCacheService caches public user profiles as JSON.
// A nil *ProfileCacheService is valid and caches nothing.
type ProfileCacheService struct {
	cache CacheRepository
	ttl   time.Duration
}

// NewProfileCacheService creates a new ProfileCacheService. It returns nil when no cache is configured.
func NewProfileCacheService(opts ProfileCacheServiceOptions) *ProfileCacheService {
	if opts.Cache == nil {
		return nil
	}
	ttl := opts.Config.TTL
	if ttl <= 0 {
		ttl = DefaultProfileCacheConfig().TTL
	}
	return &ProfileCacheService{cache: opts.Cache, ttl: ttl}
}

// Get returns the cached profile for userID. The bool is false on a miss.
func (s *ProfileCacheService) Get(ctx context.Context, userID string) (*model.UserProfile, bool, error) {
	if s == nil || userID == "" {
		return nil, false, nil
	}
	raw, err := s.cache.Get(ctx, profileKey(userID))
	if err != nil || len(raw) == 0 {
		return nil, false, err
	}
	var p model.UserProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		// A corrupt entry is a miss; the caller repopulates it.
		return nil, false, nil //nolint:nilerr // treat undecodable entries as absent
	}
	return &p, true, nil
}

// Put stores p until the TTL elapses.
func (s *ProfileCacheService) Put(ctx context.Context, p *model.UserProfile) error {
	if s == nil || p == nil || p.ID == "" {
		return nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	return s.cache.Set(ctx, profileKey(p.ID), raw, s.ttl)
}

// Invalidate drops the cached profile for userID.
func (s *ProfileCacheService) Invalidate(ctx context.Context, userID string) error {
	if s == nil || userID == "" {
		return nil
	}
	_, err := s.cache.Delete(ctx, profileKey(userID))
	return err
}

func profileKey(userID string) string {
	return "profile:" + userID
}
