package config

import (
	"strings"
	"time"
)

const defaultProfileCacheTTL = 2 * time.Minute

// CacheConfig controls the Redis-backed read-through cache for public user profiles.
type CacheConfig struct {
	ProfilesEnabled bool          `env:"CACHE_PROFILES_ENABLED" envDefault:"false"`
	ProfileTTL      time.Duration `env:"CACHE_PROFILE_TTL"      envDefault:"2m"`
	KeyPrefix       string        `env:"CACHE_KEY_PREFIX"       envDefault:"forum:cache:"`
}

// Sanitize applies guardrails to cache configuration values.
func (c *CacheConfig) Sanitize() {
	if c.ProfileTTL <= 0 {
		c.ProfileTTL = defaultProfileCacheTTL
	}
	c.KeyPrefix = strings.TrimSpace(c.KeyPrefix)
}
