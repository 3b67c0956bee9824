package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/meridianhealth/account-security-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const policyKeyPrefix = "accountsec:policy:"

// RedisPolicyCache keeps resolved policies hot for the login path. Entries are
// JSON documents keyed by scope; a missing key is a miss, never an error.
type RedisPolicyCache struct {
	client *redis.Client
}

// NewRedisPolicyCache creates the policy cache adapter.
func NewRedisPolicyCache(client *redis.Client) *RedisPolicyCache {
	return &RedisPolicyCache{client: client}
}

func (c *RedisPolicyCache) Get(ctx context.Context, scopeKey string) (*domain.PasswordPolicy, error) {
	raw, err := c.client.Get(ctx, policyKeyPrefix+scopeKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("policy cache get: %w", err)
	}

	var policy domain.PasswordPolicy
	if err := json.Unmarshal([]byte(raw), &policy); err != nil {
		// A corrupt entry behaves as a miss; the store remains authoritative.
		_ = c.client.Del(ctx, policyKeyPrefix+scopeKey).Err()
		return nil, nil
	}
	return &policy, nil
}

func (c *RedisPolicyCache) Put(ctx context.Context, scopeKey string, policy domain.PasswordPolicy, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	raw, err := json.Marshal(policy)
	if err != nil {
		return fmt.Errorf("encode policy: %w", err)
	}
	return c.client.Set(ctx, policyKeyPrefix+scopeKey, raw, ttl).Err()
}

func (c *RedisPolicyCache) Invalidate(ctx context.Context, scopeKey string) error {
	return c.client.Del(ctx, policyKeyPrefix+scopeKey).Err()
}
