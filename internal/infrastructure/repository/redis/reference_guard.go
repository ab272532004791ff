package redisrepository

import (
	"context"
	"fmt"
	"time"

	"github.com/gigmile/receivables-service/internal/domain"
	"github.com/go-redis/redis/v8"
)

// DefaultReferenceTTL bounds how long a payment reference stays claimed.
const DefaultReferenceTTL = 30 * 24 * time.Hour

// RedisReferenceGuard claims payment references with SETNX so the same
// bank or card reference cannot be applied twice for one customer.
type RedisReferenceGuard struct {
	client *redis.Client
	ttl    time.Duration
}

var _ domain.ReferenceGuard = (*RedisReferenceGuard)(nil)

func NewRedisReferenceGuard(client *redis.Client, ttl time.Duration) *RedisReferenceGuard {
	if ttl <= 0 {
		ttl = DefaultReferenceTTL
	}
	return &RedisReferenceGuard{
		client: client,
		ttl:    ttl,
	}
}

// Claim returns false when the reference was already claimed.
func (g *RedisReferenceGuard) Claim(ctx context.Context, customerID, reference string) (bool, error) {
	wasSet, err := g.client.SetNX(ctx, g.referenceKey(customerID, reference), time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim payment reference: %w", err)
	}
	return wasSet, nil
}

func (g *RedisReferenceGuard) Release(ctx context.Context, customerID, reference string) error {
	if err := g.client.Del(ctx, g.referenceKey(customerID, reference)).Err(); err != nil {
		return fmt.Errorf("failed to release payment reference: %w", err)
	}
	return nil
}

func (g *RedisReferenceGuard) referenceKey(customerID, reference string) string {
	return fmt.Sprintf("ledger:payment-ref:%s:%s", customerID, reference)
}
