package redisrepository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gigmile/receivables-service/internal/domain"
	"github.com/go-redis/redis/v8"
)

// ErrCacheMiss is returned when the customer is not cached.
var ErrCacheMiss = errors.New("customer not cached")

// generationTTL outlives any cached snapshot so a fill never sees an
// expired generation counter.
const generationTTL = 24 * time.Hour

// fillScript writes the snapshot only while the generation is still the one
// the reader observed before it went to the database.
var fillScript = redis.NewScript(`
	local current = redis.call('GET', KEYS[2])
	if not current then
		current = '0'
	end
	if current ~= ARGV[1] then
		return 0
	end
	if tonumber(ARGV[3]) > 0 then
		redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
	else
		redis.call('SET', KEYS[1], ARGV[2])
	end
	return 1
`)

// invalidateScript bumps the generation and drops the snapshot atomically.
var invalidateScript = redis.NewScript(`
	redis.call('INCR', KEYS[2])
	redis.call('PEXPIRE', KEYS[2], ARGV[1])
	redis.call('DEL', KEYS[1])
	return 1
`)

// RedisCustomerRepository is a read-through cache of customer snapshots.
// It never holds the source of truth; the SQL store invalidates it after
// every committed write. Each invalidation bumps a per-customer generation,
// and fills carry the generation read before the database query, so a
// snapshot read before a commit can never land after its invalidation.
type RedisCustomerRepository struct {
	client   *redis.Client
	cacheTTL time.Duration
}

func NewRedisCustomerRepository(client *redis.Client, cacheTTL time.Duration) *RedisCustomerRepository {
	return &RedisCustomerRepository{
		client:   client,
		cacheTTL: cacheTTL,
	}
}

func (r *RedisCustomerRepository) FindByID(ctx context.Context, customerID string) (*domain.Customer, error) {
	key := r.customerKey(customerID)

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	var customer domain.Customer
	if err := json.Unmarshal(data, &customer); err != nil {
		return nil, fmt.Errorf("failed to unmarshal customer: %w", err)
	}

	return &customer, nil
}

// Generation returns the customer's invalidation counter, "0" when none has
// happened yet.
func (r *RedisCustomerRepository) Generation(ctx context.Context, customerID string) (string, error) {
	gen, err := r.client.Get(ctx, r.generationKey(customerID)).Result()
	if err != nil {
		if err == redis.Nil {
			return "0", nil
		}
		return "", fmt.Errorf("failed to read cache generation: %w", err)
	}
	return gen, nil
}

// Fill caches the snapshot unless the customer was invalidated since
// generation was read. It reports whether the snapshot was written.
func (r *RedisCustomerRepository) Fill(ctx context.Context, customer *domain.Customer, generation string) (bool, error) {
	data, err := json.Marshal(customer)
	if err != nil {
		return false, fmt.Errorf("failed to marshal customer: %w", err)
	}

	keys := []string{r.customerKey(customer.ID), r.generationKey(customer.ID)}
	written, err := fillScript.Run(ctx, r.client, keys, generation, data, r.cacheTTL.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("failed to save customer: %w", err)
	}

	return written == 1, nil
}

// Delete invalidates the snapshot and any fill still in flight.
func (r *RedisCustomerRepository) Delete(ctx context.Context, customerID string) error {
	keys := []string{r.customerKey(customerID), r.generationKey(customerID)}
	if err := invalidateScript.Run(ctx, r.client, keys, generationTTL.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	return nil
}

func (r *RedisCustomerRepository) customerKey(customerID string) string {
	return fmt.Sprintf("ledger:customer:%s", customerID)
}

func (r *RedisCustomerRepository) generationKey(customerID string) string {
	return fmt.Sprintf("ledger:customer-gen:%s", customerID)
}
