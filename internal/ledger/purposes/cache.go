package purposes

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/aurora-books/aurora-books/internal/ledger/shared"
)

// CachedRepository is a read-through cache over the mapping table.
// Mappings are read on every posting and change rarely, so a short TTL
// keeps resolution off the database without a invalidation protocol
// beyond delete-on-write.
type CachedRepository struct {
	inner  Repository
	client *redis.Client
	ttl    time.Duration
}

func NewCachedRepository(inner Repository, client *redis.Client, ttl time.Duration) *CachedRepository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedRepository{inner: inner, client: client, ttl: ttl}
}

func cacheKey(scope shared.Scope, purpose Purpose) string {
	return fmt.Sprintf("acctmap:%d:%d:%s", scope.TenantID, scope.CompanyID, purpose)
}

func (c *CachedRepository) Get(ctx context.Context, scope shared.Scope, purpose Purpose) (AccountMapping, error) {
	if err := purpose.Validate(); err != nil {
		return AccountMapping{}, err
	}
	key := cacheKey(scope, purpose)
	// Cache trouble is never a resolution failure; fall through to the table.
	if cached, err := c.client.Get(ctx, key).Result(); err == nil {
		if accountID, parseErr := strconv.ParseInt(cached, 10, 64); parseErr == nil {
			return AccountMapping{
				TenantID:  scope.TenantID,
				CompanyID: scope.CompanyID,
				Purpose:   purpose,
				AccountID: accountID,
			}, nil
		}
	}
	mapping, err := c.inner.Get(ctx, scope, purpose)
	if err != nil {
		return AccountMapping{}, err
	}
	_ = c.client.Set(ctx, key, strconv.FormatInt(mapping.AccountID, 10), c.ttl).Err()
	return mapping, nil
}

func (c *CachedRepository) Put(ctx context.Context, mapping AccountMapping) error {
	if err := c.inner.Put(ctx, mapping); err != nil {
		return err
	}
	scope := shared.Scope{TenantID: mapping.TenantID, CompanyID: mapping.CompanyID}
	return c.client.Del(ctx, cacheKey(scope, mapping.Purpose)).Err()
}
