// Package identity resolves contact handles to registered accounts.
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"credit-ledger/internal/domain/party"
)

var (
	_ party.Resolver = (*DirectoryResolver)(nil)
	_ party.Resolver = (*CachedResolver)(nil)
)

// DirectoryResolver reads the accounts table owned by the identity service.
type DirectoryResolver struct{ db *gorm.DB }

func NewDirectoryResolver(db *gorm.DB) *DirectoryResolver { return &DirectoryResolver{db: db} }

func (r *DirectoryResolver) ResolveAccountByHandle(ctx context.Context, handle string) (string, bool, error) {
	var acc party.Account
	err := r.db.WithContext(ctx).Where("phone_number = ?", handle).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return acc.AccountID, true, nil
}

// Register inserts a directory row; used by reconciliation tooling and tests.
func (r *DirectoryResolver) Register(ctx context.Context, accountID, handle string) error {
	return r.db.WithContext(ctx).Create(&party.Account{AccountID: accountID, PhoneNumber: handle}).Error
}

// CachedResolver fronts another resolver with redis. Only hits are cached, so a
// handle that registers later is picked up on the next lookup.
type CachedResolver struct {
	next party.Resolver
	rdb  *redis.Client
	ttl  time.Duration
}

func NewCachedResolver(next party.Resolver, rdb *redis.Client, ttl time.Duration) *CachedResolver {
	return &CachedResolver{next: next, rdb: rdb, ttl: ttl}
}

func cacheKey(handle string) string { return "resolver:handle:" + handle }

func (r *CachedResolver) ResolveAccountByHandle(ctx context.Context, handle string) (string, bool, error) {
	key := cacheKey(handle)
	if v, err := r.rdb.Get(ctx, key).Result(); err == nil {
		return v, true, nil
	} else if !errors.Is(err, redis.Nil) {
		// cache trouble is not resolution trouble
		return r.next.ResolveAccountByHandle(ctx, handle)
	}

	accountID, found, err := r.next.ResolveAccountByHandle(ctx, handle)
	if err != nil || !found {
		return accountID, found, err
	}
	_ = r.rdb.Set(ctx, key, accountID, r.ttl).Err()
	return accountID, true, nil
}
