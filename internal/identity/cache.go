// Package identity resolves reminder owners to notification recipients.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Default cache parameters.
const (
	DefaultCacheSize = 1024
	DefaultCacheTTL  = 10 * time.Minute
)

// Lookup resolves an owner's e-mail address.
// Satisfied by store.Store and engine.IdentityLookup implementations.
type Lookup interface {
	EmailForOwner(ctx context.Context, ownerID int64) (string, error)
}

// ErrNoEmail is returned when an owner resolves to an empty address.
var ErrNoEmail = errors.New("owner has no e-mail address")

// Config holds cache configuration.
type Config struct {
	Size int           // max cached owners, default 1024
	TTL  time.Duration // entry lifetime, default 10m
}

// CachedLookup fronts a Lookup with an expiring LRU cache.
// Only successful lookups are cached, so an unknown owner is retried.
type CachedLookup struct {
	next  Lookup
	cache *expirable.LRU[int64, string]
}

// NewCachedLookup wraps next with a cache.
func NewCachedLookup(next Lookup, cfg Config) *CachedLookup {
	if cfg.Size <= 0 {
		cfg.Size = DefaultCacheSize
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultCacheTTL
	}
	return &CachedLookup{
		next:  next,
		cache: expirable.NewLRU[int64, string](cfg.Size, nil, cfg.TTL),
	}
}

// EmailForOwner returns the cached address or asks the wrapped Lookup.
func (c *CachedLookup) EmailForOwner(ctx context.Context, ownerID int64) (string, error) {
	if email, ok := c.cache.Get(ownerID); ok {
		return email, nil
	}

	email, err := c.next.EmailForOwner(ctx, ownerID)
	if err != nil {
		return "", err
	}
	if email == "" {
		return "", fmt.Errorf("owner %d: %w", ownerID, ErrNoEmail)
	}

	c.cache.Add(ownerID, email)
	return email, nil
}

// Len returns the number of cached owners.
func (c *CachedLookup) Len() int {
	return c.cache.Len()
}
