package cache

import (
	"context"
	"errors"

	"storefront/internal/domain"
)

// CatalogCache caches product listings. Keys are listing names such as "all" or a category.
type CatalogCache interface {
	Get(ctx context.Context, listing string) ([]domain.Product, error)
	Set(ctx context.Context, listing string, products []domain.Product) error
	// Invalidate drops every cached listing.
	Invalidate(ctx context.Context) error
}

var ErrCacheMiss = errors.New("cache miss")

// ListingAll is the listing key for the full catalog.
const ListingAll = "all"

// Listings returns every listing key the catalog serves.
func Listings() []string {
	keys := []string{ListingAll}
	for _, c := range domain.Categories {
		keys = append(keys, string(c))
	}
	return keys
}

// Nop never caches; every Get misses.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]domain.Product, error) { return nil, ErrCacheMiss }
func (Nop) Set(context.Context, string, []domain.Product) error   { return nil }
func (Nop) Invalidate(context.Context) error                      { return nil }
