package product

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"github.com/shopspring/decimal"

	"storefront/internal/cache"
	"storefront/internal/domain"
	productrepo "storefront/internal/repository/product"
	"storefront/internal/validation"
)

type Service struct {
	repo   productrepo.Repository
	cache  cache.CatalogCache
	logger *log.Logger
}

// New builds the catalog service. A nil cache disables caching.
func New(repo productrepo.Repository, c cache.CatalogCache, logger *log.Logger) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, cache: c, logger: logger}
}

// CreateInput is an uploaded catalog item. Price is in major currency units.
type CreateInput struct {
	Name        string          `json:"name" validate:"required"`
	Brand       string          `json:"brand" validate:"required"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image" validate:"required"`
	Category    string          `json:"category" validate:"required"`
	Description string          `json:"description" validate:"required"`
}

func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	return s.cached(ctx, cache.ListingAll, s.repo.List)
}

// ListByCategory lists one category; an unknown category is a validation error.
func (s *Service) ListByCategory(ctx context.Context, raw string) ([]domain.Product, error) {
	c, ok := domain.ParseCategory(raw)
	if !ok {
		return nil, domain.NewValidationError("category", "must be one of [male, female, kids]")
	}
	return s.cached(ctx, string(c), func(ctx context.Context) ([]domain.Product, error) {
		return s.repo.ListByCategory(ctx, c)
	})
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Product, error) {
	p, err := ToProduct(in)
	if err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return created, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// ToProduct validates an upload and converts it to a domain.Product.
func ToProduct(in CreateInput) (domain.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Brand = strings.TrimSpace(in.Brand)
	in.Image = strings.TrimSpace(in.Image)
	in.Category = strings.TrimSpace(in.Category)
	in.Description = strings.TrimSpace(in.Description)

	verr := validation.Struct(in)
	if !in.Price.IsPositive() {
		verr.Add("price", "must be greater than 0")
	} else if !in.Price.Equal(in.Price.Round(2)) {
		verr.Add("price", "must have at most 2 decimal places")
	}
	c, ok := domain.ParseCategory(in.Category)
	if in.Category != "" && !ok {
		verr.Add("category", "must be one of [male, female, kids]")
	}
	if err := verr.OrNil(); err != nil {
		return domain.Product{}, err
	}
	return domain.Product{
		Name:        in.Name,
		Brand:       in.Brand,
		Price:       in.Price,
		Image:       in.Image,
		Category:    c,
		Description: in.Description,
	}, nil
}

func (s *Service) cached(ctx context.Context, listing string, load func(context.Context) ([]domain.Product, error)) ([]domain.Product, error) {
	products, err := s.cache.Get(ctx, listing)
	if err == nil {
		return products, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Printf("catalog: cache get listing=%s err=%v", listing, err)
	}
	products, err = load(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, listing, products); err != nil {
		s.logger.Printf("catalog: cache set listing=%s err=%v", listing, err)
	}
	return products, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Printf("catalog: cache invalidate err=%v", err)
	}
}
