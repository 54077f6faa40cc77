package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/domain"
)

// DemoEmail and DemoPassword are the credentials of the seeded shopper.
const (
	DemoEmail    = "demo@storefront.local"
	DemoPassword = "Demo1234"
)

type ProductWriter interface {
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}

type UserWriter interface {
	Create(ctx context.Context, u domain.User) (*domain.User, error)
}

type productSeed struct {
	Name        string
	Brand       string
	Price       string
	Category    domain.Category
	Description string
}

var products = []productSeed{
	{Name: "Oxford Shirt", Brand: "Harbor", Price: "1299.00", Category: domain.CategoryMale, Description: "Button-down cotton oxford"},
	{Name: "Slim Chinos", Brand: "Harbor", Price: "1599.00", Category: domain.CategoryMale, Description: "Stretch twill chinos"},
	{Name: "Wrap Dress", Brand: "Bloom", Price: "2199.50", Category: domain.CategoryFemale, Description: "Printed viscose wrap dress"},
	{Name: "Knit Cardigan", Brand: "Bloom", Price: "1799.00", Category: domain.CategoryFemale, Description: "Soft rib-knit cardigan"},
	{Name: "Dino Tee", Brand: "Sprout", Price: "499.00", Category: domain.CategoryKids, Description: "Glow-in-the-dark print tee"},
	{Name: "Rain Jacket", Brand: "Sprout", Price: "999.00", Category: domain.CategoryKids, Description: "Hooded waterproof jacket"},
}

// Apply inserts demo catalog data and a demo user. It is idempotent: products
// upsert on (name, brand) and an existing demo user is left alone.
func Apply(ctx context.Context, productRepo ProductWriter, userRepo UserWriter, logger *log.Logger) error {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	for _, p := range products {
		if err := upsertProduct(ctx, productRepo, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Name, err)
		}
	}
	logger.Printf("seed: products upserted count=%d", len(products))

	created, err := ensureDemoUser(ctx, userRepo)
	if err != nil {
		return fmt.Errorf("ensure demo user: %w", err)
	}
	if created {
		logger.Printf("seed: demo user created email=%s", DemoEmail)
	}
	return nil
}

func upsertProduct(ctx context.Context, repo ProductWriter, p productSeed) error {
	price, err := decimal.NewFromString(p.Price)
	if err != nil {
		return err
	}
	_, err = repo.Upsert(ctx, domain.Product{
		Name:        p.Name,
		Brand:       p.Brand,
		Price:       price,
		Image:       "https://picsum.photos/seed/" + string(p.Category) + "/400/400",
		Category:    p.Category,
		Description: p.Description,
	})
	return err
}

func ensureDemoUser(ctx context.Context, repo UserWriter) (bool, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	_, err = repo.Create(ctx, domain.User{
		Name:         "Demo Shopper",
		Email:        DemoEmail,
		Phone:        "9000000001",
		City:         "Pune",
		State:        "Maharashtra",
		District:     "Pune",
		Pincode:      "411001",
		Address:      "1 Demo Street",
		PasswordHash: string(hash),
	})
	if errors.Is(err, domain.ErrAlreadyExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
