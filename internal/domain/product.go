package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Category partitions the catalog.
type Category string

const (
	CategoryMale   Category = "male"
	CategoryFemale Category = "female"
	CategoryKids   Category = "kids"
)

// Categories lists every valid category in display order.
var Categories = []Category{CategoryMale, CategoryFemale, CategoryKids}

// ParseCategory accepts a category key, case-insensitively.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, true
		}
	}
	return "", false
}

// Product is a catalog item. Price is in major currency units.
type Product struct {
	ID          string          `json:"_id"`
	Name        string          `json:"name"`
	Brand       string          `json:"brand"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Category    Category        `json:"category"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"createdAt"`
}
