package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// Prices travel as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product represents a product in the catalog
type Product struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	Name             string          `json:"name" db:"name"`
	ShortDescription string          `json:"shortDescription" db:"short_description"`
	Price            decimal.Decimal `json:"price" db:"price"`
	ImageURL         string          `json:"imageUrl" db:"image_url"`
	Stock            int             `json:"stock" db:"stock"`
	IsActive         bool            `json:"isActive" db:"is_active"`
	CreatedAt        time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time       `json:"updatedAt" db:"updated_at"`
}

// ProductStats summarises the catalog for the admin dashboard
type ProductStats struct {
	Total      int `json:"total"`
	Active     int `json:"active"`
	Inactive   int `json:"inactive"`
	InStock    int `json:"inStock"`
	OutOfStock int `json:"outOfStock"`
}

// ValidPrice reports whether p is non-negative with at most two decimal places.
func ValidPrice(p decimal.Decimal) bool {
	return !p.IsNegative() && p.Equal(p.Truncate(2))
}
