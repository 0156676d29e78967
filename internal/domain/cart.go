package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is the per-user collection of pending purchase intents
type Cart struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"userId" db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// CartItem pairs a product with a quantity inside a cart
type CartItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CartID    uuid.UUID `json:"cartId" db:"cart_id"`
	ProductID uuid.UUID `json:"productId" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	AddedAt   time.Time `json:"addedAt" db:"added_at"`
}

// CartLine is a cart item joined with the current state of its product
type CartLine struct {
	ID         uuid.UUID       `json:"id"`
	Quantity   int             `json:"quantity"`
	AddedAt    time.Time       `json:"addedAt"`
	Product    Product         `json:"product"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

// CartView is the full recomputed cart returned by every cart operation
type CartView struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"userId"`
	Items       []CartLine      `json:"items"`
	TotalItems  int             `json:"totalItems"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// NewCartView computes line and cart totals from the current product data.
func NewCartView(cart *Cart, lines []CartLine) *CartView {
	view := &CartView{
		ID:          cart.ID,
		UserID:      cart.UserID,
		Items:       make([]CartLine, 0, len(lines)),
		TotalAmount: decimal.Zero,
		CreatedAt:   cart.CreatedAt,
		UpdatedAt:   cart.UpdatedAt,
	}

	for _, line := range lines {
		line.TotalPrice = line.Product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		view.TotalItems += line.Quantity
		view.TotalAmount = view.TotalAmount.Add(line.TotalPrice)
		view.Items = append(view.Items, line)
	}

	return view
}
