package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// Cart totals equal the sum of quantities and of price × quantity
func TestProperty_CartTotalsAreSums(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("totalItems and totalAmount are sums over lines", prop.ForAll(
		func(cents []int64, quantities []int) bool {
			n := len(cents)
			if len(quantities) < n {
				n = len(quantities)
			}

			cart := &Cart{ID: uuid.New(), UserID: uuid.New(), CreatedAt: time.Now(), UpdatedAt: time.Now()}
			lines := make([]CartLine, 0, n)
			wantItems := 0
			wantAmount := decimal.Zero
			for i := 0; i < n; i++ {
				price := decimal.New(cents[i], -2)
				lines = append(lines, CartLine{
					ID:       uuid.New(),
					Quantity: quantities[i],
					Product:  Product{ID: uuid.New(), Price: price},
				})
				wantItems += quantities[i]
				wantAmount = wantAmount.Add(price.Mul(decimal.NewFromInt(int64(quantities[i]))))
			}

			view := NewCartView(cart, lines)

			return view.TotalItems == wantItems &&
				view.TotalAmount.Equal(wantAmount) &&
				len(view.Items) == n
		},
		gen.SliceOf(gen.Int64Range(0, 999999)),
		gen.SliceOf(gen.IntRange(1, 50)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestCartViewLineTotals(t *testing.T) {
	cart := &Cart{ID: uuid.New(), UserID: uuid.New()}
	widget := Product{ID: uuid.New(), Name: "Widget", Price: decimal.RequireFromString("9.99"), Stock: 5}

	view := NewCartView(cart, []CartLine{{ID: uuid.New(), Quantity: 3, Product: widget}})

	assert.Equal(t, 3, view.TotalItems)
	assert.True(t, view.TotalAmount.Equal(decimal.RequireFromString("29.97")), view.TotalAmount.String())
	assert.True(t, view.Items[0].TotalPrice.Equal(decimal.RequireFromString("29.97")))
}

func TestEmptyCartView(t *testing.T) {
	view := NewCartView(&Cart{ID: uuid.New()}, nil)

	assert.NotNil(t, view.Items)
	assert.Equal(t, 0, view.TotalItems)
	assert.True(t, view.TotalAmount.IsZero())
}

func TestValidPrice(t *testing.T) {
	assert.True(t, ValidPrice(decimal.RequireFromString("9.99")))
	assert.True(t, ValidPrice(decimal.RequireFromString("0")))
	assert.True(t, ValidPrice(decimal.RequireFromString("10.5")))
	assert.False(t, ValidPrice(decimal.RequireFromString("9.999")))
	assert.False(t, ValidPrice(decimal.RequireFromString("-1")))
}

func TestPagination(t *testing.T) {
	req, err := PageRequest{}.Normalize()
	assert.NoError(t, err)
	assert.Equal(t, PageRequest{Page: 1, Limit: 10}, req)

	p := NewPagination(PageRequest{Page: 2, Limit: 10}, 25)
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasNext)
	assert.True(t, p.HasPrev)

	p = NewPagination(PageRequest{Page: 1, Limit: 10}, 0)
	assert.Equal(t, 0, p.TotalPages)
	assert.False(t, p.HasNext)
	assert.False(t, p.HasPrev)

	_, err = PageRequest{Page: 1, Limit: 101}.Normalize()
	assert.ErrorIs(t, err, ErrValidation)
}
