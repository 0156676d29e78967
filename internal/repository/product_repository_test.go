package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"shopie/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productRowColumns = []string{
	"id", "name", "short_description", "price", "image_url", "stock", "is_active", "created_at", "updated_at",
}

func productRow(id uuid.UUID, name, price string, stock int, active bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(productRowColumns).AddRow(id.String(), name, "", price, "", stock, active, now, now)
}

func TestProductRepository_CreateNameClash(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO products")).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "products_name_lower_key"})

	err := repo.Create(context.Background(), &domain.Product{ID: uuid.New(), Name: "Widget", Price: decimal.RequireFromString("9.99")})
	assert.ErrorIs(t, err, ErrProductNameTaken)
}

func TestProductRepository_FindByIDScansDecimal(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("FROM products WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(productRow(id, "Widget", "9.99", 5, true))

	product, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Widget", product.Name)
	assert.True(t, product.Price.Equal(decimal.RequireFromString("9.99")))
	assert.Equal(t, 5, product.Stock)
}

func TestProductRepository_FindByNameExcludesSelf(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)
	self := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE LOWER(name) = LOWER($1) AND id <> $2")).
		WithArgs("widget", self).
		WillReturnRows(sqlmock.NewRows(productRowColumns))

	_, err := repo.FindByName(context.Background(), "widget", &self)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductRepository_SearchBuildsFilters(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)
	minPrice := decimal.RequireFromString("10")
	maxPrice := decimal.RequireFromString("100")
	active := true

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COUNT(*) FROM products WHERE (name ILIKE $1 ESCAPE '\\' OR short_description ILIKE $1 ESCAPE '\\') AND price >= $2 AND price <= $3 AND is_active = $4 AND stock > 0")).
		WithArgs("%phone%", "10", "100", true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC")).
		WithArgs("%phone%", "10", "100", true, 20, 0).
		WillReturnRows(productRow(uuid.New(), "Phone", "49.50", 3, true))

	products, total, err := repo.Search(context.Background(), ProductFilter{
		Search:      "phone",
		MinPrice:    &minPrice,
		MaxPrice:    &maxPrice,
		IsActive:    &active,
		InStockOnly: true,
		PageRequest: domain.PageRequest{Page: 1, Limit: 20},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, products, 1)
	assert.Equal(t, "Phone", products[0].Name)
}

func TestProductRepository_SearchWithoutFilters(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)

	mock.ExpectQuery(`^SELECT COUNT\(\*\) FROM products$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("LIMIT $1 OFFSET $2")).
		WithArgs(10, 0).
		WillReturnRows(sqlmock.NewRows(productRowColumns))

	products, total, err := repo.Search(context.Background(), ProductFilter{PageRequest: domain.PageRequest{Page: 1, Limit: 10}})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, products)
}

func TestProductRepository_SearchMatchesWildcardsLiterally(t *testing.T) {
	tests := []struct {
		search  string
		pattern string
	}{
		{"_", `%\_%`},
		{"50%", `%50\%%`},
		{`C:\tmp`, `%C:\\tmp%`},
	}

	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewProductRepository(db)

			mock.ExpectQuery(regexp.QuoteMeta("WHERE (name ILIKE $1 ESCAPE '\\' OR short_description ILIKE $1 ESCAPE '\\')")).
				WithArgs(tt.pattern).
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
			mock.ExpectQuery(regexp.QuoteMeta("LIMIT $2 OFFSET $3")).
				WithArgs(tt.pattern, 10, 0).
				WillReturnRows(sqlmock.NewRows(productRowColumns))

			_, _, err := repo.Search(context.Background(), ProductFilter{
				Search:      tt.search,
				PageRequest: domain.PageRequest{Page: 1, Limit: 10},
			})
			require.NoError(t, err)
		})
	}
}

func TestProductRepository_DeleteReferencedProduct(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM products WHERE id = $1")).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "fk_cart_items_product"})

	assert.ErrorIs(t, repo.Delete(context.Background(), uuid.New()), ErrProductReferenced)
}

func TestProductRepository_IsReferenced(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM cart_items WHERE product_id = $1)")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	referenced, err := repo.IsReferenced(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, referenced)
}

func TestProductRepository_DecreaseStock(t *testing.T) {
	id := uuid.New()
	at := time.Now()

	t.Run("enough stock", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewProductRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("SET stock = stock - $2, updated_at = $3\n\t\tWHERE id = $1 AND stock >= $2")).
			WithArgs(id, 3, at).
			WillReturnRows(productRow(id, "Widget", "9.99", 2, true))

		product, err := repo.DecreaseStock(context.Background(), id, 3, at)
		require.NoError(t, err)
		assert.Equal(t, 2, product.Stock)
	})

	t.Run("insufficient stock", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewProductRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("SET stock = stock - $2")).
			WithArgs(id, 10, at).
			WillReturnRows(sqlmock.NewRows(productRowColumns))
		mock.ExpectQuery(regexp.QuoteMeta("FROM products WHERE id = $1")).
			WithArgs(id).
			WillReturnRows(productRow(id, "Widget", "9.99", 2, true))

		_, err := repo.DecreaseStock(context.Background(), id, 10, at)
		assert.ErrorIs(t, err, ErrInsufficientStock)
	})

	t.Run("missing product", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewProductRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("SET stock = stock - $2")).
			WillReturnRows(sqlmock.NewRows(productRowColumns))
		mock.ExpectQuery(regexp.QuoteMeta("FROM products WHERE id = $1")).
			WillReturnRows(sqlmock.NewRows(productRowColumns))

		_, err := repo.DecreaseStock(context.Background(), id, 1, at)
		assert.ErrorIs(t, err, ErrProductNotFound)
	})
}

func TestProductRepository_ArchiveReturnsInactiveProduct(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE products SET is_active = FALSE")).
		WithArgs(id, sqlmock.AnyArg()).
		WillReturnRows(productRow(id, "Widget", "9.99", 2, false))

	product, err := repo.Archive(context.Background(), id, time.Now())
	require.NoError(t, err)
	assert.False(t, product.IsActive)
}

func TestProductRepository_Stats(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FILTER (WHERE stock = 0)")).
		WillReturnRows(sqlmock.NewRows([]string{"a", "b", "c", "d", "e"}).AddRow(10, 8, 2, 7, 3))

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &domain.ProductStats{Total: 10, Active: 8, Inactive: 2, InStock: 7, OutOfStock: 3}, stats)
}
