package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"shopie/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrProductNameTaken  = errors.New("product with this name already exists")
	ErrInsufficientStock = errors.New("insufficient stock available")
	ErrProductReferenced = errors.New("product is referenced by a cart item")
)

const (
	productNameUniqueIndex = "products_name_lower_key"
	productSelectColumns   = `id, name, short_description, price, image_url, stock, is_active, created_at, updated_at`
)

// ProductFilter narrows catalog searches. Nil pointers mean "no constraint".
type ProductFilter struct {
	Search      string
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	IsActive    *bool
	InStockOnly bool
	domain.PageRequest
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	FindByName(ctx context.Context, name string, excludeID *uuid.UUID) (*domain.Product, error)
	Search(ctx context.Context, filter ProductFilter) ([]*domain.Product, int, error)
	IsReferenced(ctx context.Context, id uuid.UUID) (bool, error)
	Archive(ctx context.Context, id uuid.UUID, at time.Time) (*domain.Product, error)
	IncreaseStock(ctx context.Context, id uuid.UUID, quantity int, at time.Time) (*domain.Product, error)
	DecreaseStock(ctx context.Context, id uuid.UUID, quantity int, at time.Time) (*domain.Product, error)
	Stats(ctx context.Context) (*domain.ProductStats, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.ShortDescription,
		&product.Price,
		&product.ImageURL,
		&product.Stock,
		&product.IsActive,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	return product, err
}

// Create inserts a new product into the database using parameterized queries
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (id, name, short_description, price, image_url, stock, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.ShortDescription,
		product.Price,
		product.ImageURL,
		product.Stock,
		product.IsActive,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err, productNameUniqueIndex) {
			return ErrProductNameTaken
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update updates an existing product in the database using parameterized queries
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, short_description = $3, price = $4, image_url = $5,
		    stock = $6, is_active = $7, updated_at = $8
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.ShortDescription,
		product.Price,
		product.ImageURL,
		product.Stock,
		product.IsActive,
		product.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err, productNameUniqueIndex) {
			return ErrProductNameTaken
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	return expectOneRow(result, ErrProductNotFound)
}

// Delete removes a product from the database using parameterized queries
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err, "fk_cart_items_product") {
			return ErrProductReferenced
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}

	return expectOneRow(result, ErrProductNotFound)
}

// FindByID retrieves a product by ID using parameterized queries
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productSelectColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// FindByName looks a product up by case-insensitive name, skipping excludeID when set
func (r *productRepository) FindByName(ctx context.Context, name string, excludeID *uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productSelectColumns + ` FROM products WHERE LOWER(name) = LOWER($1)`
	args := []any{name}
	if excludeID != nil {
		query += ` AND id <> $2`
		args = append(args, *excludeID)
	}

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by name: %w", err)
	}

	return product, nil
}

func (f ProductFilter) where() (string, []any) {
	conditions := []string{}
	args := []any{}

	if search := strings.TrimSpace(f.Search); search != "" {
		args = append(args, containsPattern(search))
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			`(name ILIKE $%d ESCAPE '\' OR short_description ILIKE $%d ESCAPE '\')`, n, n))
	}
	if f.MinPrice != nil {
		args = append(args, *f.MinPrice)
		conditions = append(conditions, fmt.Sprintf("price >= $%d", len(args)))
	}
	if f.MaxPrice != nil {
		args = append(args, *f.MaxPrice)
		conditions = append(conditions, fmt.Sprintf("price <= $%d", len(args)))
	}
	if f.IsActive != nil {
		args = append(args, *f.IsActive)
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)))
	}
	if f.InStockOnly {
		conditions = append(conditions, "stock > 0")
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// Search returns one page of products matching the filter, newest first
func (r *productRepository) Search(ctx context.Context, filter ProductFilter) ([]*domain.Product, int, error) {
	whereClause, args := filter.where()

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM products %s", whereClause)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, productSelectColumns, whereClause, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating products: %w", err)
	}

	return products, total, nil
}

// IsReferenced reports whether any cart item points at the product
func (r *productRepository) IsReferenced(ctx context.Context, id uuid.UUID) (bool, error) {
	var referenced bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM cart_items WHERE product_id = $1)`, id,
	).Scan(&referenced)
	if err != nil {
		return false, fmt.Errorf("failed to check product references: %w", err)
	}
	return referenced, nil
}

// Archive marks a product inactive instead of deleting it
func (r *productRepository) Archive(ctx context.Context, id uuid.UUID, at time.Time) (*domain.Product, error) {
	query := `
		UPDATE products SET is_active = FALSE, updated_at = $2
		WHERE id = $1
		RETURNING ` + productSelectColumns

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id, at))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to archive product: %w", err)
	}
	return product, nil
}

// IncreaseStock adds quantity to the product's stock in a single statement
func (r *productRepository) IncreaseStock(ctx context.Context, id uuid.UUID, quantity int, at time.Time) (*domain.Product, error) {
	query := `
		UPDATE products SET stock = stock + $2, updated_at = $3
		WHERE id = $1
		RETURNING ` + productSelectColumns

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id, quantity, at))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to increase stock: %w", err)
	}
	return product, nil
}

// DecreaseStock subtracts quantity only while enough stock remains. When no
// row is updated the product is re-read to tell a missing product apart
// from a short one.
func (r *productRepository) DecreaseStock(ctx context.Context, id uuid.UUID, quantity int, at time.Time) (*domain.Product, error) {
	query := `
		UPDATE products SET stock = stock - $2, updated_at = $3
		WHERE id = $1 AND stock >= $2
		RETURNING ` + productSelectColumns

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id, quantity, at))
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to decrease stock: %w", err)
	}

	if _, err := r.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, ErrInsufficientStock
}

// Stats summarises the catalog in one pass
func (r *productRepository) Stats(ctx context.Context) (*domain.ProductStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_active),
			COUNT(*) FILTER (WHERE NOT is_active),
			COUNT(*) FILTER (WHERE stock > 0),
			COUNT(*) FILTER (WHERE stock = 0)
		FROM products
	`

	stats := &domain.ProductStats{}
	err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.Total,
		&stats.Active,
		&stats.Inactive,
		&stats.InStock,
		&stats.OutOfStock,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute product stats: %w", err)
	}

	return stats, nil
}
