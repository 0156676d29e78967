package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"shopie/internal/domain"
	"shopie/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateProductInput holds the fields of a new product. Nil Stock defaults
// to 0 and nil IsActive defaults to true.
type CreateProductInput struct {
	Name             string
	ShortDescription string
	Price            decimal.Decimal
	ImageURL         string
	Stock            *int
	IsActive         *bool
}

// ProductUpdate is a partial update. Nil fields are left unchanged.
type ProductUpdate struct {
	Name             *string
	ShortDescription *string
	Price            *decimal.Decimal
	ImageURL         *string
	Stock            *int
	IsActive         *bool
}

// RemoveResult reports what Remove did to the product
type RemoveResult struct {
	Product  *domain.Product
	Archived bool
}

// ProductService defines the interface for catalog business logic
type ProductService interface {
	Create(ctx context.Context, in CreateProductInput) (*domain.Product, error)
	Search(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, domain.Pagination, error)
	FindInStock(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, domain.Pagination, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Update(ctx context.Context, id uuid.UUID, in ProductUpdate) (*domain.Product, error)
	ArchiveIfReferenced(ctx context.Context, id uuid.UUID) (*domain.Product, bool, error)
	Remove(ctx context.Context, id uuid.UUID) (*RemoveResult, error)
	IncreaseStock(ctx context.Context, id uuid.UUID, quantity int) (*domain.Product, error)
	DecreaseStock(ctx context.Context, id uuid.UUID, quantity int) (*domain.Product, error)
	Stats(ctx context.Context) (*domain.ProductStats, error)
	GenerateSampleProducts(ctx context.Context) ([]*domain.Product, error)
}

type productService struct {
	products repository.ProductRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewProductService creates a new instance of ProductService
func NewProductService(products repository.ProductRepository, logger *zap.Logger) ProductService {
	return &productService{
		products: products,
		logger:   logger,
		now:      time.Now,
	}
}

func productNotFound(id uuid.UUID) error {
	return domain.NotFoundError("Product with ID %s not found", id)
}

func validatePrice(price decimal.Decimal) error {
	if !domain.ValidPrice(price) {
		return domain.ValidationError("price must be a non-negative number with at most 2 decimal places")
	}
	return nil
}

func validateStock(stock int) error {
	if stock < 0 {
		return domain.ValidationError("stock must not be less than 0")
	}
	return nil
}

// Create adds a product to the catalog; names are unique ignoring case
func (s *productService) Create(ctx context.Context, in CreateProductInput) (*domain.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.ValidationError("name should not be empty")
	}
	if err := validatePrice(in.Price); err != nil {
		return nil, err
	}

	product := &domain.Product{
		ID:               uuid.New(),
		Name:             name,
		ShortDescription: in.ShortDescription,
		Price:            in.Price,
		ImageURL:         in.ImageURL,
		Stock:            0,
		IsActive:         true,
	}
	if in.Stock != nil {
		if err := validateStock(*in.Stock); err != nil {
			return nil, err
		}
		product.Stock = *in.Stock
	}
	if in.IsActive != nil {
		product.IsActive = *in.IsActive
	}

	if _, err := s.products.FindByName(ctx, name, nil); err == nil {
		return nil, domain.ConflictError("Product with this name already exists")
	} else if !errors.Is(err, repository.ErrProductNotFound) {
		return nil, domain.InternalError("failed to create product", err)
	}

	now := s.now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	if err := s.products.Create(ctx, product); err != nil {
		if errors.Is(err, repository.ErrProductNameTaken) {
			return nil, domain.ConflictError("Product with this name already exists")
		}
		return nil, domain.InternalError("failed to create product", err)
	}

	return product, nil
}

func (s *productService) search(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, domain.Pagination, error) {
	page, err := filter.PageRequest.Normalize()
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	filter.PageRequest = page

	if filter.MinPrice != nil && filter.MinPrice.IsNegative() {
		return nil, domain.Pagination{}, domain.ValidationError("minPrice must not be less than 0")
	}
	if filter.MaxPrice != nil && filter.MaxPrice.IsNegative() {
		return nil, domain.Pagination{}, domain.ValidationError("maxPrice must not be less than 0")
	}

	products, total, err := s.products.Search(ctx, filter)
	if err != nil {
		return nil, domain.Pagination{}, domain.InternalError("failed to fetch products", err)
	}
	return products, domain.NewPagination(page, total), nil
}

// Search returns a page of products matching the filter, newest first
func (s *productService) Search(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, domain.Pagination, error) {
	return s.search(ctx, filter)
}

// FindInStock is Search restricted to active products with stock left
func (s *productService) FindInStock(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, domain.Pagination, error) {
	active := true
	filter.IsActive = &active
	filter.InStockOnly = true
	return s.search(ctx, filter)
}

func (s *productService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, productNotFound(id)
		}
		return nil, domain.InternalError("failed to fetch product", err)
	}
	return product, nil
}

// Update applies a partial update, rejecting renames onto another product's name
func (s *productService) Update(ctx context.Context, id uuid.UUID, in ProductUpdate) (*domain.Product, error) {
	product, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.ValidationError("name should not be empty")
		}
		if !strings.EqualFold(name, product.Name) {
			if _, err := s.products.FindByName(ctx, name, &id); err == nil {
				return nil, domain.ConflictError("Product with this name already exists")
			} else if !errors.Is(err, repository.ErrProductNotFound) {
				return nil, domain.InternalError("failed to update product", err)
			}
		}
		product.Name = name
	}
	if in.ShortDescription != nil {
		product.ShortDescription = *in.ShortDescription
	}
	if in.Price != nil {
		if err := validatePrice(*in.Price); err != nil {
			return nil, err
		}
		product.Price = *in.Price
	}
	if in.ImageURL != nil {
		product.ImageURL = *in.ImageURL
	}
	if in.Stock != nil {
		if err := validateStock(*in.Stock); err != nil {
			return nil, err
		}
		product.Stock = *in.Stock
	}
	if in.IsActive != nil {
		product.IsActive = *in.IsActive
	}
	product.UpdatedAt = s.now().UTC()

	if err := s.products.Update(ctx, product); err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNameTaken):
			return nil, domain.ConflictError("Product with this name already exists")
		case errors.Is(err, repository.ErrProductNotFound):
			return nil, productNotFound(id)
		}
		return nil, domain.InternalError("failed to update product", err)
	}

	return product, nil
}

// ArchiveIfReferenced marks the product inactive when a cart item still
// points at it. The returned flag reports whether that happened.
func (s *productService) ArchiveIfReferenced(ctx context.Context, id uuid.UUID) (*domain.Product, bool, error) {
	product, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}

	referenced, err := s.products.IsReferenced(ctx, id)
	if err != nil {
		return nil, false, domain.InternalError("failed to delete product", err)
	}
	if !referenced {
		return product, false, nil
	}

	archived, err := s.archive(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return archived, true, nil
}

func (s *productService) archive(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	archived, err := s.products.Archive(ctx, id, s.now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, productNotFound(id)
		}
		return nil, domain.InternalError("failed to delete product", err)
	}

	s.logger.Info("Product archived instead of deleted", zap.String("product_id", id.String()))
	return archived, nil
}

// Remove archives a referenced product and deletes an unreferenced one
func (s *productService) Remove(ctx context.Context, id uuid.UUID) (*RemoveResult, error) {
	product, archived, err := s.ArchiveIfReferenced(ctx, id)
	if err != nil {
		return nil, err
	}
	if archived {
		return &RemoveResult{Product: product, Archived: true}, nil
	}

	err = s.products.Delete(ctx, id)
	switch {
	case errors.Is(err, repository.ErrProductReferenced):
		// Added to a cart after the reference check
		archived, err := s.archive(ctx, id)
		if err != nil {
			return nil, err
		}
		return &RemoveResult{Product: archived, Archived: true}, nil
	case errors.Is(err, repository.ErrProductNotFound):
		return nil, productNotFound(id)
	case err != nil:
		return nil, domain.InternalError("failed to delete product", err)
	}

	return &RemoveResult{Product: product, Archived: false}, nil
}

// IncreaseStock adds quantity to the product's stock
func (s *productService) IncreaseStock(ctx context.Context, id uuid.UUID, quantity int) (*domain.Product, error) {
	if quantity <= 0 {
		return nil, domain.ValidationError("Quantity must be greater than 0")
	}

	product, err := s.products.IncreaseStock(ctx, id, quantity, s.now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, productNotFound(id)
		}
		return nil, domain.InternalError("failed to increase product stock", err)
	}
	return product, nil
}

// DecreaseStock removes quantity from the product's stock. The check and the
// write happen in one conditional update, so concurrent callers cannot drive
// stock below zero.
func (s *productService) DecreaseStock(ctx context.Context, id uuid.UUID, quantity int) (*domain.Product, error) {
	if quantity <= 0 {
		return nil, domain.ValidationError("Quantity must be greater than 0")
	}

	product, err := s.products.DecreaseStock(ctx, id, quantity, s.now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			return nil, productNotFound(id)
		case errors.Is(err, repository.ErrInsufficientStock):
			return nil, domain.ValidationError("Insufficient stock available")
		}
		return nil, domain.InternalError("failed to decrease product stock", err)
	}
	return product, nil
}

func (s *productService) Stats(ctx context.Context) (*domain.ProductStats, error) {
	stats, err := s.products.Stats(ctx)
	if err != nil {
		return nil, domain.InternalError("failed to fetch product statistics", err)
	}
	return stats, nil
}

// GenerateSampleProducts seeds the demo catalog, skipping names that already
// exist. Individual failures are logged and skipped.
func (s *productService) GenerateSampleProducts(ctx context.Context) ([]*domain.Product, error) {
	created := []*domain.Product{}
	for _, sample := range sampleCatalog {
		product, err := s.Create(ctx, sample.input())
		if err != nil {
			if errors.Is(err, domain.ErrConflict) {
				continue
			}
			s.logger.Warn("Failed to create sample product", zap.String("name", sample.name), zap.Error(err))
			continue
		}
		created = append(created, product)
	}

	s.logger.Info("Sample products generated", zap.Int("count", len(created)))
	return created, nil
}
