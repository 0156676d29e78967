package transport

import (
	"context"
	"fmt"
	"net/http"

	"shopie/internal/domain"
	"shopie/internal/middleware"
	"shopie/internal/repository"
	"shopie/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateProductRequest represents the product creation payload
type CreateProductRequest struct {
	Name             string           `json:"name" validate:"required,max=255"`
	ShortDescription string           `json:"shortDescription" validate:"required"`
	Price            *decimal.Decimal `json:"price" validate:"required"`
	ImageURL         string           `json:"imageUrl" validate:"required,url"`
	Stock            *int             `json:"stock" validate:"omitempty,min=0"`
	IsActive         *bool            `json:"isActive"`
}

// UpdateProductRequest represents a partial product update
type UpdateProductRequest struct {
	Name             *string          `json:"name" validate:"omitempty,min=1,max=255"`
	ShortDescription *string          `json:"shortDescription" validate:"omitempty,min=1"`
	Price            *decimal.Decimal `json:"price"`
	ImageURL         *string          `json:"imageUrl" validate:"omitempty,url"`
	Stock            *int             `json:"stock" validate:"omitempty,min=0"`
	IsActive         *bool            `json:"isActive"`
}

// StockRequest carries the quantity for a stock adjustment
type StockRequest struct {
	Quantity int `json:"quantity"`
}

// ProductHandler handles HTTP requests for the product catalog
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/products", func(r chi.Router) {
		// Public routes
		r.Get("/", h.List)
		r.Get("/in-stock", h.ListInStock)
		r.Get("/{id}", h.Get)

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(middleware.RequireAdmin(h.logger))
			r.Get("/stats", h.Stats)
			r.Post("/generate-sample-data", h.GenerateSampleData)
			r.Post("/", h.Create)
			r.Patch("/{id}", h.Update)
			r.Patch("/{id}/stock/increase", h.IncreaseStock)
			r.Patch("/{id}/stock/decrease", h.DecreaseStock)
			r.Delete("/{id}", h.Delete)
		})
	})
}

func productFilter(r *http.Request) (repository.ProductFilter, error) {
	q := newQueryParser(r)
	filter := repository.ProductFilter{
		Search:      q.str("search"),
		MinPrice:    q.amount("minPrice"),
		MaxPrice:    q.amount("maxPrice"),
		IsActive:    q.boolean("isActive"),
		PageRequest: q.page(),
	}
	return filter, q.err
}

// List handles catalog search
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := productFilter(r)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	products, page, err := h.productService.Search(r.Context(), filter)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithPaginated(w, "Products retrieved successfully", products, page)
}

// ListInStock handles search restricted to active products with stock
func (h *ProductHandler) ListInStock(w http.ResponseWriter, r *http.Request) {
	filter, err := productFilter(r)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	products, page, err := h.productService.FindInStock(r.Context(), filter)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithPaginated(w, "In-stock products retrieved successfully", products, page)
}

// Get handles fetching a single product
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	product, err := h.productService.GetByID(r.Context(), id)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithData(w, http.StatusOK, "Product retrieved successfully", product)
}

// Stats handles the catalog summary
func (h *ProductHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.productService.Stats(r.Context())
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithData(w, http.StatusOK, "Product statistics retrieved successfully", stats)
}

// GenerateSampleData seeds the sample catalog
func (h *ProductHandler) GenerateSampleData(w http.ResponseWriter, r *http.Request) {
	products, err := h.productService.GenerateSampleProducts(r.Context())
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Sample products generated", zap.Int("count", len(products)))
	middleware.RespondWithData(w, http.StatusCreated, fmt.Sprintf("%d sample products generated successfully", len(products)), products)
}

// Create handles product creation
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	product, err := h.productService.Create(r.Context(), service.CreateProductInput{
		Name:             req.Name,
		ShortDescription: req.ShortDescription,
		Price:            *req.Price,
		ImageURL:         req.ImageURL,
		Stock:            req.Stock,
		IsActive:         req.IsActive,
	})
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Product created successfully", zap.String("product_id", product.ID.String()))
	middleware.RespondWithData(w, http.StatusCreated, "Product created successfully", product)
}

// Update handles partial product updates
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateProductRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	product, err := h.productService.Update(r.Context(), id, service.ProductUpdate{
		Name:             req.Name,
		ShortDescription: req.ShortDescription,
		Price:            req.Price,
		ImageURL:         req.ImageURL,
		Stock:            req.Stock,
		IsActive:         req.IsActive,
	})
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Product updated successfully", zap.String("product_id", id.String()))
	middleware.RespondWithData(w, http.StatusOK, "Product updated successfully", product)
}

// IncreaseStock handles stock increments
func (h *ProductHandler) IncreaseStock(w http.ResponseWriter, r *http.Request) {
	h.adjustStock(w, r, h.productService.IncreaseStock, "increased")
}

// DecreaseStock handles stock decrements
func (h *ProductHandler) DecreaseStock(w http.ResponseWriter, r *http.Request) {
	h.adjustStock(w, r, h.productService.DecreaseStock, "decreased")
}

func (h *ProductHandler) adjustStock(
	w http.ResponseWriter,
	r *http.Request,
	adjust func(ctx context.Context, id uuid.UUID, quantity int) (*domain.Product, error),
	verb string,
) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req StockRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	product, err := adjust(r.Context(), id, req.Quantity)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Product stock "+verb,
		zap.String("product_id", id.String()),
		zap.Int("quantity", req.Quantity),
		zap.Int("stock", product.Stock),
	)
	middleware.RespondWithData(w, http.StatusOK, fmt.Sprintf("Product stock %s by %d", verb, req.Quantity), product)
}

// Delete archives a product still referenced by carts, otherwise removes it
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	result, err := h.productService.Remove(r.Context(), id)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	message := "Product deleted successfully"
	if result.Archived {
		message = "Product marked as inactive (was in use)"
	}
	h.logger.Info(message, zap.String("product_id", id.String()), zap.Bool("archived", result.Archived))
	middleware.RespondWithData(w, http.StatusOK, message, result.Product)
}
