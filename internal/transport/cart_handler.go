package transport

import (
	"net/http"

	"shopie/internal/middleware"
	"shopie/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AddToCartRequest represents the add-to-cart payload. Quantity defaults to 1.
type AddToCartRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  *int   `json:"quantity" validate:"omitempty,min=1"`
}

// UpdateCartItemRequest represents the new quantity for a cart line
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// CartCount is the body of GET /cart/count
type CartCount struct {
	Count int `json:"count"`
}

// CartHandler handles HTTP requests for the caller's cart
type CartHandler struct {
	cartService service.CartService
	logger      *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		logger:      logger,
	}
}

// RegisterRoutes registers all cart routes. Every route requires authentication.
func (h *CartHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/cart", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.Get)
		r.Get("/count", h.Count)
		r.Post("/add", h.Add)
		r.Put("/items/{itemId}", h.UpdateItem)
		r.Delete("/items/{itemId}", h.RemoveItem)
		r.Delete("/clear", h.Clear)
	})
}

// Get returns the caller's cart snapshot
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}

	cart, err := h.cartService.GetCartWithItems(r.Context(), userID)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithData(w, http.StatusOK, "Cart retrieved successfully", cart)
}

// Count returns the total quantity in the caller's cart
func (h *CartHandler) Count(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}

	count, err := h.cartService.CountItems(r.Context(), userID)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithData(w, http.StatusOK, "Cart count retrieved successfully", CartCount{Count: count})
}

// Add puts a product in the caller's cart
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req AddToCartRequest
	if !decode(w, r, h.logger, &req) {
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	cart, err := h.cartService.AddToCart(r.Context(), userID, uuid.MustParse(req.ProductID), quantity)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Item added to cart",
		zap.String("user_id", userID.String()),
		zap.String("product_id", req.ProductID),
		zap.Int("quantity", quantity),
	)
	middleware.RespondWithData(w, http.StatusOK, "Item added to cart successfully", cart)
}

// UpdateItem sets the quantity of one of the caller's cart lines
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	itemID, ok := pathID(w, r, "itemId")
	if !ok {
		return
	}

	var req UpdateCartItemRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	cart, err := h.cartService.UpdateCartItem(r.Context(), userID, itemID, req.Quantity)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Cart item updated", zap.String("user_id", userID.String()), zap.String("item_id", itemID.String()))
	middleware.RespondWithData(w, http.StatusOK, "Cart item updated successfully", cart)
}

// RemoveItem deletes one of the caller's cart lines
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}
	itemID, ok := pathID(w, r, "itemId")
	if !ok {
		return
	}

	cart, err := h.cartService.RemoveFromCart(r.Context(), userID, itemID)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Cart item removed", zap.String("user_id", userID.String()), zap.String("item_id", itemID.String()))
	middleware.RespondWithData(w, http.StatusOK, "Item removed from cart successfully", cart)
}

// Clear empties the caller's cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.logger)
	if !ok {
		return
	}

	cart, err := h.cartService.ClearCart(r.Context(), userID)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Cart cleared", zap.String("user_id", userID.String()))
	middleware.RespondWithData(w, http.StatusOK, "Cart cleared successfully", cart)
}
