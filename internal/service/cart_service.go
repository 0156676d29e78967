package service

import (
	"context"
	"errors"
	"time"

	"shopie/internal/domain"
	"shopie/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CartService defines the interface for shopping cart business logic.
// Every mutation returns the full recomputed cart.
type CartService interface {
	GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
	GetCartWithItems(ctx context.Context, userID uuid.UUID) (*domain.CartView, error)
	AddToCart(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartView, error)
	UpdateCartItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*domain.CartView, error)
	RemoveFromCart(ctx context.Context, userID, itemID uuid.UUID) (*domain.CartView, error)
	ClearCart(ctx context.Context, userID uuid.UUID) (*domain.CartView, error)
	CountItems(ctx context.Context, userID uuid.UUID) (int, error)
}

type cartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewCartService creates a new instance of CartService
func NewCartService(carts repository.CartRepository, products repository.ProductRepository, logger *zap.Logger) CartService {
	return &cartService{
		carts:    carts,
		products: products,
		logger:   logger,
		now:      time.Now,
	}
}

func insufficientStock(stock int) error {
	return domain.ValidationError("Only %d items available in stock", stock)
}

func validateQuantity(quantity int) error {
	if quantity < 1 {
		return domain.ValidationError("quantity must not be less than 1")
	}
	return nil
}

// GetOrCreateCart returns the user's cart, creating it on first access
func (s *cartService) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	now := s.now().UTC()
	cart, err := s.carts.GetOrCreate(ctx, &domain.Cart{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		// The token outlived its account
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domain.UnauthorizedError("User not found")
		}
		return nil, domain.InternalError("failed to load cart", err)
	}
	return cart, nil
}

// GetCartWithItems returns the cart joined with current product data and totals
func (s *cartService) GetCartWithItems(ctx context.Context, userID uuid.UUID) (*domain.CartView, error) {
	if _, err := s.GetOrCreateCart(ctx, userID); err != nil {
		return nil, err
	}
	return s.view(ctx, userID)
}

// view re-reads the cart so the snapshot carries the latest updated_at
func (s *cartService) view(ctx context.Context, userID uuid.UUID) (*domain.CartView, error) {
	cart, err := s.carts.FindByUserID(ctx, userID)
	if err != nil {
		return nil, domain.InternalError("failed to load cart", err)
	}
	lines, err := s.carts.ListLines(ctx, cart.ID)
	if err != nil {
		return nil, domain.InternalError("failed to load cart items", err)
	}
	return domain.NewCartView(cart, lines), nil
}

func (s *cartService) touch(ctx context.Context, cartID uuid.UUID) error {
	if err := s.carts.Touch(ctx, cartID, s.now().UTC()); err != nil {
		return domain.InternalError("failed to update cart", err)
	}
	return nil
}

// AddToCart adds quantity of a product, merging with an existing line.
// The requested and the cumulative quantity must both fit in current stock.
func (s *cartService) AddToCart(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartView, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, domain.NotFoundError("Product not found")
		}
		return nil, domain.InternalError("failed to load product", err)
	}
	if !product.IsActive {
		return nil, domain.ValidationError("Product is not available")
	}
	if quantity > product.Stock {
		return nil, insufficientStock(product.Stock)
	}

	cart, err := s.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	existing, err := s.carts.FindItemByProduct(ctx, cart.ID, productID)
	switch {
	case err == nil:
		if existing.Quantity+quantity > product.Stock {
			return nil, insufficientStock(product.Stock)
		}
	case !errors.Is(err, repository.ErrCartItemNotFound):
		return nil, domain.InternalError("failed to load cart item", err)
	}

	_, err = s.carts.AddItem(ctx, &domain.CartItem{
		ID:        uuid.New(),
		CartID:    cart.ID,
		ProductID: productID,
		Quantity:  quantity,
		AddedAt:   s.now().UTC(),
	})
	if err != nil {
		return nil, domain.InternalError("failed to add item to cart", err)
	}
	if err := s.touch(ctx, cart.ID); err != nil {
		return nil, err
	}

	s.logger.Info("Product added to cart",
		zap.String("user_id", userID.String()),
		zap.String("product_id", productID.String()),
		zap.Int("quantity", quantity),
	)
	return s.view(ctx, userID)
}

// UpdateCartItem sets the quantity of one of the user's cart lines
func (s *cartService) UpdateCartItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*domain.CartView, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}

	cart, item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, item.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, domain.NotFoundError("Product not found")
		}
		return nil, domain.InternalError("failed to load product", err)
	}
	if quantity > product.Stock {
		return nil, insufficientStock(product.Stock)
	}

	if err := s.carts.UpdateItemQuantity(ctx, item.ID, quantity); err != nil {
		if errors.Is(err, repository.ErrCartItemNotFound) {
			return nil, domain.NotFoundError("Cart item not found")
		}
		return nil, domain.InternalError("failed to update cart item", err)
	}
	if err := s.touch(ctx, cart.ID); err != nil {
		return nil, err
	}

	return s.view(ctx, userID)
}

// RemoveFromCart deletes one of the user's cart lines
func (s *cartService) RemoveFromCart(ctx context.Context, userID, itemID uuid.UUID) (*domain.CartView, error) {
	cart, item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	if err := s.carts.DeleteItem(ctx, item.ID); err != nil {
		if errors.Is(err, repository.ErrCartItemNotFound) {
			return nil, domain.NotFoundError("Cart item not found")
		}
		return nil, domain.InternalError("failed to remove cart item", err)
	}
	if err := s.touch(ctx, cart.ID); err != nil {
		return nil, err
	}

	return s.view(ctx, userID)
}

// ClearCart empties the user's cart. A user without a cart is left without one.
func (s *cartService) ClearCart(ctx context.Context, userID uuid.UUID) (*domain.CartView, error) {
	cart, err := s.carts.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			now := s.now().UTC()
			return domain.NewCartView(&domain.Cart{UserID: userID, CreatedAt: now, UpdatedAt: now}, nil), nil
		}
		return nil, domain.InternalError("failed to load cart", err)
	}

	if err := s.carts.ClearItems(ctx, cart.ID); err != nil {
		return nil, domain.InternalError("failed to clear cart", err)
	}
	if err := s.touch(ctx, cart.ID); err != nil {
		return nil, err
	}

	return s.view(ctx, userID)
}

// CountItems sums item quantities in the user's cart
func (s *cartService) CountItems(ctx context.Context, userID uuid.UUID) (int, error) {
	count, err := s.carts.CountQuantity(ctx, userID)
	if err != nil {
		return 0, domain.InternalError("failed to count cart items", err)
	}
	return count, nil
}

// ownedItem loads an item only if it sits in userID's cart
func (s *cartService) ownedItem(ctx context.Context, userID, itemID uuid.UUID) (*domain.Cart, *domain.CartItem, error) {
	cart, err := s.carts.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return nil, nil, domain.NotFoundError("Cart item not found")
		}
		return nil, nil, domain.InternalError("failed to load cart", err)
	}

	item, err := s.carts.FindItem(ctx, cart.ID, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrCartItemNotFound) {
			return nil, nil, domain.NotFoundError("Cart item not found")
		}
		return nil, nil, domain.InternalError("failed to load cart item", err)
	}
	return cart, item, nil
}
