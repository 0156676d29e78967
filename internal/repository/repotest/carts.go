package repotest

import (
	"context"
	"sort"
	"time"

	"shopie/internal/domain"
	"shopie/internal/repository"

	"github.com/google/uuid"
)

type cartRepo struct{ s *Store }

func (r *cartRepo) findByUser(userID uuid.UUID) (domain.Cart, bool) {
	for _, c := range r.s.carts {
		if c.UserID == userID {
			return c, true
		}
	}
	return domain.Cart{}, false
}

func (r *cartRepo) FindByUserID(_ context.Context, userID uuid.UUID) (*domain.Cart, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	c, ok := r.findByUser(userID)
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	return &c, nil
}

func (r *cartRepo) GetOrCreate(_ context.Context, cart *domain.Cart) (*domain.Cart, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	if c, ok := r.findByUser(cart.UserID); ok {
		return &c, nil
	}
	r.s.carts[cart.ID] = *cart
	c := *cart
	return &c, nil
}

func (r *cartRepo) Touch(_ context.Context, cartID uuid.UUID, at time.Time) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()

	c, ok := r.s.carts[cartID]
	if !ok {
		return repository.ErrCartNotFound
	}
	c.UpdatedAt = at
	r.s.carts[cartID] = c
	return nil
}

func (r *cartRepo) ListLines(_ context.Context, cartID uuid.UUID) ([]domain.CartLine, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	lines := []domain.CartLine{}
	for _, item := range r.s.items {
		if item.CartID != cartID {
			continue
		}
		lines = append(lines, domain.CartLine{
			ID:       item.ID,
			Quantity: item.Quantity,
			AddedAt:  item.AddedAt,
			Product:  r.s.products[item.ProductID],
		})
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].AddedAt.After(lines[j].AddedAt) })
	return lines, nil
}

func (r *cartRepo) FindItem(_ context.Context, cartID, itemID uuid.UUID) (*domain.CartItem, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	item, ok := r.s.items[itemID]
	if !ok || item.CartID != cartID {
		return nil, repository.ErrCartItemNotFound
	}
	return &item, nil
}

func (r *cartRepo) FindItemByProduct(_ context.Context, cartID, productID uuid.UUID) (*domain.CartItem, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	for _, item := range r.s.items {
		if item.CartID == cartID && item.ProductID == productID {
			return &item, nil
		}
	}
	return nil, repository.ErrCartItemNotFound
}

func (r *cartRepo) AddItem(_ context.Context, item *domain.CartItem) (*domain.CartItem, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	for id, existing := range r.s.items {
		if existing.CartID == item.CartID && existing.ProductID == item.ProductID {
			existing.Quantity += item.Quantity
			r.s.items[id] = existing
			return &existing, nil
		}
	}
	r.s.items[item.ID] = *item
	stored := *item
	return &stored, nil
}

func (r *cartRepo) UpdateItemQuantity(_ context.Context, itemID uuid.UUID, quantity int) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()

	item, ok := r.s.items[itemID]
	if !ok {
		return repository.ErrCartItemNotFound
	}
	item.Quantity = quantity
	r.s.items[itemID] = item
	return nil
}

func (r *cartRepo) DeleteItem(_ context.Context, itemID uuid.UUID) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()

	if _, ok := r.s.items[itemID]; !ok {
		return repository.ErrCartItemNotFound
	}
	delete(r.s.items, itemID)
	return nil
}

func (r *cartRepo) ClearItems(_ context.Context, cartID uuid.UUID) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()

	for id, item := range r.s.items {
		if item.CartID == cartID {
			delete(r.s.items, id)
		}
	}
	return nil
}

func (r *cartRepo) CountQuantity(_ context.Context, userID uuid.UUID) (int, error) {
	if err := r.s.lock(); err != nil {
		return 0, err
	}
	defer r.s.mu.Unlock()

	c, ok := r.findByUser(userID)
	if !ok {
		return 0, nil
	}
	count := 0
	for _, item := range r.s.items {
		if item.CartID == c.ID {
			count += item.Quantity
		}
	}
	return count, nil
}
