// Package repotest provides in-memory repositories that honour the same
// contracts as the Postgres implementations, for service and handler tests.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"shopie/internal/domain"
	"shopie/internal/repository"

	"github.com/google/uuid"
)

// Store holds users, products and carts behind a single lock so the cart
// repository can join against products the way SQL does.
type Store struct {
	mu       sync.Mutex
	users    map[uuid.UUID]domain.User
	products map[uuid.UUID]domain.Product
	carts    map[uuid.UUID]domain.Cart
	items    map[uuid.UUID]domain.CartItem
	failure  error
}

func NewStore() *Store {
	return &Store{
		users:    make(map[uuid.UUID]domain.User),
		products: make(map[uuid.UUID]domain.Product),
		carts:    make(map[uuid.UUID]domain.Cart),
		items:    make(map[uuid.UUID]domain.CartItem),
	}
}

// Fail makes every subsequent call return err until Fail(nil).
func (s *Store) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failure = err
}

func (s *Store) Users() repository.UserRepository       { return &userRepo{s} }
func (s *Store) Products() repository.ProductRepository { return &productRepo{s} }
func (s *Store) Carts() repository.CartRepository       { return &cartRepo{s} }

func (s *Store) lock() error {
	s.mu.Lock()
	if s.failure != nil {
		err := s.failure
		s.mu.Unlock()
		return err
	}
	return nil
}

func paginate[T any](all []T, page domain.PageRequest) []T {
	start := page.Offset()
	if start >= len(all) {
		return []T{}
	}
	end := start + page.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, user *domain.User) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == user.Email {
			return repository.ErrUserAlreadyExists
		}
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r *userRepo) Update(_ context.Context, user *domain.User) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	for id, u := range r.s.users {
		if id != user.ID && u.Email == user.Email {
			return repository.ErrUserAlreadyExists
		}
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r *userRepo) Delete(_ context.Context, id uuid.UUID) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(r.s.users, id)
	for cartID, cart := range r.s.carts {
		if cart.UserID == id {
			delete(r.s.carts, cartID)
			for itemID, item := range r.s.items {
				if item.CartID == cartID {
					delete(r.s.items, itemID)
				}
			}
		}
	}
	return nil
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *userRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (r *userRepo) List(_ context.Context, filter repository.UserFilter) ([]*domain.User, int, error) {
	if err := r.s.lock(); err != nil {
		return nil, 0, err
	}
	defer r.s.mu.Unlock()

	search := strings.TrimSpace(filter.Search)
	matched := []*domain.User{}
	for _, u := range r.s.users {
		if search != "" && !containsFold(u.Email, search) && !containsFold(u.FirstName, search) && !containsFold(u.LastName, search) {
			continue
		}
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		matched = append(matched, &u)
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	return paginate(matched, filter.PageRequest), len(matched), nil
}

func (r *userRepo) Stats(_ context.Context, since time.Time) (*domain.UserStats, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	stats := &domain.UserStats{}
	for _, u := range r.s.users {
		stats.Total++
		switch u.Role {
		case domain.RoleAdmin:
			stats.Admins++
		case domain.RoleCustomer:
			stats.Customers++
		}
		if !u.CreatedAt.Before(since) {
			stats.RecentSignups++
		}
	}
	return stats, nil
}
