package repotest

import (
	"context"
	"sort"
	"strings"
	"time"

	"shopie/internal/domain"
	"shopie/internal/repository"

	"github.com/google/uuid"
)

type productRepo struct{ s *Store }

func (r *productRepo) nameTaken(name string, self uuid.UUID) bool {
	for id, p := range r.s.products {
		if id != self && strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}

func (r *productRepo) Create(_ context.Context, product *domain.Product) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()

	if r.nameTaken(product.Name, product.ID) {
		return repository.ErrProductNameTaken
	}
	r.s.products[product.ID] = *product
	return nil
}

func (r *productRepo) Update(_ context.Context, product *domain.Product) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	if r.nameTaken(product.Name, product.ID) {
		return repository.ErrProductNameTaken
	}
	r.s.products[product.ID] = *product
	return nil
}

func (r *productRepo) Delete(_ context.Context, id uuid.UUID) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	for _, item := range r.s.items {
		if item.ProductID == id {
			return repository.ErrProductReferenced
		}
	}
	delete(r.s.products, id)
	return nil
}

func (r *productRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	p, ok := r.s.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return &p, nil
}

func (r *productRepo) FindByName(_ context.Context, name string, excludeID *uuid.UUID) (*domain.Product, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	for id, p := range r.s.products {
		if excludeID != nil && id == *excludeID {
			continue
		}
		if strings.EqualFold(p.Name, name) {
			return &p, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (r *productRepo) Search(_ context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	if err := r.s.lock(); err != nil {
		return nil, 0, err
	}
	defer r.s.mu.Unlock()

	search := strings.TrimSpace(filter.Search)
	matched := []*domain.Product{}
	for _, p := range r.s.products {
		if search != "" && !containsFold(p.Name, search) && !containsFold(p.ShortDescription, search) {
			continue
		}
		if filter.MinPrice != nil && p.Price.LessThan(*filter.MinPrice) {
			continue
		}
		if filter.MaxPrice != nil && p.Price.GreaterThan(*filter.MaxPrice) {
			continue
		}
		if filter.IsActive != nil && p.IsActive != *filter.IsActive {
			continue
		}
		if filter.InStockOnly && p.Stock <= 0 {
			continue
		}
		matched = append(matched, &p)
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	return paginate(matched, filter.PageRequest), len(matched), nil
}

func (r *productRepo) IsReferenced(_ context.Context, id uuid.UUID) (bool, error) {
	if err := r.s.lock(); err != nil {
		return false, err
	}
	defer r.s.mu.Unlock()

	for _, item := range r.s.items {
		if item.ProductID == id {
			return true, nil
		}
	}
	return false, nil
}

func (r *productRepo) Archive(_ context.Context, id uuid.UUID, at time.Time) (*domain.Product, error) {
	return r.mutate(id, func(p *domain.Product) error {
		p.IsActive = false
		p.UpdatedAt = at
		return nil
	})
}

func (r *productRepo) IncreaseStock(_ context.Context, id uuid.UUID, quantity int, at time.Time) (*domain.Product, error) {
	return r.mutate(id, func(p *domain.Product) error {
		p.Stock += quantity
		p.UpdatedAt = at
		return nil
	})
}

func (r *productRepo) DecreaseStock(_ context.Context, id uuid.UUID, quantity int, at time.Time) (*domain.Product, error) {
	return r.mutate(id, func(p *domain.Product) error {
		if p.Stock < quantity {
			return repository.ErrInsufficientStock
		}
		p.Stock -= quantity
		p.UpdatedAt = at
		return nil
	})
}

func (r *productRepo) mutate(id uuid.UUID, fn func(*domain.Product) error) (*domain.Product, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	p, ok := r.s.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	if err := fn(&p); err != nil {
		return nil, err
	}
	r.s.products[id] = p
	return &p, nil
}

func (r *productRepo) Stats(_ context.Context) (*domain.ProductStats, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	stats := &domain.ProductStats{}
	for _, p := range r.s.products {
		stats.Total++
		if p.IsActive {
			stats.Active++
		} else {
			stats.Inactive++
		}
		if p.Stock > 0 {
			stats.InStock++
		} else {
			stats.OutOfStock++
		}
	}
	return stats, nil
}
