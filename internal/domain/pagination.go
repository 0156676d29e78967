package domain

import "math"

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	// maxOffset keeps OFFSET within a Postgres int4 so huge pages never overflow
	maxOffset = math.MaxInt32
)

// PageRequest carries the requested page and page size
type PageRequest struct {
	Page  int
	Limit int
}

// Normalize fills in defaults and rejects out-of-range values.
func (p PageRequest) Normalize() (PageRequest, error) {
	if p.Page == 0 {
		p.Page = DefaultPage
	}
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
	if p.Page < 1 {
		return p, ValidationError("page must not be less than 1")
	}
	if p.Limit < 1 || p.Limit > MaxLimit {
		return p, ValidationError("limit must be between 1 and %d", MaxLimit)
	}
	if p.Page-1 > maxOffset/p.Limit {
		return p, ValidationError("page must not be greater than %d", maxOffset/p.Limit+1)
	}
	return p, nil
}

// Offset is the number of rows to skip for this page.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Pagination describes where a page sits in the full result set
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// NewPagination computes page metadata for total matching rows.
func NewPagination(req PageRequest, total int) Pagination {
	totalPages := 0
	if req.Limit > 0 {
		totalPages = (total + req.Limit - 1) / req.Limit
	}
	return Pagination{
		Page:       req.Page,
		Limit:      req.Limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    req.Page < totalPages,
		HasPrev:    req.Page > 1,
	}
}
