// Package pagination carries page requests from the HTTP layer down to the
// stores and page results back up.
package pagination

import (
	"math"
	"strconv"
	"strings"

	"library-backend/internal/shared/apperror"
)

const (
	DefaultSize = 20
	MaxSize     = 100
)

var (
	ErrInvalidPage = apperror.BadRequest("INVALID_PAGE", "page must be a non-negative integer")
	ErrInvalidSize = apperror.BadRequest("INVALID_PAGE_SIZE", "size must be a positive integer")
	ErrInvalidSort = apperror.BadRequest("INVALID_SORT", "invalid sort parameter")
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

type Order struct {
	Field     string
	Direction Direction
}

// PageRequest is a zero based page of Size items ordered by Sort.
// Stores always append the entity id as final tiebreaker.
type PageRequest struct {
	Page int
	Size int
	Sort []Order
}

// NewPageRequest normalizes page and size: negative page becomes 0,
// size outside (0, MaxSize] falls back to DefaultSize or MaxSize, and page
// is capped so Offset never overflows.
func NewPageRequest(page, size int, sort ...Order) PageRequest {
	switch {
	case size <= 0:
		size = DefaultSize
	case size > MaxSize:
		size = MaxSize
	}
	switch {
	case page < 0:
		page = 0
	case page > maxPage(size):
		page = maxPage(size)
	}
	return PageRequest{Page: page, Size: size, Sort: sort}
}

func maxPage(size int) int {
	return math.MaxInt / size
}

func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// ValidateSort rejects orders on fields outside allowed.
func (p PageRequest) ValidateSort(allowed ...string) error {
	for _, o := range p.Sort {
		ok := false
		for _, a := range allowed {
			if o.Field == a {
				ok = true
				break
			}
		}
		if !ok {
			return ErrInvalidSort.WithMessage("unsupported sort field: " + o.Field)
		}
	}
	return nil
}

// Parse builds a PageRequest from query parameters.
// Empty page/size take defaults; sort values look like "title,desc" or "title".
func Parse(pageStr, sizeStr string, sorts []string) (PageRequest, error) {
	size := DefaultSize
	if sizeStr != "" {
		n, err := strconv.Atoi(sizeStr)
		if err != nil || n <= 0 {
			return PageRequest{}, ErrInvalidSize
		}
		size = min(n, MaxSize)
	}

	page := 0
	if pageStr != "" {
		n, err := strconv.Atoi(pageStr)
		if err != nil || n < 0 || n > maxPage(size) {
			return PageRequest{}, ErrInvalidPage
		}
		page = n
	}

	orders := make([]Order, 0, len(sorts))
	for _, raw := range sorts {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		parts := strings.Split(raw, ",")
		if len(parts) > 2 || strings.TrimSpace(parts[0]) == "" {
			return PageRequest{}, ErrInvalidSort.WithMessage("malformed sort parameter: " + raw)
		}
		order := Order{Field: strings.TrimSpace(parts[0]), Direction: Asc}
		if len(parts) == 2 {
			switch Direction(strings.ToLower(strings.TrimSpace(parts[1]))) {
			case Asc:
			case Desc:
				order.Direction = Desc
			default:
				return PageRequest{}, ErrInvalidSort.WithMessage("sort direction must be asc or desc")
			}
		}
		orders = append(orders, order)
	}

	return NewPageRequest(page, size, orders...), nil
}

// Page is one slice of a larger, owner scoped result set.
type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"total_elements"`
	TotalPages    int   `json:"total_pages"`
}

func NewPage[T any](content []T, req PageRequest, total int64) Page[T] {
	if content == nil {
		content = []T{}
	}
	totalPages := 0
	if req.Size > 0 {
		totalPages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return Page[T]{
		Content:       content,
		Page:          req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    totalPages,
	}
}

// Slice cuts the requested page out of an already ordered result set.
func Slice[T any](all []T, req PageRequest) Page[T] {
	total := int64(len(all))
	start := req.Offset()
	if start < 0 || start > len(all) {
		start = len(all)
	}
	end := start + req.Size
	if end > len(all) {
		end = len(all)
	}
	content := make([]T, end-start)
	copy(content, all[start:end])
	return NewPage(content, req, total)
}
