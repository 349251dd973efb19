package book

import (
	"context"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"library-backend/internal/shared/pagination"
)

// Service is the book business contract. Every operation acts on the
// caller's catalog only.
type Service interface {
	ListAll(ctx context.Context) ([]Book, error)
	List(ctx context.Context, req pagination.PageRequest) (pagination.Page[Book], error)
	GetByID(ctx context.Context, id uuid.UUID) (*Book, error)

	FindByTitle(ctx context.Context, title string, req pagination.PageRequest) (pagination.Page[Book], error)
	FindByAuthor(ctx context.Context, author string, req pagination.PageRequest) (pagination.Page[Book], error)
	FindByGenre(ctx context.Context, genre string, req pagination.PageRequest) (pagination.Page[Book], error)
	FindByStatus(ctx context.Context, status string, req pagination.PageRequest) (pagination.Page[Book], error)

	Save(ctx context.Context, req CreateBookRequest) (*Book, error)
	Update(ctx context.Context, req UpdateBookRequest) error
	Delete(ctx context.Context, id uuid.UUID) error

	Statistics(ctx context.Context) (*BooksStatistics, error)
	ExportExcel(ctx context.Context) (*excelize.File, error)
}
