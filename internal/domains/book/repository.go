package book

import (
	"context"

	"github.com/google/uuid"

	"library-backend/internal/shared/pagination"
)

// Repository is the book data access contract. Every method takes the owner
// id and never sees another owner's rows. Methods join the transaction bound
// to ctx, if any.
type Repository interface {
	// ListAll returns every book of owner ordered by created_at, id.
	ListAll(ctx context.Context, ownerID uuid.UUID) ([]Book, error)

	// Page returns one page of owner's books matching filter, plus the total.
	Page(ctx context.Context, ownerID uuid.UUID, filter Filter, req pagination.PageRequest) ([]Book, int64, error)

	// FindByID returns ErrBookNotFound when absent or owned by someone else.
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*Book, error)

	// FindByIDForUpdate is FindByID plus a row lock held until the transaction ends.
	FindByIDForUpdate(ctx context.Context, ownerID, id uuid.UUID) (*Book, error)

	Create(ctx context.Context, book *Book) error

	// Update rewrites title, author, genre and updated_at.
	// Returns ErrBookNotFound when no row of owner matches.
	Update(ctx context.Context, book *Book) error

	UpdateStatus(ctx context.Context, ownerID, id uuid.UUID, status Status) error

	// Delete returns ErrBookReferenced when a loan still points at the book.
	Delete(ctx context.Context, ownerID, id uuid.UUID) error

	CountByStatus(ctx context.Context, ownerID uuid.UUID) (map[Status]int64, error)
}
