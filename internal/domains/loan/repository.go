package loan

import (
	"context"

	"github.com/google/uuid"

	"library-backend/internal/shared/pagination"
)

// Repository is the loan data access contract, owner scoped like
// book.Repository.
type Repository interface {
	ListAll(ctx context.Context, ownerID uuid.UUID) ([]Loan, error)

	// Page returns one page of owner's loans; activeOnly keeps loans
	// without a return date.
	Page(ctx context.Context, ownerID uuid.UUID, activeOnly bool, req pagination.PageRequest) ([]Loan, int64, error)

	// FindByID returns ErrLoanNotFound when absent or owned by someone else.
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*Loan, error)
	FindByIDForUpdate(ctx context.Context, ownerID, id uuid.UUID) (*Loan, error)

	// Create returns ErrBookAlreadyOnLoan when the book already has an active loan.
	Create(ctx context.Context, loan *Loan) error
	Update(ctx context.Context, loan *Loan) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}
