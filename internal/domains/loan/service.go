package loan

import (
	"context"

	"github.com/google/uuid"

	"library-backend/internal/shared/pagination"
)

// Service is the loan business contract. Every mutation that touches a book
// runs in the same transaction as the loan write.
type Service interface {
	ListAll(ctx context.Context) ([]Loan, error)
	List(ctx context.Context, req pagination.PageRequest) (pagination.Page[Loan], error)
	ListActive(ctx context.Context, req pagination.PageRequest) (pagination.Page[Loan], error)
	GetByID(ctx context.Context, id uuid.UUID) (*Loan, error)

	Save(ctx context.Context, bookID uuid.UUID, req CreateLoanRequest) (*Loan, error)
	Update(ctx context.Context, req UpdateLoanRequest) error
	Delete(ctx context.Context, id uuid.UUID) error
}
