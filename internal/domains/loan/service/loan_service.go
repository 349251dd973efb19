package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"library-backend/internal/domains/book"
	"library-backend/internal/domains/loan"
	"library-backend/internal/shared/apperror"
	"library-backend/internal/shared/auth"
	"library-backend/internal/shared/pagination"
	pkgdb "library-backend/pkg/database"
	"library-backend/pkg/logger"
)

type loanService struct {
	loans    loan.Repository
	books    book.Repository
	tx       pkgdb.Transactor
	identity auth.Provider
}

func NewLoanService(loans loan.Repository, books book.Repository, tx pkgdb.Transactor, identity auth.Provider) loan.Service {
	return &loanService{
		loans:    loans,
		books:    books,
		tx:       tx,
		identity: identity,
	}
}

// ========================================
// QUERIES
// ========================================

func (s *loanService) ListAll(ctx context.Context) ([]loan.Loan, error) {
	ownerID, err := s.identity.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.loans.ListAll(ctx, ownerID)
}

func (s *loanService) List(ctx context.Context, req pagination.PageRequest) (pagination.Page[loan.Loan], error) {
	return s.page(ctx, false, req)
}

func (s *loanService) ListActive(ctx context.Context, req pagination.PageRequest) (pagination.Page[loan.Loan], error) {
	return s.page(ctx, true, req)
}

func (s *loanService) page(ctx context.Context, activeOnly bool, req pagination.PageRequest) (pagination.Page[loan.Loan], error) {
	ownerID, err := s.identity.CurrentUser(ctx)
	if err != nil {
		return pagination.Page[loan.Loan]{}, err
	}
	if err := req.ValidateSort(loan.SortFields...); err != nil {
		return pagination.Page[loan.Loan]{}, err
	}

	loans, total, err := s.loans.Page(ctx, ownerID, activeOnly, req)
	if err != nil {
		return pagination.Page[loan.Loan]{}, err
	}
	return pagination.NewPage(loans, req, total), nil
}

func (s *loanService) GetByID(ctx context.Context, id uuid.UUID) (*loan.Loan, error) {
	ownerID, err := s.identity.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.loans.FindByID(ctx, ownerID, id)
}

// ========================================
// COMMANDS
// ========================================

// Save lends one of the caller's books. The book row stays locked from the
// availability check until the loan and the BORROWED status are written.
func (s *loanService) Save(ctx context.Context, bookID uuid.UUID, req loan.CreateLoanRequest) (*loan.Loan, error) {
	ownerID, err := s.identity.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	req.Borrower = strings.TrimSpace(req.Borrower)
	if err := req.Validate(); err != nil {
		return nil, apperror.Validation(err)
	}

	now := time.Now().UTC()
	loanDate := now
	if req.LoanDate != nil {
		loanDate = req.LoanDate.UTC()
	}
	dueDate := utcPtr(req.DueDate)
	if dueDate != nil && dueDate.Before(loanDate) {
		return nil, loan.ErrInvalidDueDate
	}

	created, err := pkgdb.WithTransactionResult(ctx, s.tx, func(ctx context.Context) (*loan.Loan, error) {
		b, err := s.books.FindByIDForUpdate(ctx, ownerID, bookID)
		if errors.Is(err, book.ErrBookNotFound) {
			return nil, loan.ErrLoanBookNotFound
		}
		if err != nil {
			return nil, err
		}

		next, err := loan.NextBookStatus(b.Status, loan.EventOpened)
		if err != nil {
			return nil, err
		}

		l := &loan.Loan{
			ID:        uuid.New(),
			BookID:    b.ID,
			OwnerID:   ownerID,
			Borrower:  req.Borrower,
			LoanDate:  loanDate,
			DueDate:   dueDate,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.loans.Create(ctx, l); err != nil {
			return nil, err
		}
		if err := s.books.UpdateStatus(ctx, ownerID, b.ID, next); err != nil {
			return nil, err
		}
		return l, nil
	})
	if err != nil {
		return nil, translateTxError(err)
	}

	logger.Info("loan opened", map[string]interface{}{
		"loan_id": created.ID.String(),
		"book_id": created.BookID.String(),
	})
	return created, nil
}

// Update replaces borrower and dates. Setting the return date of an active
// loan returns the book. A returned loan cannot become active again.
func (s *loanService) Update(ctx context.Context, req loan.UpdateLoanRequest) error {
	ownerID, err := s.identity.CurrentUser(ctx)
	if err != nil {
		return err
	}

	req.Borrower = strings.TrimSpace(req.Borrower)
	if err := req.Validate(); err != nil {
		return apperror.Validation(err)
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		current, err := s.lockLoan(ctx, ownerID, req.ID)
		if err != nil {
			return err
		}

		wasActive := current.IsActive()
		if !wasActive && req.ReturnDate == nil {
			return loan.ErrLoanReopen
		}

		if req.LoanDate != nil {
			current.LoanDate = req.LoanDate.UTC()
		}
		current.DueDate = utcPtr(req.DueDate)
		current.ReturnDate = utcPtr(req.ReturnDate)
		current.Borrower = req.Borrower
		current.UpdatedAt = time.Now().UTC()

		if current.DueDate != nil && current.DueDate.Before(current.LoanDate) {
			return loan.ErrInvalidDueDate
		}
		if current.ReturnDate != nil && current.ReturnDate.Before(current.LoanDate) {
			return loan.ErrInvalidReturnDate
		}

		if err := s.loans.Update(ctx, current); err != nil {
			return err
		}
		if wasActive && !current.IsActive() {
			return s.moveBook(ctx, ownerID, current.BookID, loan.EventReturned)
		}
		return nil
	})
	return translateTxError(err)
}

// Delete removes the caller's loan. Deleting an active loan makes the book
// AVAILABLE again; a returned loan leaves the book alone.
func (s *loanService) Delete(ctx context.Context, id uuid.UUID) error {
	ownerID, err := s.identity.CurrentUser(ctx)
	if err != nil {
		return err
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		current, err := s.lockLoan(ctx, ownerID, id)
		if err != nil {
			return err
		}
		if err := s.loans.Delete(ctx, ownerID, id); err != nil {
			return err
		}
		if current.IsActive() {
			return s.moveBook(ctx, ownerID, current.BookID, loan.EventActiveDeleted)
		}
		return nil
	})
	return translateTxError(err)
}

// lockLoan locks the loan's book before the loan itself so every writer
// takes locks in book, loan order.
func (s *loanService) lockLoan(ctx context.Context, ownerID, id uuid.UUID) (*loan.Loan, error) {
	peek, err := s.loans.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.books.FindByIDForUpdate(ctx, ownerID, peek.BookID); err != nil {
		return nil, err
	}
	return s.loans.FindByIDForUpdate(ctx, ownerID, id)
}

func (s *loanService) moveBook(ctx context.Context, ownerID, bookID uuid.UUID, ev loan.Event) error {
	b, err := s.books.FindByIDForUpdate(ctx, ownerID, bookID)
	if err != nil {
		return err
	}
	next, err := loan.NextBookStatus(b.Status, ev)
	if err != nil {
		return err
	}
	if next == b.Status {
		return nil
	}
	return s.books.UpdateStatus(ctx, ownerID, bookID, next)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func translateTxError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pkgdb.ErrTxConflict) {
		return loan.ErrLoanConflict.Wrap(err)
	}
	return err
}
