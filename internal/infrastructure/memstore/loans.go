package memstore

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"library-backend/internal/domains/loan"
	"library-backend/internal/shared/pagination"
)

type loanRepository struct {
	s *Store
}

func (r *loanRepository) ListAll(ctx context.Context, ownerID uuid.UUID) ([]loan.Loan, error) {
	var out []loan.Loan
	err := r.s.run(ctx, func() error {
		out = r.s.ownedLoans(ownerID, false)
		sortLoans(out, nil)
		return nil
	})
	return out, err
}

func (r *loanRepository) Page(ctx context.Context, ownerID uuid.UUID, activeOnly bool, req pagination.PageRequest) ([]loan.Loan, int64, error) {
	if err := req.ValidateSort(loan.SortFields...); err != nil {
		return nil, 0, err
	}

	var page pagination.Page[loan.Loan]
	err := r.s.run(ctx, func() error {
		matched := r.s.ownedLoans(ownerID, activeOnly)
		sortLoans(matched, req.Sort)
		page = pagination.Slice(matched, req)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return page.Content, page.TotalElements, nil
}

func (r *loanRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*loan.Loan, error) {
	var found loan.Loan
	err := r.s.run(ctx, func() error {
		l, ok := r.s.loans[id]
		if !ok || l.OwnerID != ownerID {
			return loan.ErrLoanNotFound
		}
		found = cloneLoan(l)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (r *loanRepository) FindByIDForUpdate(ctx context.Context, ownerID, id uuid.UUID) (*loan.Loan, error) {
	return r.FindByID(ctx, ownerID, id)
}

// Create mirrors the loans_one_active_per_book index and the book_id
// foreign key.
func (r *loanRepository) Create(ctx context.Context, l *loan.Loan) error {
	return r.s.run(ctx, func() error {
		if _, ok := r.s.books[l.BookID]; !ok {
			return fmt.Errorf("insert loan: book %s does not exist", l.BookID)
		}
		if l.IsActive() {
			for _, other := range r.s.loans {
				if other.BookID == l.BookID && other.IsActive() {
					return loan.ErrBookAlreadyOnLoan
				}
			}
		}
		r.s.loans[l.ID] = cloneLoan(*l)
		return nil
	})
}

func (r *loanRepository) Update(ctx context.Context, l *loan.Loan) error {
	return r.s.run(ctx, func() error {
		current, ok := r.s.loans[l.ID]
		if !ok || current.OwnerID != l.OwnerID {
			return loan.ErrLoanNotFound
		}
		if l.ReturnDate != nil && l.ReturnDate.Before(l.LoanDate) {
			return loan.ErrInvalidReturnDate
		}
		if l.IsActive() && !current.IsActive() {
			for id, other := range r.s.loans {
				if id != l.ID && other.BookID == current.BookID && other.IsActive() {
					return loan.ErrBookAlreadyOnLoan
				}
			}
		}
		current.Borrower = l.Borrower
		current.LoanDate = l.LoanDate
		current.DueDate = copyTime(l.DueDate)
		current.ReturnDate = copyTime(l.ReturnDate)
		current.UpdatedAt = l.UpdatedAt
		r.s.loans[l.ID] = current
		return nil
	})
}

func (r *loanRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return r.s.run(ctx, func() error {
		current, ok := r.s.loans[id]
		if !ok || current.OwnerID != ownerID {
			return loan.ErrLoanNotFound
		}
		delete(r.s.loans, id)
		return nil
	})
}

func (s *Store) ownedLoans(ownerID uuid.UUID, activeOnly bool) []loan.Loan {
	out := make([]loan.Loan, 0)
	for _, l := range s.loans {
		if l.OwnerID != ownerID || (activeOnly && !l.IsActive()) {
			continue
		}
		out = append(out, cloneLoan(l))
	}
	return out
}

func sortLoans(loans []loan.Loan, orders []pagination.Order) {
	slices.SortFunc(loans, func(a, b loan.Loan) int {
		for _, o := range orders {
			c, decided := compareLoanField(a, b, o.Field)
			if !decided && o.Direction == pagination.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		if len(orders) == 0 {
			if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
				return c
			}
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
}

// compareLoanField reports decided=true when a null placed the rows;
// nulls sort last in either direction.
func compareLoanField(a, b loan.Loan, field string) (int, bool) {
	switch field {
	case "id":
		return strings.Compare(a.ID.String(), b.ID.String()), false
	case "borrower":
		return strings.Compare(a.Borrower, b.Borrower), false
	case "loan_date":
		return a.LoanDate.Compare(b.LoanDate), false
	case "due_date":
		return compareNullable(a.DueDate, b.DueDate)
	case "return_date":
		return compareNullable(a.ReturnDate, b.ReturnDate)
	case "created_at":
		return a.CreatedAt.Compare(b.CreatedAt), false
	case "updated_at":
		return a.UpdatedAt.Compare(b.UpdatedAt), false
	}
	return 0, false
}

func compareNullable(a, b *time.Time) (int, bool) {
	switch {
	case a == nil && b == nil:
		return 0, false
	case a == nil:
		return 1, true
	case b == nil:
		return -1, true
	}
	return a.Compare(*b), false
}

func cloneLoan(l loan.Loan) loan.Loan {
	l.DueDate = copyTime(l.DueDate)
	l.ReturnDate = copyTime(l.ReturnDate)
	return l
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
