package loan

import (
	"time"

	"github.com/google/uuid"
)

// Loan records one lending of a book. It is active while ReturnDate is nil.
type Loan struct {
	ID         uuid.UUID  `json:"id"`
	BookID     uuid.UUID  `json:"book_id"`
	OwnerID    uuid.UUID  `json:"owner_id"`
	Borrower   string     `json:"borrower"`
	LoanDate   time.Time  `json:"loan_date"`
	DueDate    *time.Time `json:"due_date,omitempty"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (l *Loan) IsActive() bool {
	return l.ReturnDate == nil
}

// SortFields are the fields a loan page may be ordered by.
var SortFields = []string{"id", "borrower", "loan_date", "due_date", "return_date", "created_at", "updated_at"}
