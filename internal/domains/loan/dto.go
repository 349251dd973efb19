package loan

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"library-backend/internal/domains/book"
)

// CreateLoanRequest is the payload of POST /loans/:bookId.
// ReturnDate is ignored: a new loan is always active.
type CreateLoanRequest struct {
	Borrower   string     `json:"borrower"`
	LoanDate   *time.Time `json:"loan_date,omitempty"`
	DueDate    *time.Time `json:"due_date,omitempty"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
}

func (r CreateLoanRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Borrower, validation.RuneLength(0, 150)),
	)
}

// UpdateLoanRequest is the payload of PUT /loans. A nil LoanDate keeps the
// stored one; DueDate and ReturnDate are replaced as given.
type UpdateLoanRequest struct {
	ID         uuid.UUID  `json:"id"`
	Borrower   string     `json:"borrower"`
	LoanDate   *time.Time `json:"loan_date,omitempty"`
	DueDate    *time.Time `json:"due_date,omitempty"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
}

func (r UpdateLoanRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, book.NotNilUUID),
		validation.Field(&r.Borrower, validation.RuneLength(0, 150)),
	)
}
