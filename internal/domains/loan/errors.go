package loan

import "library-backend/internal/shared/apperror"

var (
	ErrLoanNotFound      = apperror.NotFound("LOAN_NOT_FOUND", "loan not found")
	ErrLoanBookNotFound  = apperror.BadRequest("LOAN_BOOK_NOT_FOUND", "book not found")
	ErrBookAlreadyOnLoan = apperror.Conflict("BOOK_ALREADY_ON_LOAN", "book already has an active loan")
	ErrLoanConflict      = apperror.Conflict("LOAN_CONFLICT", "loan was modified concurrently, please retry")
	ErrLoanReopen        = apperror.BadRequest("LOAN_REOPEN", "a returned loan cannot be reopened")
	ErrInvalidDueDate    = apperror.BadRequest("INVALID_DUE_DATE", "due date must not be before loan date")
	ErrInvalidReturnDate = apperror.BadRequest("INVALID_RETURN_DATE", "return date must not be before loan date")
)
