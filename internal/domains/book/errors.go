package book

import "library-backend/internal/shared/apperror"

var (
	ErrBookNotFound   = apperror.NotFound("BOOK_NOT_FOUND", "book not found")
	ErrBookReferenced = apperror.BadRequest("BOOK_REFERENCED", "book is referenced by an existing loan")
	ErrInvalidStatus  = apperror.BadRequest("INVALID_BOOK_STATUS", "invalid book status")
	ErrBookConflict   = apperror.Conflict("BOOK_CONFLICT", "book was modified concurrently, please retry")
)
