package loan

import (
	"fmt"

	"library-backend/internal/domains/book"
)

// Event is a loan lifecycle step that moves the referenced book.
type Event string

const (
	EventOpened        Event = "LOAN_OPENED"
	EventReturned      Event = "LOAN_RETURNED"
	EventActiveDeleted Event = "ACTIVE_LOAN_DELETED"
)

// NextBookStatus is the book state machine:
//
//	AVAILABLE --opened--> BORROWED --returned | active deleted--> AVAILABLE
//
// Opening a loan on a book that is not AVAILABLE fails with ErrBookAlreadyOnLoan.
// Returning is idempotent.
func NextBookStatus(current book.Status, ev Event) (book.Status, error) {
	switch ev {
	case EventOpened:
		if current != book.StatusAvailable {
			return current, ErrBookAlreadyOnLoan
		}
		return book.StatusBorrowed, nil
	case EventReturned, EventActiveDeleted:
		return book.StatusAvailable, nil
	}
	return current, fmt.Errorf("unknown loan event %q", ev)
}
