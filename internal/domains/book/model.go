package book

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lending state of a book. Only the loan lifecycle changes it.
type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusBorrowed  Status = "BORROWED"
)

// AllStatuses returns every valid status
func AllStatuses() []Status {
	return []Status{StatusAvailable, StatusBorrowed}
}

func (s Status) IsValid() bool {
	switch s {
	case StatusAvailable, StatusBorrowed:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// ParseStatus accepts any letter case ("borrowed", "BORROWED").
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", ErrInvalidStatus.WithMessage("invalid book status: " + raw)
	}
	return s, nil
}

// Book is a catalog entry owned by exactly one user.
type Book struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Genre     string    `json:"genre"`
	Status    Status    `json:"status"`
	OwnerID   uuid.UUID `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Filter narrows owner scoped listings. Text fields are case-insensitive
// substring matches; empty fields do not filter.
type Filter struct {
	Title  string
	Author string
	Genre  string
	Status Status
}

// SortFields are the fields a book page may be ordered by.
var SortFields = []string{"id", "title", "author", "genre", "status", "created_at", "updated_at"}

// BooksStatistics is computed on every request, never stored.
type BooksStatistics struct {
	TotalBooks         int64            `json:"total_books"`
	AvailableBooks     int64            `json:"available_books"`
	BorrowedBooks      int64            `json:"borrowed_books"`
	ByStatus           map[Status]int64 `json:"by_status"`
	BorrowedPercentage decimal.Decimal  `json:"borrowed_percentage"`
}

// NewBooksStatistics derives the aggregate from per status counts.
func NewBooksStatistics(counts map[Status]int64) BooksStatistics {
	stats := BooksStatistics{ByStatus: make(map[Status]int64, len(AllStatuses()))}
	for _, s := range AllStatuses() {
		n := counts[s]
		stats.ByStatus[s] = n
		stats.TotalBooks += n
	}
	stats.AvailableBooks = stats.ByStatus[StatusAvailable]
	stats.BorrowedBooks = stats.ByStatus[StatusBorrowed]

	stats.BorrowedPercentage = decimal.Zero
	if stats.TotalBooks > 0 {
		stats.BorrowedPercentage = decimal.NewFromInt(stats.BorrowedBooks).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(stats.TotalBooks)).
			Round(2)
	}
	return stats
}
