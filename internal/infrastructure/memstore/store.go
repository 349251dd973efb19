// Package memstore is the in-process storage driver (DB_DRIVER=memory).
// It implements the user, book and loan repositories plus
// database.Transactor with the same constraints the PostgreSQL schema
// enforces. Transactions are serialized; a failed transaction restores the
// snapshot taken when it began.
package memstore

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"library-backend/internal/domains/book"
	"library-backend/internal/domains/loan"
	"library-backend/internal/domains/user"
	pkgdb "library-backend/pkg/database"
)

type Store struct {
	mu sync.Mutex

	users map[uuid.UUID]user.User
	books map[uuid.UUID]book.Book
	loans map[uuid.UUID]loan.Loan
}

var _ pkgdb.Transactor = (*Store)(nil)

func New() *Store {
	return &Store{
		users: make(map[uuid.UUID]user.User),
		books: make(map[uuid.UUID]book.Book),
		loans: make(map[uuid.UUID]loan.Loan),
	}
}

func (s *Store) UserRepository() user.Repository { return &userRepository{s: s} }
func (s *Store) BookRepository() book.Repository { return &bookRepository{s: s} }
func (s *Store) LoanRepository() loan.Repository { return &loanRepository{s: s} }

type txKey struct{}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// InTx runs fn holding the store lock. Nested calls join the outer
// transaction.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.restore(snap)
			panic(p)
		} else if err != nil {
			s.restore(snap)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, s))
}

// run executes a single repository call, inside the caller's transaction
// when there is one.
func (s *Store) run(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.inTx(ctx) {
		return fn()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

type snapshot struct {
	users map[uuid.UUID]user.User
	books map[uuid.UUID]book.Book
	loans map[uuid.UUID]loan.Loan
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		users: make(map[uuid.UUID]user.User, len(s.users)),
		books: make(map[uuid.UUID]book.Book, len(s.books)),
		loans: make(map[uuid.UUID]loan.Loan, len(s.loans)),
	}
	for k, v := range s.users {
		snap.users[k] = v
	}
	for k, v := range s.books {
		snap.books[k] = v
	}
	for k, v := range s.loans {
		snap.loans[k] = cloneLoan(v)
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.users = snap.users
	s.books = snap.books
	s.loans = snap.loans
}
