package memstore

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"library-backend/internal/domains/book"
	"library-backend/internal/shared/pagination"
)

type bookRepository struct {
	s *Store
}

func (r *bookRepository) ListAll(ctx context.Context, ownerID uuid.UUID) ([]book.Book, error) {
	var out []book.Book
	err := r.s.run(ctx, func() error {
		out = r.s.ownedBooks(ownerID, book.Filter{})
		sortBooks(out, nil)
		return nil
	})
	return out, err
}

func (r *bookRepository) Page(ctx context.Context, ownerID uuid.UUID, filter book.Filter, req pagination.PageRequest) ([]book.Book, int64, error) {
	if err := req.ValidateSort(book.SortFields...); err != nil {
		return nil, 0, err
	}

	var page pagination.Page[book.Book]
	err := r.s.run(ctx, func() error {
		matched := r.s.ownedBooks(ownerID, filter)
		sortBooks(matched, req.Sort)
		page = pagination.Slice(matched, req)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return page.Content, page.TotalElements, nil
}

func (r *bookRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*book.Book, error) {
	var found book.Book
	err := r.s.run(ctx, func() error {
		b, ok := r.s.books[id]
		if !ok || b.OwnerID != ownerID {
			return book.ErrBookNotFound
		}
		found = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

// FindByIDForUpdate needs no row lock: transactions already run one at a time.
func (r *bookRepository) FindByIDForUpdate(ctx context.Context, ownerID, id uuid.UUID) (*book.Book, error) {
	return r.FindByID(ctx, ownerID, id)
}

func (r *bookRepository) Create(ctx context.Context, b *book.Book) error {
	return r.s.run(ctx, func() error {
		if _, ok := r.s.books[b.ID]; ok {
			return fmt.Errorf("insert book: duplicate id %s", b.ID)
		}
		r.s.books[b.ID] = *b
		return nil
	})
}

func (r *bookRepository) Update(ctx context.Context, b *book.Book) error {
	return r.s.run(ctx, func() error {
		current, ok := r.s.books[b.ID]
		if !ok || current.OwnerID != b.OwnerID {
			return book.ErrBookNotFound
		}
		current.Title = b.Title
		current.Author = b.Author
		current.Genre = b.Genre
		current.UpdatedAt = b.UpdatedAt
		r.s.books[b.ID] = current
		return nil
	})
}

func (r *bookRepository) UpdateStatus(ctx context.Context, ownerID, id uuid.UUID, status book.Status) error {
	return r.s.run(ctx, func() error {
		current, ok := r.s.books[id]
		if !ok || current.OwnerID != ownerID {
			return book.ErrBookNotFound
		}
		current.Status = status
		current.UpdatedAt = time.Now().UTC()
		r.s.books[id] = current
		return nil
	})
}

// Delete refuses books any loan still points at, like the loans.book_id
// foreign key does.
func (r *bookRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return r.s.run(ctx, func() error {
		current, ok := r.s.books[id]
		if !ok || current.OwnerID != ownerID {
			return book.ErrBookNotFound
		}
		for _, l := range r.s.loans {
			if l.BookID == id {
				return book.ErrBookReferenced
			}
		}
		delete(r.s.books, id)
		return nil
	})
}

func (r *bookRepository) CountByStatus(ctx context.Context, ownerID uuid.UUID) (map[book.Status]int64, error) {
	counts := make(map[book.Status]int64)
	err := r.s.run(ctx, func() error {
		for _, b := range r.s.books {
			if b.OwnerID == ownerID {
				counts[b.Status]++
			}
		}
		return nil
	})
	return counts, err
}

func (s *Store) ownedBooks(ownerID uuid.UUID, f book.Filter) []book.Book {
	out := make([]book.Book, 0)
	for _, b := range s.books {
		if b.OwnerID != ownerID {
			continue
		}
		if !containsFold(b.Title, f.Title) || !containsFold(b.Author, f.Author) || !containsFold(b.Genre, f.Genre) {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		out = append(out, b)
	}
	return out
}

func containsFold(s, sub string) bool {
	return sub == "" || strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func sortBooks(books []book.Book, orders []pagination.Order) {
	slices.SortFunc(books, func(a, b book.Book) int {
		for _, o := range orders {
			c := compareBookField(a, b, o.Field)
			if o.Direction == pagination.Desc {
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

func compareBookField(a, b book.Book, field string) int {
	switch field {
	case "id":
		return strings.Compare(a.ID.String(), b.ID.String())
	case "title":
		return strings.Compare(a.Title, b.Title)
	case "author":
		return strings.Compare(a.Author, b.Author)
	case "genre":
		return strings.Compare(a.Genre, b.Genre)
	case "status":
		return strings.Compare(string(a.Status), string(b.Status))
	case "created_at":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "updated_at":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	}
	return 0
}
