package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"library-backend/internal/domains/book"
	"library-backend/internal/shared/apperror"
	"library-backend/internal/shared/auth"
	"library-backend/internal/shared/pagination"
	pkgdb "library-backend/pkg/database"
	"library-backend/pkg/logger"
)

const exportSheetName = "Books"

type bookService struct {
	repo     book.Repository
	tx       pkgdb.Transactor
	identity auth.Provider
}

func NewBookService(repo book.Repository, tx pkgdb.Transactor, identity auth.Provider) book.Service {
	return &bookService{
		repo:     repo,
		tx:       tx,
		identity: identity,
	}
}

// ========================================
// QUERIES
// ========================================

func (s *bookService) ListAll(ctx context.Context) ([]book.Book, error) {
	ownerID, err := s.identity.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListAll(ctx, ownerID)
}

func (s *bookService) List(ctx context.Context, req pagination.PageRequest) (pagination.Page[book.Book], error) {
	return s.page(ctx, book.Filter{}, req)
}

func (s *bookService) GetByID(ctx context.Context, id uuid.UUID) (*book.Book, error) {
	ownerID, err := s.identity.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, ownerID, id)
}

func (s *bookService) FindByTitle(ctx context.Context, title string, req pagination.PageRequest) (pagination.Page[book.Book], error) {
	return s.page(ctx, book.Filter{Title: strings.TrimSpace(title)}, req)
}

func (s *bookService) FindByAuthor(ctx context.Context, author string, req pagination.PageRequest) (pagination.Page[book.Book], error) {
	return s.page(ctx, book.Filter{Author: strings.TrimSpace(author)}, req)
}

func (s *bookService) FindByGenre(ctx context.Context, genre string, req pagination.PageRequest) (pagination.Page[book.Book], error) {
	return s.page(ctx, book.Filter{Genre: strings.TrimSpace(genre)}, req)
}

// FindByStatus rejects an unknown status before touching the store.
func (s *bookService) FindByStatus(ctx context.Context, status string, req pagination.PageRequest) (pagination.Page[book.Book], error) {
	parsed, err := book.ParseStatus(status)
	if err != nil {
		return pagination.Page[book.Book]{}, err
	}
	return s.page(ctx, book.Filter{Status: parsed}, req)
}

func (s *bookService) page(ctx context.Context, filter book.Filter, req pagination.PageRequest) (pagination.Page[book.Book], error) {
	ownerID, err := s.identity.CurrentUser(ctx)
	if err != nil {
		return pagination.Page[book.Book]{}, err
	}
	if err := req.ValidateSort(book.SortFields...); err != nil {
		return pagination.Page[book.Book]{}, err
	}

	books, total, err := s.repo.Page(ctx, ownerID, filter, req)
	if err != nil {
		return pagination.Page[book.Book]{}, err
	}
	return pagination.NewPage(books, req, total), nil
}

// Statistics counts the caller's books per status on every call.
func (s *bookService) Statistics(ctx context.Context) (*book.BooksStatistics, error) {
	ownerID, err := s.identity.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	counts, err := s.repo.CountByStatus(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	stats := book.NewBooksStatistics(counts)
	return &stats, nil
}

// ========================================
// COMMANDS
// ========================================

// Save creates a book owned by the caller. Client supplied id, owner and
// status are discarded.
func (s *bookService) Save(ctx context.Context, req book.CreateBookRequest) (*book.Book, error) {
	ownerID, err := s.identity.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Author = strings.TrimSpace(req.Author)
	req.Genre = strings.TrimSpace(req.Genre)
	if err := req.Validate(); err != nil {
		return nil, apperror.Validation(err)
	}

	now := time.Now().UTC()
	b := &book.Book{
		ID:        uuid.New(),
		Title:     req.Title,
		Author:    req.Author,
		Genre:     req.Genre,
		Status:    book.StatusAvailable,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Update replaces title, author and genre. Id, owner and status are kept.
func (s *bookService) Update(ctx context.Context, req book.UpdateBookRequest) error {
	ownerID, err := s.identity.CurrentUser(ctx)
	if err != nil {
		return err
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Author = strings.TrimSpace(req.Author)
	req.Genre = strings.TrimSpace(req.Genre)
	if err := req.Validate(); err != nil {
		return apperror.Validation(err)
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		current, err := s.repo.FindByIDForUpdate(ctx, ownerID, req.ID)
		if err != nil {
			return err
		}

		current.Title = req.Title
		current.Author = req.Author
		current.Genre = req.Genre
		current.UpdatedAt = time.Now().UTC()

		return s.repo.Update(ctx, current)
	})
	return translateTxError(err)
}

// Delete removes the caller's book. A book any loan still references is
// refused with ErrBookReferenced.
func (s *bookService) Delete(ctx context.Context, id uuid.UUID) error {
	ownerID, err := s.identity.CurrentUser(ctx)
	if err != nil {
		return err
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.FindByIDForUpdate(ctx, ownerID, id); err != nil {
			return err
		}
		return s.repo.Delete(ctx, ownerID, id)
	})
	return translateTxError(err)
}

// ExportExcel renders the caller's whole catalog as a worksheet.
func (s *bookService) ExportExcel(ctx context.Context) (*excelize.File, error) {
	books, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	f, err := buildBooksExcelFile(books)
	if err != nil {
		return nil, fmt.Errorf("failed to build excel file: %w", err)
	}
	return f, nil
}

func buildBooksExcelFile(books []book.Book) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := writeBooksSheet(f, books); err != nil {
		if closeErr := f.Close(); closeErr != nil {
			logger.Error("close excel file", closeErr)
		}
		return nil, err
	}
	return f, nil
}

var exportHeaders = []string{"ID", "Title", "Author", "Genre", "Status", "Created At"}

func writeBooksSheet(f *excelize.File, books []book.Book) error {
	if err := f.SetSheetName("Sheet1", exportSheetName); err != nil {
		return err
	}

	if err := f.SetSheetRow(exportSheetName, "A1", &exportHeaders); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(exportSheetName, "A1", lastHeader, headerStyle); err != nil {
		return err
	}

	for i, b := range books {
		row := []interface{}{
			b.ID.String(),
			b.Title,
			b.Author,
			b.Genre,
			string(b.Status),
			b.CreatedAt.Format(time.RFC3339),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(exportSheetName, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func translateTxError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pkgdb.ErrTxConflict) {
		return book.ErrBookConflict.Wrap(err)
	}
	return err
}
