package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"library-backend/internal/domains/book"
	"library-backend/internal/domains/loan"
	loanService "library-backend/internal/domains/loan/service"
	"library-backend/internal/infrastructure/memstore"
	"library-backend/internal/shared/apperror"
	"library-backend/internal/shared/auth"
	"library-backend/internal/shared/pagination"
)

type fixture struct {
	store *memstore.Store
	books book.Service
	loans loan.Service
}

func newFixture() *fixture {
	store := memstore.New()
	identity := auth.NewContextProvider()
	return &fixture{
		store: store,
		books: NewBookService(store.BookRepository(), store, identity),
		loans: loanService.NewLoanService(store.LoanRepository(), store.BookRepository(), store, identity),
	}
}

func asUser() context.Context {
	return auth.WithUser(context.Background(), uuid.New())
}

func saveBook(t *testing.T, svc book.Service, ctx context.Context, title, author, genre string) *book.Book {
	t.Helper()
	b, err := svc.Save(ctx, book.CreateBookRequest{Title: title, Author: author, Genre: genre})
	require.NoError(t, err)
	return b
}

func TestSave_AssignsServerSideFields(t *testing.T) {
	f := newFixture()
	ctx := asUser()
	caller, _ := auth.UserFromContext(ctx)

	clientID := uuid.New()
	otherOwner := uuid.New()
	b, err := f.books.Save(ctx, book.CreateBookRequest{
		ID:      &clientID,
		OwnerID: &otherOwner,
		Status:  "BORROWED",
		Title:   "  Dune ",
		Author:  "Herbert",
		Genre:   "SciFi",
	})
	require.NoError(t, err)

	assert.NotEqual(t, clientID, b.ID)
	assert.Equal(t, caller, b.OwnerID)
	assert.Equal(t, book.StatusAvailable, b.Status)
	assert.Equal(t, "Dune", b.Title)
}

func TestSave_ValidationFailure(t *testing.T) {
	f := newFixture()

	_, err := f.books.Save(asUser(), book.CreateBookRequest{Title: " ", Author: "Herbert"})
	assert.Equal(t, apperror.KindBadRequest, apperror.KindOf(err))
}

func TestOperations_RequireAuthentication(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.books.ListAll(ctx)
	assert.True(t, errors.Is(err, auth.ErrUnauthenticated))

	_, err = f.books.Save(ctx, book.CreateBookRequest{Title: "Dune", Author: "Herbert"})
	assert.Equal(t, apperror.KindUnauthenticated, apperror.KindOf(err))

	_, err = f.books.Statistics(ctx)
	assert.Equal(t, apperror.KindUnauthenticated, apperror.KindOf(err))
}

func TestGetByID_OtherOwnerIsNotFound(t *testing.T) {
	f := newFixture()
	alice, bob := asUser(), asUser()

	b := saveBook(t, f.books, alice, "Dune", "Herbert", "SciFi")

	got, err := f.books.GetByID(alice, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	_, err = f.books.GetByID(bob, b.ID)
	assert.True(t, errors.Is(err, book.ErrBookNotFound))

	_, err = f.books.GetByID(alice, uuid.New())
	assert.True(t, errors.Is(err, book.ErrBookNotFound))
}

func TestUpdate_KeepsIdentityAndStatus(t *testing.T) {
	f := newFixture()
	alice, bob := asUser(), asUser()
	b := saveBook(t, f.books, alice, "Dune", "Herbert", "SciFi")

	err := f.books.Update(bob, book.UpdateBookRequest{ID: b.ID, Title: "Mine", Author: "Bob"})
	assert.True(t, errors.Is(err, book.ErrBookNotFound))

	err = f.books.Update(alice, book.UpdateBookRequest{
		ID: b.ID, Title: "Dune Messiah", Author: "Frank Herbert", Status: "BORROWED",
	})
	require.NoError(t, err)

	updated, err := f.books.GetByID(alice, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, updated.ID)
	assert.Equal(t, b.OwnerID, updated.OwnerID)
	assert.Equal(t, book.StatusAvailable, updated.Status)
	assert.Equal(t, "Dune Messiah", updated.Title)
	assert.Empty(t, updated.Genre)
}

func TestFindByTitle_CaseInsensitiveAndOwnerScoped(t *testing.T) {
	f := newFixture()
	alice, bob := asUser(), asUser()
	saveBook(t, f.books, alice, "Dune", "Herbert", "SciFi")
	saveBook(t, f.books, alice, "Children of Dune", "Herbert", "SciFi")
	saveBook(t, f.books, alice, "Emma", "Austen", "Classic")
	saveBook(t, f.books, bob, "DUNE", "Herbert", "SciFi")

	page, err := f.books.FindByTitle(alice, "dune", pagination.NewPageRequest(0, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalElements)

	page, err = f.books.FindByAuthor(alice, "AUST", pagination.NewPageRequest(0, 20))
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, "Emma", page.Content[0].Title)

	page, err = f.books.FindByGenre(bob, "classic", pagination.NewPageRequest(0, 20))
	require.NoError(t, err)
	assert.Empty(t, page.Content)
}

func TestFindByTitle_LikeWildcardsAreLiteral(t *testing.T) {
	f := newFixture()
	ctx := asUser()
	saveBook(t, f.books, ctx, "100% Go", "Someone", "")
	saveBook(t, f.books, ctx, "Gone", "Someone", "")

	page, err := f.books.FindByTitle(ctx, "%", pagination.NewPageRequest(0, 20))
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, "100% Go", page.Content[0].Title)
}

func TestFindByStatus(t *testing.T) {
	f := newFixture()
	ctx := asUser()
	lent := saveBook(t, f.books, ctx, "Dune", "Herbert", "SciFi")
	saveBook(t, f.books, ctx, "Emma", "Austen", "Classic")

	_, err := f.loans.Save(ctx, lent.ID, loan.CreateLoanRequest{Borrower: "Paul"})
	require.NoError(t, err)

	page, err := f.books.FindByStatus(ctx, "borrowed", pagination.NewPageRequest(0, 20))
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, lent.ID, page.Content[0].ID)

	_, err = f.books.FindByStatus(ctx, "MISSING", pagination.NewPageRequest(0, 20))
	assert.True(t, errors.Is(err, book.ErrInvalidStatus))
}

func TestList_Pages(t *testing.T) {
	f := newFixture()
	ctx := asUser()
	for i := 0; i < 25; i++ {
		saveBook(t, f.books, ctx, fmt.Sprintf("Book %02d", i), "Author", "")
	}

	first, err := f.books.List(ctx, pagination.NewPageRequest(0, 20))
	require.NoError(t, err)
	assert.Len(t, first.Content, 20)
	assert.Equal(t, int64(25), first.TotalElements)
	assert.Equal(t, 2, first.TotalPages)

	second, err := f.books.List(ctx, pagination.NewPageRequest(1, 20))
	require.NoError(t, err)
	assert.Len(t, second.Content, 5)

	seen := make(map[uuid.UUID]bool)
	for _, b := range append(first.Content, second.Content...) {
		assert.False(t, seen[b.ID], "book %s listed twice", b.ID)
		seen[b.ID] = true
	}
}

func TestList_SortByTitleDesc(t *testing.T) {
	f := newFixture()
	ctx := asUser()
	saveBook(t, f.books, ctx, "B", "x", "")
	saveBook(t, f.books, ctx, "C", "x", "")
	saveBook(t, f.books, ctx, "A", "x", "")

	page, err := f.books.List(ctx, pagination.NewPageRequest(0, 20, pagination.Order{Field: "title", Direction: pagination.Desc}))
	require.NoError(t, err)
	require.Len(t, page.Content, 3)
	assert.Equal(t, []string{"C", "B", "A"}, []string{page.Content[0].Title, page.Content[1].Title, page.Content[2].Title})

	_, err = f.books.List(ctx, pagination.NewPageRequest(0, 20, pagination.Order{Field: "owner_id"}))
	assert.True(t, errors.Is(err, pagination.ErrInvalidSort))
}

func TestStatistics_PartitionListAll(t *testing.T) {
	f := newFixture()
	ctx := asUser()
	first := saveBook(t, f.books, ctx, "Dune", "Herbert", "SciFi")
	saveBook(t, f.books, ctx, "Emma", "Austen", "Classic")
	saveBook(t, f.books, ctx, "Ulysses", "Joyce", "Classic")
	saveBook(t, f.books, asUser(), "Elsewhere", "Other", "")

	_, err := f.loans.Save(ctx, first.ID, loan.CreateLoanRequest{})
	require.NoError(t, err)

	stats, err := f.books.Statistics(ctx)
	require.NoError(t, err)
	all, err := f.books.ListAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(len(all)), stats.TotalBooks)
	assert.Equal(t, stats.TotalBooks, stats.AvailableBooks+stats.BorrowedBooks)
	assert.Equal(t, int64(1), stats.BorrowedBooks)
	assert.Equal(t, "33.33", stats.BorrowedPercentage.StringFixed(2))
}

func TestDelete_RefusedWhileLoanExists(t *testing.T) {
	f := newFixture()
	ctx := asUser()
	b := saveBook(t, f.books, ctx, "Dune", "Herbert", "SciFi")

	l, err := f.loans.Save(ctx, b.ID, loan.CreateLoanRequest{})
	require.NoError(t, err)

	err = f.books.Delete(ctx, b.ID)
	assert.True(t, errors.Is(err, book.ErrBookReferenced))
	assert.Equal(t, apperror.KindBadRequest, apperror.KindOf(err))

	require.NoError(t, f.loans.Delete(ctx, l.ID))
	require.NoError(t, f.books.Delete(ctx, b.ID))

	_, err = f.books.GetByID(ctx, b.ID)
	assert.True(t, errors.Is(err, book.ErrBookNotFound))
}

func TestDelete_OtherOwnerIsNotFound(t *testing.T) {
	f := newFixture()
	alice := asUser()
	b := saveBook(t, f.books, alice, "Dune", "Herbert", "SciFi")

	err := f.books.Delete(asUser(), b.ID)
	assert.True(t, errors.Is(err, book.ErrBookNotFound))

	_, err = f.books.GetByID(alice, b.ID)
	assert.NoError(t, err)
}

func TestExportExcel(t *testing.T) {
	f := newFixture()
	ctx := asUser()
	b := saveBook(t, f.books, ctx, "Dune", "Herbert", "SciFi")
	time.Sleep(time.Millisecond)
	saveBook(t, f.books, ctx, "Emma", "Austen", "Classic")

	file, err := f.books.ExportExcel(ctx)
	require.NoError(t, err)
	defer file.Close()

	rows, err := file.GetRows(exportSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Title", rows[0][1])
	assert.Equal(t, b.ID.String(), rows[1][0])
	assert.Equal(t, "AVAILABLE", rows[1][4])
}

func TestExportExcel_HeaderIsBold(t *testing.T) {
	f := newFixture()
	ctx := asUser()
	saveBook(t, f.books, ctx, "Dune", "Herbert", "SciFi")

	file, err := f.books.ExportExcel(ctx)
	require.NoError(t, err)
	defer file.Close()

	styleID, err := file.GetCellStyle(exportSheetName, "F1")
	require.NoError(t, err)
	style, err := file.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)
}

func TestWriteBooksSheet_MissingDefaultSheet(t *testing.T) {
	file := excelize.NewFile()
	defer file.Close()
	require.NoError(t, file.SetSheetName("Sheet1", "Other"))

	assert.Error(t, writeBooksSheet(file, nil))
}
