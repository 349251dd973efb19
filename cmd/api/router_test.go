package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"library-backend/internal/config"
	"library-backend/internal/domains/book"
	"library-backend/internal/domains/loan"
	"library-backend/internal/domains/user"
	"library-backend/internal/shared/pagination"
	"library-backend/pkg/container"
)

type envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	c, err := container.NewContainerFromConfig(&config.Config{
		App: config.AppConfig{Name: "test", Environment: "test", Version: "test"},
		Storage: config.StorageConfig{
			Driver:      config.DriverMemory,
			CacheDriver: config.DriverMemory,
		},
		JWT:  config.JWTConfig{Secret: "test-secret", AccessTokenExpiry: 15, RefreshTokenExpiry: 72},
		Auth: config.AuthConfig{BcryptCost: bcrypt.MinCost, MaxLoginAttempts: 5, LockoutMinutes: 15},
	})
	require.NoError(t, err)
	t.Cleanup(c.Cleanup)

	return SetupRouter(c)
}

func call(t *testing.T, r http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func signUp(t *testing.T, r http.Handler, username string) string {
	t.Helper()
	w := call(t, r, http.MethodPost, "/api/v1/auth/register", "", user.RegisterRequest{
		Username: username, Name: "Test " + username, Password: "passw0rd!",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = call(t, r, http.MethodPost, "/api/v1/auth/login", "", user.LoginRequest{Username: username, Password: "passw0rd!"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[user.LoginResponse](t, w).Data.AccessToken
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)

	w := call(t, r, http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"memory"`)
}

func TestBooksRequireAuthentication(t *testing.T) {
	r := newTestRouter(t)

	w := call(t, r, http.MethodGet, "/api/v1/books", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLendingFlow(t *testing.T) {
	r := newTestRouter(t)
	alice := signUp(t, r, "alice")
	bob := signUp(t, r, "bob")

	// create
	w := call(t, r, http.MethodPost, "/api/v1/books", alice, book.CreateBookRequest{
		Title: "Dune", Author: "Herbert", Genre: "SciFi",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	dune := decode[book.Book](t, w).Data
	assert.Equal(t, book.StatusAvailable, dune.Status)
	assert.Equal(t, "/api/v1/books/"+dune.ID.String(), w.Header().Get("Location"))

	// bob cannot see it
	w = call(t, r, http.MethodGet, "/api/v1/books/"+dune.ID.String(), bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// rename replies without a body
	w = call(t, r, http.MethodPut, "/api/v1/books", alice, book.UpdateBookRequest{
		ID: dune.ID, Title: "Dune", Author: "Frank Herbert", Genre: "SciFi",
	})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	assert.Empty(t, w.Body.Bytes())
	w = call(t, r, http.MethodGet, "/api/v1/books/"+dune.ID.String(), alice, nil)
	assert.Equal(t, "Frank Herbert", decode[book.Book](t, w).Data.Author)

	// lend
	w = call(t, r, http.MethodPost, "/api/v1/loans/"+dune.ID.String(), alice, loan.CreateLoanRequest{Borrower: "Paul"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	lent := decode[loan.Loan](t, w).Data
	assert.Nil(t, lent.ReturnDate)

	w = call(t, r, http.MethodGet, "/api/v1/books/"+dune.ID.String(), alice, nil)
	assert.Equal(t, book.StatusBorrowed, decode[book.Book](t, w).Data.Status)

	// second loan conflicts
	w = call(t, r, http.MethodPost, "/api/v1/loans/"+dune.ID.String(), alice, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// delete refused while a loan references the book
	w = call(t, r, http.MethodDelete, "/api/v1/books/"+dune.ID.String(), alice, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "BOOK_REFERENCED", decode[any](t, w).Error.Code)

	// return
	returned := time.Now().Add(time.Hour)
	w = call(t, r, http.MethodPut, "/api/v1/loans", alice, loan.UpdateLoanRequest{
		ID: lent.ID, Borrower: "Paul", ReturnDate: &returned,
	})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = call(t, r, http.MethodGet, "/api/v1/books/find-by-status?status=available", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), decode[pagination.Page[book.Book]](t, w).Data.TotalElements)

	// statistics
	w = call(t, r, http.MethodGet, "/api/v1/books/statistics", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[book.BooksStatistics](t, w).Data
	assert.Equal(t, int64(1), stats.TotalBooks)
	assert.Equal(t, int64(0), stats.BorrowedBooks)

	// no leakage through search
	w = call(t, r, http.MethodGet, "/api/v1/books/find-by-title?title=dune", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[pagination.Page[book.Book]](t, w).Data.Content)

	// delete loan then book
	w = call(t, r, http.MethodDelete, "/api/v1/loans/"+lent.ID.String(), alice, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = call(t, r, http.MethodDelete, "/api/v1/books/"+dune.ID.String(), alice, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = call(t, r, http.MethodGet, "/api/v1/books/"+dune.ID.String(), alice, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBadRequests(t *testing.T) {
	r := newTestRouter(t)
	token := signUp(t, r, "carol")

	cases := []struct {
		method string
		path   string
		body   interface{}
	}{
		{http.MethodGet, "/api/v1/books/not-a-uuid", nil},
		{http.MethodGet, "/api/v1/books?page=-1", nil},
		{http.MethodGet, "/api/v1/books?page=461168601842738791", nil},
		{http.MethodGet, "/api/v1/loans/active?page=461168601842738791&size=20", nil},
		{http.MethodGet, "/api/v1/books?sort=owner_id,asc", nil},
		{http.MethodGet, "/api/v1/books/find-by-status?status=LOST", nil},
		{http.MethodPost, "/api/v1/books", book.CreateBookRequest{Author: "No Title"}},
		{http.MethodPost, "/api/v1/loans/00000000-0000-0000-0000-000000000001", nil},
	}
	for _, tc := range cases {
		w := call(t, r, tc.method, tc.path, token, tc.body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "%s %s: %s", tc.method, tc.path, w.Body.String())
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	r := newTestRouter(t)
	token := signUp(t, r, "dave")

	w := call(t, r, http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = call(t, r, http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = call(t, r, http.MethodGet, "/api/v1/users/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestExport(t *testing.T) {
	r := newTestRouter(t)
	token := signUp(t, r, "erin")
	call(t, r, http.MethodPost, "/api/v1/books", token, book.CreateBookRequest{Title: "Emma", Author: "Austen"})

	w := call(t, r, http.MethodGet, "/api/v1/books/export", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxMIME, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.NotZero(t, w.Body.Len())
}

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
