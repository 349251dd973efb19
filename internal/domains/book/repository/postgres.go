package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"library-backend/internal/domains/book"
	"library-backend/internal/shared/pagination"
	pkgdb "library-backend/pkg/database"
)

const (
	dialectPostgres = "postgres"
	tableBooks      = "books"
)

var bookColumns = []interface{}{"id", "title", "author", "genre", "status", "owner_id", "created_at", "updated_at"}

// sortColumns maps API sort fields to columns
var sortColumns = map[string]string{
	"id":         "id",
	"title":      "title",
	"author":     "author",
	"genre":      "genre",
	"status":     "status",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns a book.Repository on PostgreSQL.
// Fixed queries are plain SQL, filtered pages are built with goqu.
func NewPostgresRepository(pool *pgxpool.Pool) book.Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) q(ctx context.Context) pkgdb.Querier {
	return pkgdb.QuerierFrom(ctx, r.pool)
}

// ========================================
// READS
// ========================================

func (r *postgresRepository) ListAll(ctx context.Context, ownerID uuid.UUID) ([]book.Book, error) {
	query := `
		SELECT id, title, author, genre, status, owner_id, created_at, updated_at
		FROM books
		WHERE owner_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.q(ctx).Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return collectBooks(rows)
}

func (r *postgresRepository) Page(ctx context.Context, ownerID uuid.UUID, filter book.Filter, req pagination.PageRequest) ([]book.Book, int64, error) {
	base := filteredBooks(ownerID, filter)

	countSQL, countArgs, err := base.Select(goqu.COUNT(goqu.Star())).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	var total int64
	if err := r.q(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}
	if total == 0 || int64(req.Offset()) >= total {
		return []book.Book{}, total, nil
	}

	pageSQL, pageArgs, err := pageQuery(base, req)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.q(ctx).Query(ctx, pageSQL, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("page books: %w", err)
	}
	books, err := collectBooks(rows)
	if err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

func (r *postgresRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*book.Book, error) {
	query := `
		SELECT id, title, author, genre, status, owner_id, created_at, updated_at
		FROM books
		WHERE id = $1 AND owner_id = $2
	`
	return scanBook(r.q(ctx).QueryRow(ctx, query, id, ownerID))
}

func (r *postgresRepository) FindByIDForUpdate(ctx context.Context, ownerID, id uuid.UUID) (*book.Book, error) {
	query := `
		SELECT id, title, author, genre, status, owner_id, created_at, updated_at
		FROM books
		WHERE id = $1 AND owner_id = $2
		FOR UPDATE
	`
	return scanBook(r.q(ctx).QueryRow(ctx, query, id, ownerID))
}

func (r *postgresRepository) CountByStatus(ctx context.Context, ownerID uuid.UUID) (map[book.Status]int64, error) {
	query, args, err := goqu.Dialect(dialectPostgres).
		From(tableBooks).
		Prepared(true).
		Select(goqu.C("status"), goqu.COUNT(goqu.Star())).
		Where(goqu.C("owner_id").Eq(ownerID)).
		GroupBy(goqu.C("status")).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build statistics query: %w", err)
	}

	rows, err := r.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count books by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[book.Status]int64)
	for rows.Next() {
		var status book.Status
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return counts, nil
}

// ========================================
// WRITES
// ========================================

func (r *postgresRepository) Create(ctx context.Context, b *book.Book) error {
	query := `
		INSERT INTO books (id, title, author, genre, status, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.q(ctx).Exec(ctx, query,
		b.ID, b.Title, b.Author, b.Genre, b.Status, b.OwnerID, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert book: %w", err)
	}
	return nil
}

func (r *postgresRepository) Update(ctx context.Context, b *book.Book) error {
	query := `
		UPDATE books
		SET title = $1, author = $2, genre = $3, updated_at = $4
		WHERE id = $5 AND owner_id = $6
	`
	tag, err := r.q(ctx).Exec(ctx, query, b.Title, b.Author, b.Genre, b.UpdatedAt, b.ID, b.OwnerID)
	if err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return book.ErrBookNotFound
	}
	return nil
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, ownerID, id uuid.UUID, status book.Status) error {
	query := `
		UPDATE books
		SET status = $1, updated_at = $2
		WHERE id = $3 AND owner_id = $4
	`
	tag, err := r.q(ctx).Exec(ctx, query, status, time.Now().UTC(), id, ownerID)
	if err != nil {
		return fmt.Errorf("update book status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return book.ErrBookNotFound
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	tag, err := r.q(ctx).Exec(ctx, `DELETE FROM books WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return translateDeleteError(err)
	}
	if tag.RowsAffected() == 0 {
		return book.ErrBookNotFound
	}
	return nil
}

// ========================================
// HELPERS
// ========================================

func filteredBooks(ownerID uuid.UUID, f book.Filter) *goqu.SelectDataset {
	ds := goqu.Dialect(dialectPostgres).
		From(tableBooks).
		Prepared(true).
		Where(goqu.C("owner_id").Eq(ownerID))

	if f.Title != "" {
		ds = ds.Where(goqu.C("title").ILike(containsPattern(f.Title)))
	}
	if f.Author != "" {
		ds = ds.Where(goqu.C("author").ILike(containsPattern(f.Author)))
	}
	if f.Genre != "" {
		ds = ds.Where(goqu.C("genre").ILike(containsPattern(f.Genre)))
	}
	if f.Status != "" {
		ds = ds.Where(goqu.C("status").Eq(string(f.Status)))
	}
	return ds
}

func pageQuery(base *goqu.SelectDataset, req pagination.PageRequest) (string, []interface{}, error) {
	orders, err := orderExpressions(req)
	if err != nil {
		return "", nil, err
	}

	query, args, err := base.
		Select(bookColumns...).
		Order(orders...).
		Limit(uint(req.Size)).
		Offset(uint(req.Offset())).
		ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build page query: %w", err)
	}
	return query, args, nil
}

// translateDeleteError maps the loans.book_id foreign key rejection.
func translateDeleteError(err error) error {
	if pkgdb.PgErrorCode(err) == pkgdb.CodeForeignKeyViolation {
		return book.ErrBookReferenced.Wrap(err)
	}
	return fmt.Errorf("delete book: %w", err)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns user text into a literal substring LIKE pattern.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func orderExpressions(req pagination.PageRequest) ([]exp.OrderedExpression, error) {
	orders := make([]exp.OrderedExpression, 0, len(req.Sort)+2)
	hasID := false
	for _, o := range req.Sort {
		col, ok := sortColumns[o.Field]
		if !ok {
			return nil, pagination.ErrInvalidSort.WithMessage("unsupported sort field: " + o.Field)
		}
		if col == "id" {
			hasID = true
		}
		if o.Direction == pagination.Desc {
			orders = append(orders, goqu.C(col).Desc())
		} else {
			orders = append(orders, goqu.C(col).Asc())
		}
	}
	if len(req.Sort) == 0 {
		orders = append(orders, goqu.C("created_at").Asc())
	}
	if !hasID {
		orders = append(orders, goqu.C("id").Asc())
	}
	return orders, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBook(row scanner) (*book.Book, error) {
	var b book.Book
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.Genre, &b.Status, &b.OwnerID, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, book.ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan book: %w", err)
	}
	return &b, nil
}

func collectBooks(rows pgx.Rows) ([]book.Book, error) {
	defer rows.Close()

	books := make([]book.Book, 0)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return books, nil
}
