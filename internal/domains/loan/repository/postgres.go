package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"library-backend/internal/domains/loan"
	"library-backend/internal/shared/pagination"
	pkgdb "library-backend/pkg/database"
)

const (
	dialectPostgres = "postgres"
	tableLoans      = "loans"

	constraintOneActivePerBook = "loans_one_active_per_book"
	constraintReturnAfterLoan  = "loans_return_after_loan"
)

var loanColumns = []interface{}{
	"id", "book_id", "owner_id", "borrower", "loan_date", "due_date", "return_date", "created_at", "updated_at",
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) loan.Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) q(ctx context.Context) pkgdb.Querier {
	return pkgdb.QuerierFrom(ctx, r.pool)
}

// ========================================
// READS
// ========================================

func (r *postgresRepository) ListAll(ctx context.Context, ownerID uuid.UUID) ([]loan.Loan, error) {
	query := `
		SELECT id, book_id, owner_id, borrower, loan_date, due_date, return_date, created_at, updated_at
		FROM loans
		WHERE owner_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.q(ctx).Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	return collectLoans(rows)
}

func (r *postgresRepository) Page(ctx context.Context, ownerID uuid.UUID, activeOnly bool, req pagination.PageRequest) ([]loan.Loan, int64, error) {
	base := ownedLoans(ownerID, activeOnly)

	countSQL, countArgs, err := base.Select(goqu.COUNT(goqu.Star())).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	var total int64
	if err := r.q(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count loans: %w", err)
	}
	if total == 0 || int64(req.Offset()) >= total {
		return []loan.Loan{}, total, nil
	}

	pageSQL, pageArgs, err := pageQuery(base, req)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.q(ctx).Query(ctx, pageSQL, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("page loans: %w", err)
	}
	loans, err := collectLoans(rows)
	if err != nil {
		return nil, 0, err
	}
	return loans, total, nil
}

func (r *postgresRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*loan.Loan, error) {
	query := `
		SELECT id, book_id, owner_id, borrower, loan_date, due_date, return_date, created_at, updated_at
		FROM loans
		WHERE id = $1 AND owner_id = $2
	`
	return scanLoan(r.q(ctx).QueryRow(ctx, query, id, ownerID))
}

func (r *postgresRepository) FindByIDForUpdate(ctx context.Context, ownerID, id uuid.UUID) (*loan.Loan, error) {
	query := `
		SELECT id, book_id, owner_id, borrower, loan_date, due_date, return_date, created_at, updated_at
		FROM loans
		WHERE id = $1 AND owner_id = $2
		FOR UPDATE
	`
	return scanLoan(r.q(ctx).QueryRow(ctx, query, id, ownerID))
}

// ========================================
// WRITES
// ========================================

func (r *postgresRepository) Create(ctx context.Context, l *loan.Loan) error {
	query := `
		INSERT INTO loans (id, book_id, owner_id, borrower, loan_date, due_date, return_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.q(ctx).Exec(ctx, query,
		l.ID, l.BookID, l.OwnerID, l.Borrower, l.LoanDate, l.DueDate, l.ReturnDate, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return translateWriteError("insert loan", err)
	}
	return nil
}

func (r *postgresRepository) Update(ctx context.Context, l *loan.Loan) error {
	query := `
		UPDATE loans
		SET borrower = $1, loan_date = $2, due_date = $3, return_date = $4, updated_at = $5
		WHERE id = $6 AND owner_id = $7
	`
	tag, err := r.q(ctx).Exec(ctx, query,
		l.Borrower, l.LoanDate, l.DueDate, l.ReturnDate, l.UpdatedAt, l.ID, l.OwnerID,
	)
	if err != nil {
		return translateWriteError("update loan", err)
	}
	if tag.RowsAffected() == 0 {
		return loan.ErrLoanNotFound
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	tag, err := r.q(ctx).Exec(ctx, `DELETE FROM loans WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete loan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return loan.ErrLoanNotFound
	}
	return nil
}

// ========================================
// HELPERS
// ========================================

func ownedLoans(ownerID uuid.UUID, activeOnly bool) *goqu.SelectDataset {
	ds := goqu.Dialect(dialectPostgres).
		From(tableLoans).
		Prepared(true).
		Where(goqu.C("owner_id").Eq(ownerID))
	if activeOnly {
		ds = ds.Where(goqu.C("return_date").IsNull())
	}
	return ds
}

func pageQuery(base *goqu.SelectDataset, req pagination.PageRequest) (string, []interface{}, error) {
	query, args, err := base.
		Select(loanColumns...).
		Order(orderExpressions(req)...).
		Limit(uint(req.Size)).
		Offset(uint(req.Offset())).
		ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build page query: %w", err)
	}
	return query, args, nil
}

func translateWriteError(op string, err error) error {
	switch pkgdb.PgErrorCode(err) {
	case pkgdb.CodeUniqueViolation:
		if pkgdb.PgConstraint(err) == constraintOneActivePerBook {
			return loan.ErrBookAlreadyOnLoan.Wrap(err)
		}
	case pkgdb.CodeCheckViolation:
		if pkgdb.PgConstraint(err) == constraintReturnAfterLoan {
			return loan.ErrInvalidReturnDate.Wrap(err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// orderExpressions expects fields already checked against loan.SortFields.
func orderExpressions(req pagination.PageRequest) []exp.OrderedExpression {
	orders := make([]exp.OrderedExpression, 0, len(req.Sort)+2)
	hasID := false
	for _, o := range req.Sort {
		if o.Field == "id" {
			hasID = true
		}
		col := goqu.C(o.Field)
		if o.Direction == pagination.Desc {
			orders = append(orders, col.Desc().NullsLast())
		} else {
			orders = append(orders, col.Asc().NullsLast())
		}
	}
	if len(req.Sort) == 0 {
		orders = append(orders, goqu.C("created_at").Asc())
	}
	if !hasID {
		orders = append(orders, goqu.C("id").Asc())
	}
	return orders
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLoan(row scanner) (*loan.Loan, error) {
	var l loan.Loan
	err := row.Scan(
		&l.ID, &l.BookID, &l.OwnerID, &l.Borrower,
		&l.LoanDate, &l.DueDate, &l.ReturnDate,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, loan.ErrLoanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan loan: %w", err)
	}
	return &l, nil
}

func collectLoans(rows pgx.Rows) ([]loan.Loan, error) {
	defer rows.Close()

	loans := make([]loan.Loan, 0)
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return loans, nil
}
