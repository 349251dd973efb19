package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/domains/loan"
	"library-backend/internal/shared/apperror"
	"library-backend/internal/shared/pagination"
)

func TestOwnedLoans_Count(t *testing.T) {
	owner := uuid.New()

	query, args, err := ownedLoans(owner, false).Select(loanColumns...).ToSQL()
	require.NoError(t, err)
	assert.Contains(t, query, `FROM "loans"`)
	assert.Contains(t, query, `("owner_id" = $1)`)
	assert.NotContains(t, query, "return_date\" IS NULL")
	require.Len(t, args, 1)
	assert.Equal(t, owner.String(), fmt.Sprint(args[0]))
}

func TestOwnedLoans_ActiveOnly(t *testing.T) {
	query, _, err := ownedLoans(uuid.New(), true).Select(loanColumns...).ToSQL()
	require.NoError(t, err)
	assert.Contains(t, query, `("owner_id" = $1)`)
	assert.Contains(t, query, `("return_date" IS NULL)`)
}

func TestPageQuery_NullableDatesSortLast(t *testing.T) {
	req := pagination.NewPageRequest(0, 20,
		pagination.Order{Field: "due_date", Direction: pagination.Desc},
		pagination.Order{Field: "borrower", Direction: pagination.Asc},
	)
	query, _, err := pageQuery(ownedLoans(uuid.New(), false), req)
	require.NoError(t, err)
	assert.Contains(t, query, `ORDER BY "due_date" DESC NULLS LAST, "borrower" ASC NULLS LAST, "id" ASC`)
}

func TestPageQuery_DefaultOrder(t *testing.T) {
	query, _, err := pageQuery(ownedLoans(uuid.New(), true), pagination.NewPageRequest(2, 10))
	require.NoError(t, err)
	assert.Contains(t, query, `ORDER BY "created_at" ASC, "id" ASC`)
	assert.Contains(t, query, "LIMIT")
	assert.Contains(t, query, "OFFSET")
}

func TestTranslateWriteError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
		kind apperror.Kind
	}{
		{
			name: "second active loan",
			err:  &pgconn.PgError{Code: "23505", ConstraintName: constraintOneActivePerBook},
			want: loan.ErrBookAlreadyOnLoan,
			kind: apperror.KindConflict,
		},
		{
			name: "return before loan",
			err:  fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23514", ConstraintName: constraintReturnAfterLoan}),
			want: loan.ErrInvalidReturnDate,
			kind: apperror.KindBadRequest,
		},
		{
			name: "unrelated unique index",
			err:  &pgconn.PgError{Code: "23505", ConstraintName: "loans_pkey"},
			kind: apperror.KindInternal,
		},
		{
			name: "not a postgres error",
			err:  errors.New("connection reset"),
			kind: apperror.KindInternal,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := translateWriteError("insert loan", tc.err)
			if tc.want != nil {
				assert.True(t, errors.Is(err, tc.want), "got %v", err)
			}
			assert.Equal(t, tc.kind, apperror.KindOf(err))
			assert.ErrorIs(t, err, tc.err)
		})
	}
}
