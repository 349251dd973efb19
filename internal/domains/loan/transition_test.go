package loan

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/domains/book"
)

func TestNextBookStatus(t *testing.T) {
	cases := []struct {
		name    string
		current book.Status
		event   Event
		want    book.Status
		wantErr error
	}{
		{"open available", book.StatusAvailable, EventOpened, book.StatusBorrowed, nil},
		{"open borrowed", book.StatusBorrowed, EventOpened, book.StatusBorrowed, ErrBookAlreadyOnLoan},
		{"return borrowed", book.StatusBorrowed, EventReturned, book.StatusAvailable, nil},
		{"return available", book.StatusAvailable, EventReturned, book.StatusAvailable, nil},
		{"delete active", book.StatusBorrowed, EventActiveDeleted, book.StatusAvailable, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NextBookStatus(tc.current, tc.event)
			if tc.wantErr != nil {
				assert.True(t, errors.Is(err, tc.wantErr))
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNextBookStatus_UnknownEvent(t *testing.T) {
	_, err := NextBookStatus(book.StatusAvailable, Event("LOST"))
	assert.Error(t, err)
}

func TestNextBookStatus_Cycles(t *testing.T) {
	status := book.StatusAvailable
	for i := 0; i < 5; i++ {
		var err error
		status, err = NextBookStatus(status, EventOpened)
		require.NoError(t, err)
		status, err = NextBookStatus(status, EventReturned)
		require.NoError(t, err)
	}
	assert.Equal(t, book.StatusAvailable, status)
}
