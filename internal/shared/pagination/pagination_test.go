package pagination

import (
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	req, err := Parse("", "", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, req.Page)
	assert.Equal(t, DefaultSize, req.Size)
	assert.Empty(t, req.Sort)
}

func TestParse_ClampsSize(t *testing.T) {
	req, err := Parse("2", "500", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, req.Page)
	assert.Equal(t, MaxSize, req.Size)
	assert.Equal(t, 200, req.Offset())
}

func TestParse_Sort(t *testing.T) {
	req, err := Parse("0", "10", []string{"title,DESC", "created_at", " "})
	require.NoError(t, err)
	assert.Equal(t, []Order{
		{Field: "title", Direction: Desc},
		{Field: "created_at", Direction: Asc},
	}, req.Sort)
}

func TestParse_Rejects(t *testing.T) {
	cases := []struct {
		name  string
		page  string
		size  string
		sorts []string
		want  error
	}{
		{"negative page", "-1", "", nil, ErrInvalidPage},
		{"non numeric page", "abc", "", nil, ErrInvalidPage},
		{"zero size", "0", "0", nil, ErrInvalidSize},
		{"offset overflows", "461168601842738791", "20", nil, ErrInvalidPage},
		{"bad direction", "", "", []string{"title,up"}, ErrInvalidSort},
		{"too many parts", "", "", []string{"title,asc,x"}, ErrInvalidSort},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.page, tc.size, tc.sorts)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestValidateSort(t *testing.T) {
	req := NewPageRequest(0, 10, Order{Field: "title"}, Order{Field: "password"})
	err := req.ValidateSort("title", "author")
	assert.True(t, errors.Is(err, ErrInvalidSort))

	assert.NoError(t, NewPageRequest(0, 10, Order{Field: "author"}).ValidateSort("title", "author"))
}

func TestSlice(t *testing.T) {
	all := make([]int, 25)
	for i := range all {
		all[i] = i
	}

	first := Slice(all, NewPageRequest(0, 20))
	assert.Len(t, first.Content, 20)
	assert.Equal(t, int64(25), first.TotalElements)
	assert.Equal(t, 2, first.TotalPages)

	second := Slice(all, NewPageRequest(1, 20))
	assert.Equal(t, []int{20, 21, 22, 23, 24}, second.Content)

	beyond := Slice(all, NewPageRequest(5, 20))
	assert.NotNil(t, beyond.Content)
	assert.Empty(t, beyond.Content)
	assert.Equal(t, int64(25), beyond.TotalElements)
}

func TestNewPage_NilContentBecomesEmpty(t *testing.T) {
	p := NewPage[string](nil, NewPageRequest(0, 20), 0)
	assert.NotNil(t, p.Content)
	assert.Equal(t, 0, p.TotalPages)
}

func TestParse_LargestPageHasNonNegativeOffset(t *testing.T) {
	req, err := Parse(strconv.Itoa(math.MaxInt/MaxSize), "500", nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, req.Offset(), 0)

	page := Slice([]int{1, 2, 3}, req)
	assert.Empty(t, page.Content)
	assert.Equal(t, int64(3), page.TotalElements)
}

func TestNewPageRequest_CapsPage(t *testing.T) {
	req := NewPageRequest(math.MaxInt, 20)
	assert.Equal(t, math.MaxInt/20, req.Page)
	assert.GreaterOrEqual(t, req.Offset(), 0)
	assert.Empty(t, Slice([]int{1}, req).Content)
}
