package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/openclinic-br/consultorio-api/pkg/errors"
)

func TestNormalizeAppliesDefaults(t *testing.T) {
	p := ListParams{}
	require.NoError(t, p.Normalize("name", SortAsc))
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 10, p.Limit)
	assert.Equal(t, "name", p.SortBy)
	assert.Equal(t, SortAsc, p.SortOrder)
}

func TestNormalizeKeepsExplicitValues(t *testing.T) {
	p := ListParams{Page: 3, Limit: 25, SortBy: "credits", SortOrder: SortDesc}
	require.NoError(t, p.Normalize("name", SortAsc))
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 25, p.Limit)
	assert.Equal(t, "credits", p.SortBy)
	assert.Equal(t, SortDesc, p.SortOrder)
}

func TestNormalizeRejectsBadWindow(t *testing.T) {
	cases := []ListParams{
		{Page: -1},
		{Limit: -5},
		{Limit: MaxPageLimit + 1},
		{SortOrder: "sideways"},
	}
	for _, p := range cases {
		err := p.Normalize("name", SortAsc)
		assert.True(t, apperrors.IsValidation(err), "params %+v", p)
	}
}

func TestOffset(t *testing.T) {
	p := ListParams{Page: 3, Limit: 10}
	assert.Equal(t, 20, p.Offset())
}

func TestNewPageInfo(t *testing.T) {
	info := NewPageInfo(45, 2, 10)
	assert.Equal(t, 45, info.TotalCount)
	assert.Equal(t, 5, info.TotalPages)
	assert.Equal(t, 2, info.CurrentPage)
	assert.True(t, info.HasNextPage)
	assert.True(t, info.HasPreviousPage)

	exact := NewPageInfo(40, 4, 10)
	assert.Equal(t, 4, exact.TotalPages)
	assert.False(t, exact.HasNextPage)

	single := NewPageInfo(7, 1, 10)
	assert.Equal(t, 1, single.TotalPages)
	assert.False(t, single.HasNextPage)
	assert.False(t, single.HasPreviousPage)
}

func TestNewPageInfoEmpty(t *testing.T) {
	info := NewPageInfo(0, 1, 10)
	assert.Equal(t, 0, info.TotalCount)
	assert.Equal(t, 0, info.TotalPages)
	assert.Equal(t, 1, info.CurrentPage)
	assert.False(t, info.HasNextPage)
	assert.False(t, info.HasPreviousPage)
}
