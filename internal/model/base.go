package model

import (
	"fmt"

	apperrors "github.com/openclinic-br/consultorio-api/pkg/errors"
)

const (
	SortAsc  = "asc"
	SortDesc = "desc"

	MaxPageLimit = 100
)

// ListParams represents common pagination and sorting parameters
type ListParams struct {
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder"`
	Search    string `form:"search"`
}

// Normalize applies defaults and validates the pagination window.
func (p *ListParams) Normalize(defaultSortBy, defaultSortOrder string) error {
	if p.Page == 0 {
		p.Page = 1
	}
	if p.Limit == 0 {
		p.Limit = 10
	}
	if p.Page < 1 {
		return apperrors.Validation("page must be greater than or equal to 1")
	}
	if p.Limit < 1 || p.Limit > MaxPageLimit {
		return apperrors.Validation(fmt.Sprintf("limit must be between 1 and %d", MaxPageLimit))
	}
	if p.SortBy == "" {
		p.SortBy = defaultSortBy
	}
	if p.SortOrder == "" {
		p.SortOrder = defaultSortOrder
	}
	if p.SortOrder != SortAsc && p.SortOrder != SortDesc {
		return apperrors.Validation("sortOrder must be asc or desc")
	}
	return nil
}

// Offset returns the row offset for the requested page.
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// PageInfo carries pagination metadata for list responses.
type PageInfo struct {
	TotalCount      int  `json:"totalCount"`
	TotalPages      int  `json:"totalPages"`
	CurrentPage     int  `json:"currentPage"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

// NewPageInfo computes pagination metadata. An empty result set yields
// zero total pages and both navigation flags false.
func NewPageInfo(totalCount, page, limit int) PageInfo {
	if totalCount <= 0 {
		return PageInfo{CurrentPage: page}
	}
	totalPages := (totalCount + limit - 1) / limit
	return PageInfo{
		TotalCount:      totalCount,
		TotalPages:      totalPages,
		CurrentPage:     page,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	}
}
