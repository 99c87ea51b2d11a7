package rpc

import (
	"strings"
)

// Pagination bounds shared by every list procedure.
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MinPageSize     = 1
	MaxPageSize     = 100
)

// PageInput is the wire input of a getMany procedure. Absent fields take
// their defaults; present fields must be in range.
type PageInput struct {
	Page     *int    `json:"page,omitempty" validate:"omitempty,min=1"`
	PageSize *int    `json:"pageSize,omitempty" validate:"omitempty,min=1,max=100"`
	Search   *string `json:"search,omitempty"`
}

// Paging is a PageInput with defaults applied.
type Paging struct {
	Page     int
	PageSize int
	Search   string
}

// NewPageInput builds a PageInput with every field set.
func NewPageInput(page, pageSize int, search string) PageInput {
	return PageInput{Page: &page, PageSize: &pageSize, Search: &search}
}

// Resolve validates in and applies defaults. Search is trimmed; a blank
// search means no filter.
func (in PageInput) Resolve() (Paging, error) {
	if err := Validate(in); err != nil {
		return Paging{}, err
	}
	p := Paging{Page: DefaultPage, PageSize: DefaultPageSize}
	if in.Page != nil {
		p.Page = *in.Page
	}
	if in.PageSize != nil {
		p.PageSize = *in.PageSize
	}
	if in.Search != nil {
		p.Search = strings.TrimSpace(*in.Search)
	}
	return p, nil
}

// Offset returns the number of rows to skip for the current page.
func (p Paging) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// TotalPages returns ceil(total / pageSize).
func (p Paging) TotalPages(total int64) int {
	if total <= 0 || p.PageSize <= 0 {
		return 0
	}
	size := int64(p.PageSize)
	return int((total + size - 1) / size)
}

// Page is one page of a list result.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// LikeEscape is the escape character used by LikePattern. Backslash is
// avoided because MySQL and SQLite disagree on how to spell it in a literal.
const LikeEscape = "!"

// LikePattern returns a lower-cased `%search%` pattern with LIKE
// metacharacters escaped, for use with `col LIKE ? ESCAPE '!'` against a
// column holding models.SearchKey of the name.
func LikePattern(search string) string {
	r := strings.NewReplacer(
		LikeEscape, LikeEscape+LikeEscape,
		"%", LikeEscape+"%",
		"_", LikeEscape+"_",
	)
	return "%" + r.Replace(strings.ToLower(search)) + "%"
}
