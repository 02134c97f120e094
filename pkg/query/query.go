// Package query implements the in-memory collection query pipeline shared by every
// admin domain: exact-match filtering, free-text search, stable sorting and page slicing.
//
// The pipeline is pure. It never mutates the slice it is given and keeps no state
// between calls, so callers can run it over any consistent snapshot of a store.
package query

import "math"

// FilterAll is the filter value meaning "no constraint on this field".
const FilterAll = "all"

// Options encapsulates filtering, searching, sorting, and pagination for a query.
type Options struct {
	Filter     Filter     `json:"filter,omitempty"`
	Search     Search     `json:"search"`
	Sort       Sort       `json:"sort"`
	Pagination Pagination `json:"pagination"`
}

// Filter maps a field name to the value it must equal.
// Absent keys and FilterAll values impose no constraint.
type Filter map[string]any

// Search is a case-insensitive substring match over named string fields.
type Search struct {
	Term   string   `json:"term,omitempty"`
	Fields []string `json:"fields,omitempty"`
}

// Sort specifies field and direction for sorting results
type Sort struct {
	Field string    `json:"field"`
	Order SortOrder `json:"order"`
}

// SortOrder defines the sort direction for queries.
type SortOrder string

// Sort order constants
const (
	// SortAsc sorts in ascending order
	SortAsc SortOrder = "asc"
	// SortDesc sorts in descending order
	SortDesc SortOrder = "desc"
)

// ParseSortOrder accepts "asc"/"ascending" and "desc"/"descending".
func ParseSortOrder(s string) (SortOrder, bool) {
	switch s {
	case "asc", "ascending":
		return SortAsc, true
	case "desc", "descending":
		return SortDesc, true
	default:
		return "", false
	}
}

// Pagination specifies 1-based page pagination parameters
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// Offset returns the index of the first record on the page. It saturates at
// math.MaxInt when the product does not fit in an int.
func (p Pagination) Offset() int {
	if p.Page <= 1 || p.PageSize <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.PageSize {
		return math.MaxInt
	}
	return (p.Page - 1) * p.PageSize
}

// Limit returns the page size
func (p Pagination) Limit() int {
	return p.PageSize
}

// Page is the envelope returned by a paginated query.
type Page[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// Run applies Filter, Search, Sort and Paginate to records, strictly in that order.
// Total and TotalPages describe the filtered and searched set, before slicing.
//
// Run assumes opts has been validated with Schema.Validate; it has no error path.
func Run[T any](records []T, schema *Schema[T], opts Options) Page[T] {
	out := ApplyFilter(records, schema, opts.Filter)
	out = ApplySearch(out, schema, opts.Search)
	out = ApplySort(out, schema, opts.Sort)
	return Paginate(out, opts.Pagination)
}

// Map converts the records of a page while keeping its totals.
func Map[T, U any](p Page[T], fn func(T) U) Page[U] {
	data := make([]U, len(p.Data))
	for i, rec := range p.Data {
		data[i] = fn(rec)
	}
	return Page[U]{
		Data:       data,
		Total:      p.Total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: p.TotalPages,
	}
}
