package query

import (
	"slices"
	"sort"
	"strings"
)

// ApplyFilter keeps the records whose fields equal every constrained filter value.
// An empty filter, or one holding only FilterAll values, returns records unchanged.
// A constrained field the schema does not know matches nothing.
func ApplyFilter[T any](records []T, schema *Schema[T], f Filter) []T {
	type constraint struct {
		field string
		value any
	}

	constraints := make([]constraint, 0, len(f))
	for field, value := range f {
		if isAll(value) {
			continue
		}
		constraints = append(constraints, constraint{field: field, value: value})
	}
	if len(constraints) == 0 {
		return records
	}
	// Evaluate in field order, not map order.
	sort.Slice(constraints, func(i, j int) bool { return constraints[i].field < constraints[j].field })

	out := make([]T, 0, len(records))
	for _, rec := range records {
		matched := true
		for _, c := range constraints {
			v, ok := schema.Lookup(rec, c.field)
			if !ok || !equalValues(v, c.value) {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, rec)
		}
	}
	return out
}

// ApplySearch keeps the records where at least one of the search fields contains
// the term, ignoring case. A blank term returns records unchanged. Fields that are
// not strings, or are nil, are skipped for that record.
func ApplySearch[T any](records []T, schema *Schema[T], s Search) []T {
	if strings.TrimSpace(s.Term) == "" || len(s.Fields) == 0 {
		return records
	}
	needle := strings.ToLower(s.Term)

	out := make([]T, 0, len(records))
	for _, rec := range records {
		for _, field := range s.Fields {
			v, ok := schema.Lookup(rec, field)
			if !ok {
				continue
			}
			str, ok := stringValue(v)
			if !ok {
				continue
			}
			if strings.Contains(strings.ToLower(str), needle) {
				out = append(out, rec)
				break
			}
		}
	}
	return out
}

// ApplySort returns a stably sorted copy of records. Descending order inverts the
// comparison rather than reversing the output, so ties keep their input order in
// both directions. An empty sort field returns records unchanged.
func ApplySort[T any](records []T, schema *Schema[T], s Sort) []T {
	if s.Field == "" || !schema.Has(s.Field) {
		return records
	}

	sorted := slices.Clone(records)
	desc := s.Order == SortDesc
	slices.SortStableFunc(sorted, func(a, b T) int {
		va, _ := schema.Lookup(a, s.Field)
		vb, _ := schema.Lookup(b, s.Field)
		c := compareValues(va, vb)
		if desc {
			return -c
		}
		return c
	})
	return sorted
}

// Paginate slices one page out of records and reports the totals.
// Pages past the end are empty rather than an error.
func Paginate[T any](records []T, p Pagination) Page[T] {
	total := len(records)
	totalPages := 0
	if p.PageSize > 0 {
		totalPages = total / p.PageSize
		if total%p.PageSize != 0 {
			totalPages++
		}
	}

	data := make([]T, 0)
	if p.PageSize > 0 && p.Page >= 1 && p.Page <= totalPages {
		start := p.Offset()
		end := start + min(p.PageSize, total-start)
		data = append(data, records[start:end]...)
	}

	return Page[T]{
		Data:       data,
		Total:      total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: totalPages,
	}
}
