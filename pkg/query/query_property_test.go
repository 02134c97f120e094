package query

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var statusNames = []ticketStatus{"pending", "in-progress", "resolved", "closed"}

// ticketsFrom builds one ticket per generated code. The code picks the status
// and the priority so generated collections carry plenty of ties.
func ticketsFrom(codes []int) []ticket {
	out := make([]ticket, len(codes))
	for i, code := range codes {
		out[i] = ticket{
			ID:        fmt.Sprintf("t%04d", i),
			Status:    statusNames[code%len(statusNames)],
			Priority:  code % 3,
			Subject:   fmt.Sprintf("subject-%d", code),
			CreatedAt: base.Add(time.Duration(code) * time.Hour),
		}
	}
	return out
}

func sameIDs(a, b []ticket) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}

func newProperties() *gopter.Properties {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	return gopter.NewProperties(parameters)
}

// TestProperty_FilterIdentity verifies that an empty filter or one holding only
// the all sentinel returns the collection unchanged.
func TestProperty_FilterIdentity(t *testing.T) {
	properties := newProperties()

	properties.Property("empty and all-only filters are identity", prop.ForAll(
		func(codes []int) bool {
			records := ticketsFrom(codes)
			empty := ApplyFilter(records, ticketSchema, Filter{})
			allOnly := ApplyFilter(records, ticketSchema, Filter{"status": FilterAll, "priority": FilterAll})
			return sameIDs(empty, records) && sameIDs(allOnly, records)
		},
		gen.SliceOf(gen.IntRange(0, 50)),
	))

	properties.TestingRun(t)
}

// TestProperty_FilterCorrectness verifies that a filter returns exactly the
// records whose field equals the value, in input order.
func TestProperty_FilterCorrectness(t *testing.T) {
	properties := newProperties()

	properties.Property("filter keeps exactly the matching records", prop.ForAll(
		func(codes []int, pick int) bool {
			records := ticketsFrom(codes)
			status := statusNames[pick]

			got := ApplyFilter(records, ticketSchema, Filter{"status": status})

			want := make([]ticket, 0)
			for _, r := range records {
				if r.Status == status {
					want = append(want, r)
				}
			}
			return sameIDs(got, want)
		},
		gen.SliceOf(gen.IntRange(0, 50)),
		gen.IntRange(0, len(statusNames)-1),
	))

	properties.TestingRun(t)
}

// TestProperty_SearchCaseInsensitive verifies that changing the case of the
// term never changes the result, and that a blank term is identity.
func TestProperty_SearchCaseInsensitive(t *testing.T) {
	properties := newProperties()

	properties.Property("upper and lower case terms match the same records", prop.ForAll(
		func(subjects []string, term string) bool {
			records := make([]ticket, len(subjects))
			for i, s := range subjects {
				records[i] = ticket{ID: fmt.Sprintf("t%04d", i), Subject: s}
			}
			search := func(term string) []ticket {
				return ApplySearch(records, ticketSchema, Search{Term: term, Fields: []string{"subject"}})
			}

			lower := search(strings.ToLower(term))
			upper := search(strings.ToUpper(term))
			if !sameIDs(lower, upper) {
				return false
			}
			for _, r := range lower {
				if !strings.Contains(strings.ToLower(r.Subject), strings.ToLower(term)) {
					return false
				}
			}
			return sameIDs(search(""), records)
		},
		gen.SliceOf(gen.AlphaString()),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

// TestProperty_SortStable verifies that records with equal keys keep their input
// order in both directions and that adjacent keys are ordered.
func TestProperty_SortStable(t *testing.T) {
	properties := newProperties()

	properties.Property("equal keys keep input order", prop.ForAll(
		func(codes []int, desc bool) bool {
			records := ticketsFrom(codes)
			order := SortAsc
			if desc {
				order = SortDesc
			}

			sorted := ApplySort(records, ticketSchema, Sort{Field: "priority", Order: order})
			if len(sorted) != len(records) {
				return false
			}
			for i := 1; i < len(sorted); i++ {
				prev, cur := sorted[i-1], sorted[i]
				if prev.Priority == cur.Priority {
					if prev.ID >= cur.ID {
						return false
					}
					continue
				}
				if desc != (prev.Priority > cur.Priority) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 50)),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// TestProperty_PaginationCoverage verifies that concatenating pages 1..totalPages
// reproduces the collection and that later pages are empty.
func TestProperty_PaginationCoverage(t *testing.T) {
	properties := newProperties()

	properties.Property("pages cover the collection exactly once", prop.ForAll(
		func(codes []int, pageSize int) bool {
			records := ticketsFrom(codes)
			first := Paginate(records, Pagination{Page: 1, PageSize: pageSize})
			if first.Total != len(records) {
				return false
			}
			if first.TotalPages != (len(records)+pageSize-1)/pageSize {
				return false
			}

			joined := make([]ticket, 0, len(records))
			for page := 1; page <= first.TotalPages; page++ {
				p := Paginate(records, Pagination{Page: page, PageSize: pageSize})
				if len(p.Data) == 0 || len(p.Data) > pageSize {
					return false
				}
				joined = append(joined, p.Data...)
			}
			if !sameIDs(joined, records) {
				return false
			}

			past := Paginate(records, Pagination{Page: first.TotalPages + 1, PageSize: pageSize})
			return len(past.Data) == 0 && past.Total == len(records)
		},
		gen.SliceOf(gen.IntRange(0, 50)),
		gen.IntRange(1, 15),
	))

	properties.TestingRun(t)
}

// TestProperty_TotalIndependentOfPageSize verifies that the reported total of a
// full query does not depend on how it is paged.
func TestProperty_TotalIndependentOfPageSize(t *testing.T) {
	properties := newProperties()

	properties.Property("total ignores page size", prop.ForAll(
		func(codes []int, pick, a, b int) bool {
			records := ticketsFrom(codes)
			opts := func(size int) Options {
				return Options{
					Filter:     Filter{"status": statusNames[pick]},
					Sort:       Sort{Field: "created_at", Order: SortDesc},
					Pagination: Pagination{Page: 1, PageSize: size},
				}
			}
			return Run(records, ticketSchema, opts(a)).Total == Run(records, ticketSchema, opts(b)).Total
		},
		gen.SliceOf(gen.IntRange(0, 50)),
		gen.IntRange(0, len(statusNames)-1),
		gen.IntRange(1, 20),
		gen.IntRange(1, 20),
	))

	properties.TestingRun(t)
}
