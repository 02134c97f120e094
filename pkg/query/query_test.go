package query

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"
)

type ticketStatus string

type ticket struct {
	ID        string       `json:"id"`
	Status    ticketStatus `json:"status"`
	Priority  int          `json:"priority"`
	Subject   string       `json:"subject"`
	Flagged   string       `json:"flagged"`
	Note      *string      `json:"note"`
	Open      bool         `json:"open"`
	CreatedAt time.Time    `json:"created_at"`
	Stamp     string       `json:"stamp"`
	internal  string
}

var ticketSchema = SchemaFromTags[ticket]("ticket", "json")

var base = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

// makeTickets builds n tickets created one minute apart; every fourth one is resolved.
func makeTickets(n int) []ticket {
	out := make([]ticket, n)
	for i := range out {
		status := ticketStatus("pending")
		if i%4 == 0 {
			status = "resolved"
		}
		out[i] = ticket{
			ID:        fmt.Sprintf("%d", i+1),
			Status:    status,
			Priority:  i % 3,
			Subject:   fmt.Sprintf("subject %d", i+1),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
	}
	return out
}

func ids(records []ticket) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestRun_NewestFirstFirstPage(t *testing.T) {
	records := makeTickets(25)

	page := Run(records, ticketSchema, Options{
		Sort:       Sort{Field: "created_at", Order: SortDesc},
		Pagination: Pagination{Page: 1, PageSize: 10},
	})

	if len(page.Data) != 10 {
		t.Fatalf("expected 10 records, got %d", len(page.Data))
	}
	if page.Data[0].ID != "25" {
		t.Errorf("expected most recent record first, got %s", page.Data[0].ID)
	}
	if page.Total != 25 || page.TotalPages != 3 {
		t.Errorf("expected total=25 totalPages=3, got total=%d totalPages=%d", page.Total, page.TotalPages)
	}
	if page.Page != 1 || page.PageSize != 10 {
		t.Errorf("unexpected page echo: %+v", page)
	}
}

func TestRun_StatusFilter(t *testing.T) {
	records := makeTickets(25) // ids 1,5,9,13,17,21,25 are resolved

	page := Run(records, ticketSchema, Options{
		Filter:     Filter{"status": "resolved"},
		Sort:       Sort{Field: "created_at", Order: SortDesc},
		Pagination: Pagination{Page: 1, PageSize: 10},
	})

	if page.Total != 7 || page.TotalPages != 1 {
		t.Fatalf("expected total=7 totalPages=1, got total=%d totalPages=%d", page.Total, page.TotalPages)
	}
	for _, rec := range page.Data {
		if rec.Status != "resolved" {
			t.Errorf("record %s has status %s", rec.ID, rec.Status)
		}
	}
}

func TestRun_SearchIgnoresCase(t *testing.T) {
	records := makeTickets(10)
	records[2].Subject = "Student was Unable to log in"
	records[7].Flagged = "I am unable to continue"
	records[4].Subject = "able but not matching"

	for _, term := range []string{"unable", "UNABLE", "UnAbLe"} {
		t.Run(term, func(t *testing.T) {
			page := Run(records, ticketSchema, Options{
				Search:     Search{Term: term, Fields: []string{"subject", "flagged"}},
				Pagination: Pagination{Page: 1, PageSize: 10},
			})
			if page.Total != 2 {
				t.Fatalf("expected 2 matches, got %d (%v)", page.Total, ids(page.Data))
			}
			if page.Data[0].ID != "3" || page.Data[1].ID != "8" {
				t.Errorf("search must preserve input order, got %v", ids(page.Data))
			}
		})
	}
}

func TestRun_PageOutOfRange(t *testing.T) {
	records := makeTickets(25)

	page := Run(records, ticketSchema, Options{
		Pagination: Pagination{Page: 4, PageSize: 10},
	})

	if len(page.Data) != 0 {
		t.Fatalf("expected empty page, got %d records", len(page.Data))
	}
	if page.Data == nil {
		t.Error("empty page data should be an empty slice, not nil")
	}
	if page.Total != 25 || page.TotalPages != 3 {
		t.Errorf("expected total=25 totalPages=3, got total=%d totalPages=%d", page.Total, page.TotalPages)
	}
}

func TestRun_DoesNotMutateInput(t *testing.T) {
	records := makeTickets(6)
	before := ids(records)

	Run(records, ticketSchema, Options{
		Sort:       Sort{Field: "created_at", Order: SortDesc},
		Pagination: Pagination{Page: 1, PageSize: 3},
	})

	after := ids(records)
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("input reordered: %v -> %v", before, after)
		}
	}
}

func TestApplyFilter(t *testing.T) {
	records := makeTickets(8)
	note := "escalated"
	records[1].Note = &note
	records[3].Open = true

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{name: "nil filter is identity", filter: nil, want: ids(records)},
		{name: "all sentinel is identity", filter: Filter{"status": FilterAll}, want: ids(records)},
		{name: "typed enum value", filter: Filter{"status": ticketStatus("resolved")}, want: []string{"1", "5"}},
		{name: "numeric kinds compare numerically", filter: Filter{"priority": int64(2)}, want: []string{"3", "6"}},
		{name: "float against int field", filter: Filter{"priority": 1.0}, want: []string{"2", "5", "8"}},
		{name: "bool field", filter: Filter{"open": true}, want: []string{"4"}},
		{name: "pointer field dereferenced", filter: Filter{"note": "escalated"}, want: []string{"2"}},
		{name: "combined constraints", filter: Filter{"status": "pending", "priority": 0}, want: []string{"4", "7"}},
		{name: "unknown field matches nothing", filter: Filter{"missing": "x"}, want: []string{}},
		{name: "string never equals number", filter: Filter{"priority": "1"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(ApplyFilter(records, ticketSchema, tt.filter))
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestApplySearch_SkipsNonStringAndNil(t *testing.T) {
	records := makeTickets(3)
	note := "needs FOLLOW-up"
	records[2].Note = &note

	got := ApplySearch(records, ticketSchema, Search{Term: "follow", Fields: []string{"priority", "note", "open"}})
	if len(got) != 1 || got[0].ID != "3" {
		t.Fatalf("expected only record 3, got %v", ids(got))
	}

	blank := ApplySearch(records, ticketSchema, Search{Term: "   ", Fields: []string{"subject"}})
	if len(blank) != len(records) {
		t.Fatalf("blank term should be identity, got %v", ids(blank))
	}
}

func TestApplySort(t *testing.T) {
	t.Run("timestamp strings compare by instant", func(t *testing.T) {
		records := []ticket{
			{ID: "a", Stamp: "2025-03-01T10:00:00+02:00"}, // 08:00Z
			{ID: "b", Stamp: "2025-03-01T09:00:00Z"},
			{ID: "c", Stamp: "2025-03-01T08:30:00.000Z"},
		}
		got := ids(ApplySort(records, ticketSchema, Sort{Field: "stamp", Order: SortAsc}))
		want := []string{"a", "c", "b"}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("got %v, want %v", got, want)
			}
		}
	})

	t.Run("timestamps sort before unparseable strings", func(t *testing.T) {
		records := []ticket{
			{ID: "bad", Stamp: "2024-01-01Tzz"},
			{ID: "utc", Stamp: "2024-01-01T20:00:00Z"},
			{ID: "offset", Stamp: "2024-01-02T00:00:00+05:00"}, // 2024-01-01T19:00Z
			{ID: "word", Stamp: "a"},
		}
		got := ids(ApplySort(records, ticketSchema, Sort{Field: "stamp", Order: SortAsc}))
		want := []string{"offset", "utc", "bad", "word"}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("got %v, want %v", got, want)
			}
		}

		values := []any{"2024-01-02T00:00:00+05:00", "2024-01-01T20:00:00Z", "2024-01-01Tzz", "a", base, nil}
		for _, a := range values {
			for _, b := range values {
				for _, c := range values {
					if compareValues(a, b) < 0 && compareValues(b, c) < 0 && compareValues(a, c) >= 0 {
						t.Fatalf("ordering not transitive: %v < %v < %v but not %v < %v", a, b, c, a, c)
					}
				}
			}
		}
	})

	t.Run("descending keeps ties in input order", func(t *testing.T) {
		records := makeTickets(6) // priorities 0,1,2,0,1,2
		got := ids(ApplySort(records, ticketSchema, Sort{Field: "priority", Order: SortDesc}))
		want := []string{"3", "6", "2", "5", "1", "4"}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("got %v, want %v", got, want)
			}
		}
	})

	t.Run("nil sorts first ascending", func(t *testing.T) {
		note := "x"
		records := []ticket{{ID: "a", Note: &note}, {ID: "b"}}
		got := ids(ApplySort(records, ticketSchema, Sort{Field: "note", Order: SortAsc}))
		if got[0] != "b" {
			t.Fatalf("expected nil first, got %v", got)
		}
	})

	t.Run("empty field is identity", func(t *testing.T) {
		records := makeTickets(4)
		got := ApplySort(records, ticketSchema, Sort{})
		if ids(got)[0] != "1" {
			t.Fatalf("unexpected reorder: %v", ids(got))
		}
	})
}

func TestPaginate_Empty(t *testing.T) {
	page := Paginate([]ticket{}, Pagination{Page: 1, PageSize: 10})
	if page.Total != 0 || page.TotalPages != 0 || len(page.Data) != 0 {
		t.Fatalf("unexpected empty page: %+v", page)
	}
}

func TestPaginate_HugePageIsEmpty(t *testing.T) {
	records := makeTickets(12)

	tests := []struct {
		name string
		p    Pagination
	}{
		{name: "max int page", p: Pagination{Page: math.MaxInt, PageSize: 10}},
		{name: "offset wraps to small positive", p: Pagination{Page: math.MaxInt/5 + 2, PageSize: 10}},
		{name: "max int page size on page 2", p: Pagination{Page: 2, PageSize: math.MaxInt}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := Run(records, ticketSchema, Options{Pagination: tt.p})
			if len(page.Data) != 0 || page.Data == nil {
				t.Fatalf("expected empty non-nil data, got %v", ids(page.Data))
			}
			if page.Total != 12 || page.Page != tt.p.Page {
				t.Fatalf("totals changed: %+v", page)
			}
		})
	}

	if got := (Pagination{Page: math.MaxInt, PageSize: 10}).Offset(); got != math.MaxInt {
		t.Fatalf("Offset() = %d, want saturation at math.MaxInt", got)
	}

	whole := Paginate(records, Pagination{Page: 1, PageSize: math.MaxInt})
	if len(whole.Data) != 12 || whole.TotalPages != 1 {
		t.Fatalf("single huge page = %d records, %d pages", len(whole.Data), whole.TotalPages)
	}
}

func TestSchema_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{name: "valid", opts: Options{Filter: Filter{"status": "pending"}, Sort: Sort{Field: "created_at", Order: SortDesc}, Pagination: Pagination{Page: 1, PageSize: 10}}},
		{name: "page zero", opts: Options{Pagination: Pagination{Page: 0, PageSize: 10}}, wantErr: true},
		{name: "negative page size", opts: Options{Pagination: Pagination{Page: 1, PageSize: -1}}, wantErr: true},
		{name: "unknown filter", opts: Options{Filter: Filter{"nope": 1}, Pagination: Pagination{Page: 1, PageSize: 1}}, wantErr: true},
		{name: "unknown search field", opts: Options{Search: Search{Term: "x", Fields: []string{"nope"}}, Pagination: Pagination{Page: 1, PageSize: 1}}, wantErr: true},
		{name: "unknown sort", opts: Options{Sort: Sort{Field: "nope"}, Pagination: Pagination{Page: 1, PageSize: 1}}, wantErr: true},
		{name: "bad order", opts: Options{Sort: Sort{Field: "id", Order: "sideways"}, Pagination: Pagination{Page: 1, PageSize: 1}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ticketSchema.Validate(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestSchemaFromTags(t *testing.T) {
	if ticketSchema.Has("internal") {
		t.Error("unexported fields must not be registered")
	}
	for _, field := range []string{"id", "status", "created_at", "note"} {
		if !ticketSchema.Has(field) {
			t.Errorf("expected field %q", field)
		}
	}

	type embedded struct {
		ID string `json:"id"`
	}
	type outer struct {
		embedded
		Name string `json:"name"`
		Skip string `json:"-"`
	}
	s := SchemaFromTags[*outer]("outer", "json")
	v, ok := s.Lookup(&outer{embedded: embedded{ID: "x"}, Name: "n"}, "id")
	if !ok || v != "x" {
		t.Fatalf("expected embedded id, got %v %v", v, ok)
	}
	if s.Has("Skip") || s.Has("-") {
		t.Error("fields tagged - must be skipped")
	}
	if v, _ := s.Lookup(nil, "name"); v != nil {
		t.Errorf("nil pointer should read as nil, got %v", v)
	}
}

func TestCursor_ResetsPageOnFilterAndSearch(t *testing.T) {
	c := NewCursor(10, Sort{Field: "created_at", Order: SortDesc})
	c.SetPage(3)

	c.SetFilter("status", "resolved")
	if got := c.Options().Pagination.Page; got != 1 {
		t.Fatalf("filter change should reset page, got %d", got)
	}

	c.SetPage(2)
	c.SetFilter("status", "resolved")
	if got := c.Options().Pagination.Page; got != 2 {
		t.Fatalf("unchanged filter should keep page, got %d", got)
	}

	c.SetSearch("unable", "subject")
	if got := c.Options().Pagination.Page; got != 1 {
		t.Fatalf("search change should reset page, got %d", got)
	}

	c.SetPage(2)
	c.SetSort(Sort{Field: "priority"})
	if got := c.Options().Pagination.Page; got != 2 {
		t.Fatalf("sort change should keep page, got %d", got)
	}

	c.SetFilter("status", FilterAll)
	opts := c.Options()
	if _, ok := opts.Filter["status"]; ok || opts.Pagination.Page != 1 {
		t.Fatalf("clearing a filter should drop it and reset page: %+v", opts)
	}

	opts.Filter["leak"] = 1
	if _, ok := c.Options().Filter["leak"]; ok {
		t.Fatal("Options must return a copy")
	}
}

func TestMap(t *testing.T) {
	page := Paginate(makeTickets(5), Pagination{Page: 2, PageSize: 2})
	mapped := Map(page, func(t ticket) string { return t.ID })
	if mapped.Total != 5 || mapped.TotalPages != 3 || len(mapped.Data) != 2 || mapped.Data[0] != "3" {
		t.Fatalf("unexpected mapped page: %+v", mapped)
	}
}
