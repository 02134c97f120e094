package query

// Cursor tracks the query a caller is browsing with. Changing the filter, the
// search term or the page size moves the cursor back to page 1; changing the
// sort or the page does not.
type Cursor struct {
	opts Options
}

// NewCursor starts on page 1 with the given page size and sort.
func NewCursor(pageSize int, sort Sort) *Cursor {
	return &Cursor{
		opts: Options{
			Filter:     Filter{},
			Sort:       sort,
			Pagination: Pagination{Page: 1, PageSize: pageSize},
		},
	}
}

// Options returns a copy of the current query options.
func (c *Cursor) Options() Options {
	out := c.opts
	out.Filter = make(Filter, len(c.opts.Filter))
	for k, v := range c.opts.Filter {
		out.Filter[k] = v
	}
	out.Search.Fields = append([]string(nil), c.opts.Search.Fields...)
	return out
}

// SetFilter constrains field to value; FilterAll clears the constraint.
func (c *Cursor) SetFilter(field string, value any) {
	if isAll(value) {
		if _, ok := c.opts.Filter[field]; !ok {
			return
		}
		delete(c.opts.Filter, field)
	} else {
		if current, ok := c.opts.Filter[field]; ok && equalValues(current, value) {
			return
		}
		c.opts.Filter[field] = value
	}
	c.opts.Pagination.Page = 1
}

// SetSearch replaces the search term and fields.
func (c *Cursor) SetSearch(term string, fields ...string) {
	if term == c.opts.Search.Term && len(fields) == 0 {
		return
	}
	c.opts.Search.Term = term
	if len(fields) > 0 {
		c.opts.Search.Fields = append([]string(nil), fields...)
	}
	c.opts.Pagination.Page = 1
}

// SetSort changes the ordering and keeps the current page.
func (c *Cursor) SetSort(s Sort) {
	c.opts.Sort = s
}

// SetPage moves to page.
func (c *Cursor) SetPage(page int) {
	c.opts.Pagination.Page = page
}

// SetPageSize changes the page size and returns to page 1.
func (c *Cursor) SetPageSize(size int) {
	if size == c.opts.Pagination.PageSize {
		return
	}
	c.opts.Pagination.PageSize = size
	c.opts.Pagination.Page = 1
}
