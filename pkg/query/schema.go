package query

import (
	"reflect"
	"sort"
	"strings"
)

// Schema maps field names to accessors for one record shape.
// Domains register the fields they allow callers to filter, search and sort on.
type Schema[T any] struct {
	entity string
	fields map[string]func(T) any
}

// NewSchema creates an empty schema for the named entity.
func NewSchema[T any](entity string) *Schema[T] {
	return &Schema[T]{
		entity: entity,
		fields: make(map[string]func(T) any),
	}
}

// Field registers an accessor under name, replacing any previous one.
func (s *Schema[T]) Field(name string, get func(T) any) *Schema[T] {
	s.fields[name] = get
	return s
}

// Entity returns the entity name the schema describes.
func (s *Schema[T]) Entity() string {
	return s.entity
}

// Has reports whether name is a registered field.
func (s *Schema[T]) Has(name string) bool {
	_, ok := s.fields[name]
	return ok
}

// Fields returns the registered field names in sorted order.
func (s *Schema[T]) Fields() []string {
	names := make([]string, 0, len(s.fields))
	for name := range s.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup reads a field from a record. The second result is false when the
// field is not registered.
func (s *Schema[T]) Lookup(rec T, name string) (any, bool) {
	get, ok := s.fields[name]
	if !ok {
		return nil, false
	}
	return get(rec), true
}

// Validate checks opts against the schema and the pagination contract.
// It returns an *InvalidArgumentError for the first violation found.
func (s *Schema[T]) Validate(opts Options) error {
	if opts.Pagination.Page < 1 {
		return NewInvalidArgumentError("page", opts.Pagination.Page, "must be >= 1")
	}
	if opts.Pagination.PageSize < 1 {
		return NewInvalidArgumentError("page_size", opts.Pagination.PageSize, "must be >= 1")
	}

	keys := make([]string, 0, len(opts.Filter))
	for field := range opts.Filter {
		keys = append(keys, field)
	}
	sort.Strings(keys)
	for _, field := range keys {
		if !s.Has(field) {
			return NewInvalidArgumentError(field, opts.Filter[field], "unknown filter field for "+s.entity)
		}
	}

	for _, field := range opts.Search.Fields {
		if !s.Has(field) {
			return NewInvalidArgumentError(field, opts.Search.Term, "unknown search field for "+s.entity)
		}
	}

	if opts.Sort.Field != "" && !s.Has(opts.Sort.Field) {
		return NewInvalidArgumentError("sort", opts.Sort.Field, "unknown sort field for "+s.entity)
	}
	switch opts.Sort.Order {
	case "", SortAsc, SortDesc:
	default:
		return NewInvalidArgumentError("order", string(opts.Sort.Order), "must be asc or desc")
	}

	return nil
}

// SchemaFromTags builds a schema from the exported fields of T using the given
// struct tag for names (for example "json"). Embedded structs without a tag are
// flattened, fields tagged "-" are skipped and untagged fields use their Go name.
// T may be a struct or a pointer to a struct; a nil pointer yields nil values.
func SchemaFromTags[T any](entity, tag string) *Schema[T] {
	s := NewSchema[T](entity)

	t := reflect.TypeOf((*T)(nil)).Elem()
	isPtr := t.Kind() == reflect.Ptr
	if isPtr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return s
	}

	for name, index := range taggedFields(t, tag, nil) {
		idx := index
		s.Field(name, func(rec T) any {
			v := reflect.ValueOf(rec)
			if isPtr {
				if v.IsNil() {
					return nil
				}
				v = v.Elem()
			}
			return v.FieldByIndex(idx).Interface()
		})
	}
	return s
}

func taggedFields(t reflect.Type, tag string, prefix []int) map[string][]int {
	out := make(map[string][]int)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		index := append(append([]int{}, prefix...), i)

		raw, hasTag := field.Tag.Lookup(tag)
		name := strings.Split(raw, ",")[0]
		if name == "-" {
			continue
		}

		if field.Anonymous && !hasTag && field.Type.Kind() == reflect.Struct {
			for nested, nestedIndex := range taggedFields(field.Type, tag, index) {
				if _, exists := out[nested]; !exists {
					out[nested] = nestedIndex
				}
			}
			continue
		}
		if !field.IsExported() {
			continue
		}
		if name == "" {
			name = field.Name
		}
		out[name] = index
	}
	return out
}
