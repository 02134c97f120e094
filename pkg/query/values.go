package query

import (
	"cmp"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// timestampLayouts are tried in order when a string field is compared as an instant.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// normalize dereferences pointers and reduces named scalar types to their
// underlying kind so that an enum string compares equal to a plain string and
// every numeric kind compares as float64.
func normalize(v any) any {
	if v == nil {
		return nil
	}
	if t, ok := v.(time.Time); ok {
		return t
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	}

	if rv.CanInterface() {
		if t, ok := rv.Interface().(time.Time); ok {
			return t
		}
		return rv.Interface()
	}
	return nil
}

// isAll reports whether a filter value is the "no constraint" sentinel.
func isAll(v any) bool {
	s, ok := normalize(v).(string)
	return ok && s == FilterAll
}

// equalValues is strict equality after normalisation.
func equalValues(a, b any) bool {
	na, nb := normalize(a), normalize(b)
	if na == nil || nb == nil {
		return na == nil && nb == nil
	}

	switch x := na.(type) {
	case string:
		y, ok := nb.(string)
		return ok && x == y
	case float64:
		y, ok := nb.(float64)
		return ok && x == y
	case bool:
		y, ok := nb.(bool)
		return ok && x == y
	case time.Time:
		y, ok := nb.(time.Time)
		return ok && x.Equal(y)
	default:
		return reflect.DeepEqual(na, nb)
	}
}

// stringValue returns the field as a string when it is string-kinded.
func stringValue(v any) (string, bool) {
	s, ok := normalize(v).(string)
	return s, ok
}

// parseTimestamp parses ISO-8601 date and date-time strings.
func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// instant returns the time a normalized value denotes, if any.
func instant(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case string:
		return parseTimestamp(x)
	}
	return time.Time{}, false
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

// compareValues orders two field values. nil sorts before any value.
func compareValues(a, b any) int {
	na, nb := normalize(a), normalize(b)
	switch {
	case na == nil && nb == nil:
		return 0
	case na == nil:
		return -1
	case nb == nil:
		return 1
	}

	// Times and timestamp strings compare by instant and sort before strings
	// that do not parse, which keep lexical order among themselves.
	tx, okx := instant(na)
	ty, oky := instant(nb)
	switch {
	case okx && oky:
		return tx.Compare(ty)
	case okx && isString(nb):
		return -1
	case oky && isString(na):
		return 1
	}

	switch x := na.(type) {
	case float64:
		if y, ok := nb.(float64); ok {
			return cmp.Compare(x, y)
		}
	case string:
		if y, ok := nb.(string); ok {
			return strings.Compare(x, y)
		}
	case bool:
		if y, ok := nb.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			default:
				return 1
			}
		}
	}

	// Mixed kinds: fall back to a deterministic textual order.
	return strings.Compare(fmt.Sprintf("%T:%v", na, na), fmt.Sprintf("%T:%v", nb, nb))
}
