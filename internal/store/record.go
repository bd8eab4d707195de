package store

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Record is one row, keyed by column name.
type Record map[string]any

// Filter is a conjunction of column equality predicates.
type Filter map[string]any

// Keys returns the column names of r, sorted.
func (r Record) Keys() []string {
	return slices.Sorted(maps.Keys(r))
}

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	return maps.Clone(r)
}

// String returns the column as a string. Drivers may hand back []byte.
func (r Record) String(col string) string {
	switch v := r[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

// Float returns the column as a float64.
func (r Record) Float(col string) float64 {
	switch v := r[col].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	case []byte:
		f, _ := strconv.ParseFloat(string(v), 64)
		return f
	default:
		return 0
	}
}

// Int returns the column as an int.
func (r Record) Int(col string) int {
	switch v := r[col].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case int32:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	case []byte:
		n, _ := strconv.Atoi(string(v))
		return n
	default:
		return 0
	}
}

// Bool returns the column as a bool. SQLite stores booleans as 0/1.
func (r Record) Bool(col string) bool {
	switch v := r[col].(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case int:
		return v != 0
	case float64:
		return v != 0
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	case []byte:
		b, _ := strconv.ParseBool(strings.TrimSpace(string(v)))
		return b
	default:
		return false
	}
}

// Time returns the column as a time. Stored as RFC3339Nano text.
func (r Record) Time(col string) time.Time {
	switch v := r[col].(type) {
	case time.Time:
		return v
	case string:
		return ParseTime(v)
	case []byte:
		return ParseTime(string(v))
	default:
		return time.Time{}
	}
}

// FormatTime formats t for storage.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseTime parses a stored timestamp. Malformed values yield the zero time.
func ParseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Keys returns the filter's column names, sorted.
func (f Filter) Keys() []string {
	return slices.Sorted(maps.Keys(f))
}

// Matches reports whether rec satisfies every predicate of f.
func (f Filter) Matches(rec Record) bool {
	for col, want := range f {
		if !Equal(rec[col], want) {
			return false
		}
	}
	return true
}

// Equal compares two column values loosely: numbers by value, booleans
// against 0/1, everything else by its string form.
func Equal(a, b any) bool {
	if af, ok := number(a); ok {
		if bf, ok := number(b); ok {
			return af == bf
		}
	}
	if ab, ok := a.(bool); ok {
		return ab == (Record{"v": b}).Bool("v")
	}
	if bb, ok := b.(bool); ok {
		return bb == (Record{"v": a}).Bool("v")
	}
	return (Record{"v": a}).String("v") == (Record{"v": b}).String("v")
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int, int32, int64, float32, float64:
		return (Record{"v": n}).Float("v"), true
	default:
		return 0, false
	}
}
