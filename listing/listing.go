// Package listing filters rows for list pages. Every filter returns a new
// slice and leaves its input untouched.
package listing

import "strings"

// All is the category selection that disables category filtering.
const All = "all"

// Search keeps rows where any of fields contains q, ignoring case. An empty
// (or whitespace) query keeps every row.
func Search[T any](rows []T, q string, fields ...func(T) string) []T {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" || len(fields) == 0 {
		return clone(rows)
	}
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		for _, field := range fields {
			if strings.Contains(strings.ToLower(field(row)), q) {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

// ByCategory keeps rows whose reference equals selected exactly. "all" or an
// empty selection keeps every row.
func ByCategory[T any](rows []T, selected string, ref func(T) string) []T {
	if selected == "" || selected == All {
		return clone(rows)
	}
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if ref(row) == selected {
			out = append(out, row)
		}
	}
	return out
}

// Publication states accepted by ByPublished.
const (
	Published = "published"
	Draft     = "draft"
)

// ByPublished keeps published rows, draft rows, or (for any other state)
// every row.
func ByPublished[T any](rows []T, state string, published func(T) bool) []T {
	var want bool
	switch state {
	case Published:
		want = true
	case Draft:
		want = false
	default:
		return clone(rows)
	}
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if published(row) == want {
			out = append(out, row)
		}
	}
	return out
}

// View is what a list page renders for one request.
type View[T any] struct {
	Rows      []T
	Total     int
	Query     string
	Category  string
	IsLoading bool
	Err       error
}

// Empty reports whether the page should show its empty state: nothing is
// loading, nothing failed, and the filtered set has no rows.
func (v View[T]) Empty() bool {
	return !v.IsLoading && v.Err == nil && len(v.Rows) == 0
}

// Filtered reports whether a search or category filter hid some rows.
func (v View[T]) Filtered() bool {
	return len(v.Rows) < v.Total
}

func clone[T any](rows []T) []T {
	out := make([]T, len(rows))
	copy(out, rows)
	return out
}
