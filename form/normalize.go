package form

import (
	"regexp"
	"strings"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Text trims s.
func Text(s string) string {
	return strings.TrimSpace(s)
}

// Optional converts form input for an optional field: trimmed, and nil when
// nothing is left. nil is stored as an explicit null.
func Optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Absent re-applies Optional to a value that is already a pointer.
func Absent(p *string) *string {
	if p == nil {
		return nil
	}
	return Optional(*p)
}

// Value dereferences an optional field for display; nil reads as "".
func Value(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// List trims every value, drops empties and duplicates, and never returns
// nil so the field serialises as [] rather than null.
func List(values []string) []string {
	return NewChips(values...).Values()
}

// Slugify converts a title to a URL-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	dash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
