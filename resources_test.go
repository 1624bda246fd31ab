package folioadmin

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyChip(t *testing.T) {
	tests := []struct {
		name   string
		values url.Values
		action string
		ok     bool
		want   []string
	}{
		{
			name:   "add trims and appends",
			values: url.Values{"tags": {"go"}, "tags_new": {"  htmx "}},
			action: "add:tags",
			ok:     true,
			want:   []string{"go", "htmx"},
		},
		{
			name:   "add ignores duplicates",
			values: url.Values{"tags": {"go"}, "tags_new": {"go"}},
			action: "add:tags",
			ok:     true,
			want:   []string{"go"},
		},
		{
			name:   "add ignores blanks",
			values: url.Values{"tags": {"go"}, "tags_new": {"   "}},
			action: "add:tags",
			ok:     true,
			want:   []string{"go"},
		},
		{
			name:   "remove drops the value",
			values: url.Values{"tags": {"go", "htmx", "sql"}},
			action: "remove:tags:htmx",
			ok:     true,
			want:   []string{"go", "sql"},
		},
		{
			name:   "remove keeps colons in the value",
			values: url.Values{"tags": {"a:b", "c"}},
			action: "remove:tags:a:b",
			ok:     true,
			want:   []string{"c"},
		},
		{
			name:   "no action",
			values: url.Values{"tags": {"go"}},
			ok:     false,
			want:   []string{"go"},
		},
		{
			name:   "unknown action",
			values: url.Values{"tags": {"go"}},
			action: "rename:tags",
			ok:     false,
			want:   []string{"go"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ok, applyChip(tt.values, tt.action))
			assert.Equal(t, tt.want, tt.values["tags"])
			assert.Empty(t, tt.values.Get("tags_new"))
		})
	}
}

func TestShortTimestamp(t *testing.T) {
	assert.Equal(t, "2026-01-02 15:04", shortTimestamp("2026-01-02T15:04:05.000Z"))
	assert.Equal(t, "yesterday", shortTimestamp("yesterday"))
}
