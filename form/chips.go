package form

import "strings"

// Chips is the staged value of a list field (skills, tags). It is edited
// one value at a time and only becomes part of a payload on submit.
type Chips struct {
	values []string
}

// NewChips stages values in order, skipping empties and duplicates.
func NewChips(values ...string) *Chips {
	c := &Chips{}
	for _, v := range values {
		c.Add(v)
	}
	return c
}

// Add appends v. Empty values and values already staged are ignored; the
// return value reports whether the list changed.
func (c *Chips) Add(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" || c.Has(v) {
		return false
	}
	c.values = append(c.values, v)
	return true
}

// Remove drops v. Removing a value that is not staged is a no-op.
func (c *Chips) Remove(v string) bool {
	v = strings.TrimSpace(v)
	for i, cur := range c.values {
		if cur == v {
			c.values = append(c.values[:i], c.values[i+1:]...)
			return true
		}
	}
	return false
}

// Has reports whether v is staged.
func (c *Chips) Has(v string) bool {
	for _, cur := range c.values {
		if cur == v {
			return true
		}
	}
	return false
}

// Len returns the number of staged values.
func (c *Chips) Len() int {
	return len(c.values)
}

// Values returns a copy of the staged values, never nil.
func (c *Chips) Values() []string {
	out := make([]string, len(c.values))
	copy(out, c.values)
	return out
}
