// Package form holds the pieces every entity form shares: the
// validate-before-submit gate, empty-to-absent normalisation, and chip lists.
package form

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Errors maps a field name to the message shown next to it. The empty key
// holds errors that belong to no single field.
type Errors map[string]string

func (e Errors) Error() string {
	if len(e) == 0 {
		return ""
	}
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			parts = append(parts, e[k])
			continue
		}
		parts = append(parts, k+": "+e[k])
	}
	return strings.Join(parts, "; ")
}

// Field returns the message for name, or "".
func (e Errors) Field(name string) string {
	return e[name]
}

// Validate runs v's rules and returns field-scoped errors, or nil when v is
// valid.
func Validate(v validation.Validatable) Errors {
	return Check(v.Validate())
}

// Check converts the result of an ozzo validation into Errors.
func Check(err error) Errors {
	if err == nil {
		return nil
	}
	var fe Errors
	if errors.As(err, &fe) {
		return fe
	}
	var ve validation.Errors
	if errors.As(err, &ve) {
		out := make(Errors, len(ve))
		for field, ferr := range ve {
			if ferr == nil {
				continue
			}
			out[field] = ferr.Error()
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}
	return Errors{"": err.Error()}
}

// Shared rules, so every form words its messages the same way.
var (
	Required = validation.Required.Error("is required")
	URL      = is.RequestURL.Error("must be a valid URL including http:// or https://")
	Email    = is.EmailFormat.Error("must be a valid email address")
	Slug     = validation.Match(slugPattern).Error("may contain only lowercase letters, digits and hyphens")
)

// MinLength requires at least n characters.
func MinLength(n int) validation.Rule {
	return validation.RuneLength(n, 0).Error("must be at least " + strconv.Itoa(n) + " characters")
}

// MaxLength allows at most n characters.
func MaxLength(n int) validation.Rule {
	return validation.RuneLength(0, n).Error("must be at most " + strconv.Itoa(n) + " characters")
}
