package booking

import (
	"errors"
	"sort"
	"strings"
)

// NonFieldKey collects messages that do not belong to a single field, such
// as unique-together violations.
const NonFieldKey = "non_field_errors"

// FieldErrors maps a request field to the reason it was rejected.  It is
// returned by every write that fails validation and rendered as a 400.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// OrNil returns nil for an empty map so callers can return it directly.
func (e FieldErrors) OrNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Prefix namespaces every key, e.g. "row" becomes "tickets[2].row".
func (e FieldErrors) Prefix(p string) FieldErrors {
	out := make(FieldErrors, len(e))
	for k, v := range e {
		out[p+"."+k] = v
	}
	return out
}

// Field builds a single-entry FieldErrors.
func Field(name, msg string) FieldErrors {
	return FieldErrors{name: msg}
}

// AsFieldErrors unwraps err into FieldErrors when it is one.
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
