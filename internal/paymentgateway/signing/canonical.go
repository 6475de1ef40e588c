// Package signing holds the keyed-hash and keyed-cipher primitives shared by
// the bank adapters. Adapters only decide which fields go in, in which order,
// and how the digest is cased.
package signing

import (
	"fmt"
	"sort"
	"strings"
)

// MissingFieldError is returned when a field required by a fixed canonical
// order is absent.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %q", e.Field)
}

// Join concatenates values with sep.
func Join(sep string, values ...string) string {
	return strings.Join(values, sep)
}

// SortedCanonical renders every field not listed in exclude as name=value,
// sorted by name and joined with sep.
func SortedCanonical(fields map[string]string, sep string, exclude ...string) string {
	skip := make(map[string]struct{}, len(exclude))
	for _, name := range exclude {
		skip[name] = struct{}{}
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		if _, ok := skip[name]; ok {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, len(names))
	for i, name := range names {
		pairs[i] = name + "=" + fields[name]
	}
	return strings.Join(pairs, sep)
}

// OrderedCanonical joins the values of the named fields in the declared order.
// A field that is absent from the map is an error; an empty value is not.
func OrderedCanonical(fields map[string]string, order []string, sep string) (string, error) {
	values := make([]string, len(order))
	for i, name := range order {
		value, ok := fields[name]
		if !ok {
			return "", &MissingFieldError{Field: name}
		}
		values[i] = value
	}
	return strings.Join(values, sep), nil
}
