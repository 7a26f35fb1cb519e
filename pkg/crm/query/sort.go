package query

import "fmt"

// Sort builds the sort string for queries. Fields are joined with "|" in call
// order; descending fields are prefixed with "-".
//
//	query.Asc("NAME").Desc("MODIFIED").String() // NAME|-MODIFIED
type Sort struct {
	sortString string
}

// NewSort creates a sort, optionally starting from an existing sort string.
func NewSort(initial string) *Sort {
	s := &Sort{}

	return s.Raw(initial)
}

// Copy returns an independent sort with the same string.
func (s *Sort) Copy() *Sort {
	return &Sort{sortString: s.sortString}
}

// String returns the resulting sort string.
func (s *Sort) String() string {
	return s.sortString
}

// Asc sorts by a field in ascending order.
func (s *Sort) Asc(field string) *Sort {
	return s.append(field)
}

// Desc sorts by a field in descending order.
func (s *Sort) Desc(field string) *Sort {
	return s.append("-" + field)
}

// Raw appends a separator followed by a pre-built sort string.
func (s *Sort) Raw(segment string) *Sort {
	return s.append(segment)
}

// Apply dispatches to Asc, Desc or Raw by name. Any other name fails with
// ErrMethodNotFound.
func (s *Sort) Apply(name, arg string) (*Sort, error) {
	switch name {
	case "asc":
		return s.Asc(arg), nil
	case "desc":
		return s.Desc(arg), nil
	case "raw":
		return s.Raw(arg), nil
	default:
		return s, fmt.Errorf("%w: '%s'", ErrMethodNotFound, name)
	}
}

func (s *Sort) append(segment string) *Sort {
	if s.sortString != "" {
		s.sortString += SegmentSeparator
	}

	s.sortString += segment

	return s
}

// Asc creates a sort by a field in ascending order.
func Asc(field string) *Sort { return NewSort("").Asc(field) }

// Desc creates a sort by a field in descending order.
func Desc(field string) *Sort { return NewSort("").Desc(field) }

// RawSort creates a sort from a pre-built sort string.
func RawSort(segment string) *Sort { return NewSort("").Raw(segment) }
