package query

import (
	"fmt"
	"time"

	"github.com/fivetwenty-io/pipeliner-client/internal/constants"
)

// Separators used inside filter and sort strings.
const (
	SegmentSeparator = "|"
	ValueSeparator   = "::"
)

// Filter builds the filter string used in queries. Segments are evaluated by
// the server left to right, so the order of calls matters.
//
//	query.Eq("NAME", "Joe").GreaterThan("HEIGHT", 0).String()
//	// NAME::Joe|HEIGHT::0::gt
//
// Values may be strings, numbers or time.Time. Timestamps are converted to UTC
// and formatted with the filter's date/time layout; the ll, rl and fl
// operators only take strings.
type Filter struct {
	filterString   string
	dateTimeFormat string
}

// NewFilter creates a filter, optionally starting from an existing filter string.
func NewFilter(initial string) *Filter {
	return &Filter{
		filterString:   initial,
		dateTimeFormat: constants.DateTimeFormat,
	}
}

// Copy returns an independent filter with the same string and layout.
func (f *Filter) Copy() *Filter {
	return &Filter{
		filterString:   f.filterString,
		dateTimeFormat: f.dateTimeFormat,
	}
}

// WithDateTimeFormat sets the layout used for time.Time values.
func (f *Filter) WithDateTimeFormat(layout string) *Filter {
	f.dateTimeFormat = layout

	return f
}

// String returns the resulting filter string usable in a query.
func (f *Filter) String() string {
	return f.filterString
}

// Apply appends a segment for the operator identified by name, which may be
// any operator code or alias (e.g. "gt", "greaterThan"). Unknown names fail
// with ErrInvalidOperator.
func (f *Filter) Apply(name, field string, value any) (*Filter, error) {
	op, ok := operators[name]
	if !ok {
		return f, fmt.Errorf("%w: %s", ErrInvalidOperator, name)
	}

	if op == opRaw {
		return f.Raw(field), nil
	}

	if !op.acceptsTime() {
		switch value.(type) {
		case time.Time, *time.Time:
			return f, fmt.Errorf("%w: operator %s does not accept timestamps", ErrInvalidFilterValue, op)
		}
	}

	return f.add(field, value, op), nil
}

// Raw appends a pre-built segment verbatim.
func (f *Filter) Raw(segment string) *Filter {
	f.separate()
	f.filterString += segment

	return f
}

// Eq appends "field equals value".
func (f *Filter) Eq(field string, value any) *Filter { return f.add(field, value, OpEquals) }

// Equals is an alias for Eq.
func (f *Filter) Equals(field string, value any) *Filter { return f.Eq(field, value) }

// Ne appends "field does not equal value".
func (f *Filter) Ne(field string, value any) *Filter { return f.add(field, value, OpNotEquals) }

// DoesNotEqual is an alias for Ne.
func (f *Filter) DoesNotEqual(field string, value any) *Filter { return f.Ne(field, value) }

// Gt appends "field is greater than value".
func (f *Filter) Gt(field string, value any) *Filter { return f.add(field, value, OpGreaterThan) }

// GreaterThan is an alias for Gt.
func (f *Filter) GreaterThan(field string, value any) *Filter { return f.Gt(field, value) }

// Lt appends "field is less than value".
func (f *Filter) Lt(field string, value any) *Filter { return f.add(field, value, OpLessThan) }

// LessThan is an alias for Lt.
func (f *Filter) LessThan(field string, value any) *Filter { return f.Lt(field, value) }

// Ge appends "field is greater than or equal to value".
func (f *Filter) Ge(field string, value any) *Filter { return f.add(field, value, OpGreaterOrEqual) }

// Gte is an alias for Ge.
func (f *Filter) Gte(field string, value any) *Filter { return f.Ge(field, value) }

// GreaterOrEqual is an alias for Ge.
func (f *Filter) GreaterOrEqual(field string, value any) *Filter { return f.Ge(field, value) }

// Le appends "field is less than or equal to value".
func (f *Filter) Le(field string, value any) *Filter { return f.add(field, value, OpLessOrEqual) }

// Lte is an alias for Le.
func (f *Filter) Lte(field string, value any) *Filter { return f.Le(field, value) }

// LessOrEqual is an alias for Le.
func (f *Filter) LessOrEqual(field string, value any) *Filter { return f.Le(field, value) }

// Ll appends "field starts with value".
func (f *Filter) Ll(field, value string) *Filter { return f.add(field, value, OpStartsWith) }

// StartsWith is an alias for Ll.
func (f *Filter) StartsWith(field, value string) *Filter { return f.Ll(field, value) }

// Rl appends "field ends with value".
func (f *Filter) Rl(field, value string) *Filter { return f.add(field, value, OpEndsWith) }

// EndsWith is an alias for Rl.
func (f *Filter) EndsWith(field, value string) *Filter { return f.Rl(field, value) }

// Fl appends "field contains value".
func (f *Filter) Fl(field, value string) *Filter { return f.add(field, value, OpContains) }

// Contains is an alias for Fl.
func (f *Filter) Contains(field, value string) *Filter { return f.Fl(field, value) }

func (f *Filter) add(field string, value any, op Operator) *Filter {
	f.separate()
	f.filterString += field + ValueSeparator + formatValue(value, f.dateTimeFormat)

	if op != OpEquals {
		f.filterString += ValueSeparator + string(op)
	}

	return f
}

func (f *Filter) separate() {
	if f.filterString != "" {
		f.filterString += SegmentSeparator
	}
}

// formatValue renders a filter or criteria value as the API expects it.
func formatValue(value any, layout string) string {
	switch v := value.(type) {
	case string:
		return v
	case time.Time:
		return v.UTC().Format(layout)
	case *time.Time:
		if v == nil {
			return ""
		}

		return v.UTC().Format(layout)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Static forms, each equivalent to NewFilter("").<Op>(...).

// Eq creates a filter with an equality segment.
func Eq(field string, value any) *Filter { return NewFilter("").Eq(field, value) }

// Equals creates a filter with an equality segment.
func Equals(field string, value any) *Filter { return NewFilter("").Equals(field, value) }

// Ne creates a filter with a not-equals segment.
func Ne(field string, value any) *Filter { return NewFilter("").Ne(field, value) }

// DoesNotEqual creates a filter with a not-equals segment.
func DoesNotEqual(field string, value any) *Filter { return NewFilter("").DoesNotEqual(field, value) }

// Gt creates a filter with a greater-than segment.
func Gt(field string, value any) *Filter { return NewFilter("").Gt(field, value) }

// GreaterThan creates a filter with a greater-than segment.
func GreaterThan(field string, value any) *Filter { return NewFilter("").GreaterThan(field, value) }

// Lt creates a filter with a less-than segment.
func Lt(field string, value any) *Filter { return NewFilter("").Lt(field, value) }

// LessThan creates a filter with a less-than segment.
func LessThan(field string, value any) *Filter { return NewFilter("").LessThan(field, value) }

// Ge creates a filter with a greater-or-equal segment.
func Ge(field string, value any) *Filter { return NewFilter("").Ge(field, value) }

// Gte creates a filter with a greater-or-equal segment.
func Gte(field string, value any) *Filter { return NewFilter("").Gte(field, value) }

// GreaterOrEqual creates a filter with a greater-or-equal segment.
func GreaterOrEqual(field string, value any) *Filter {
	return NewFilter("").GreaterOrEqual(field, value)
}

// Le creates a filter with a less-or-equal segment.
func Le(field string, value any) *Filter { return NewFilter("").Le(field, value) }

// Lte creates a filter with a less-or-equal segment.
func Lte(field string, value any) *Filter { return NewFilter("").Lte(field, value) }

// LessOrEqual creates a filter with a less-or-equal segment.
func LessOrEqual(field string, value any) *Filter { return NewFilter("").LessOrEqual(field, value) }

// Ll creates a filter with a starts-with segment.
func Ll(field, value string) *Filter { return NewFilter("").Ll(field, value) }

// StartsWith creates a filter with a starts-with segment.
func StartsWith(field, value string) *Filter { return NewFilter("").StartsWith(field, value) }

// Rl creates a filter with an ends-with segment.
func Rl(field, value string) *Filter { return NewFilter("").Rl(field, value) }

// EndsWith creates a filter with an ends-with segment.
func EndsWith(field, value string) *Filter { return NewFilter("").EndsWith(field, value) }

// Fl creates a filter with a contains segment.
func Fl(field, value string) *Filter { return NewFilter("").Fl(field, value) }

// Contains creates a filter with a contains segment.
func Contains(field, value string) *Filter { return NewFilter("").Contains(field, value) }

// RawFilter creates a filter from a pre-built segment.
func RawFilter(segment string) *Filter { return NewFilter("").Raw(segment) }
