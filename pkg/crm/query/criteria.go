package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fivetwenty-io/pipeliner-client/internal/constants"
)

// NoLimit disables the limit on how many entities to load. Use with caution.
const NoLimit = constants.NoLimit

// Criteria parameter names, in serialization order.
const (
	KeyLimit    = "limit"
	KeyOffset   = "offset"
	KeySort     = "sort"
	KeyFilter   = "filter"
	KeyAfter    = "after"
	KeyLoadOnly = "loadonly"
)

var criteriaKeys = []string{KeyLimit, KeyOffset, KeySort, KeyFilter, KeyAfter, KeyLoadOnly}

// Criteria represents the query parameters for loading entities. Each of the
// six parameters is optional; unset parameters are left out of the query
// entirely.
type Criteria struct {
	limit    *int
	offset   *int
	sort     *string
	filter   *string
	after    *string
	loadOnly *string

	dateTimeFormat string
	defaultLimit   int
}

// NewCriteria creates an empty set of criteria.
func NewCriteria() *Criteria {
	return &Criteria{
		dateTimeFormat: constants.DateTimeFormat,
		defaultLimit:   constants.DefaultLimit,
	}
}

// NewCriteriaFrom creates criteria initialised from source, see Set.
func NewCriteriaFrom(source any) (*Criteria, error) {
	c := NewCriteria()

	err := c.Set(source)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// ParseCriteria parses a URL query string (without the leading "?").
func ParseCriteria(rawQuery string) (*Criteria, error) {
	return NewCriteriaFrom(rawQuery)
}

// WithDateTimeFormat sets the layout used to format time.Time values.
func (c *Criteria) WithDateTimeFormat(layout string) *Criteria {
	c.dateTimeFormat = layout

	return c
}

// WithDefaultLimit sets the limit reported by EffectiveLimit when none is set.
func (c *Criteria) WithDefaultLimit(limit int) *Criteria {
	c.defaultLimit = limit

	return c
}

// Limit returns the limit and whether it is set.
func (c *Criteria) Limit() (int, bool) {
	if c.limit == nil {
		return 0, false
	}

	return *c.limit, true
}

// EffectiveLimit returns the limit, or the default limit if none is set.
func (c *Criteria) EffectiveLimit() int {
	if c.limit == nil {
		return c.defaultLimit
	}

	return *c.limit
}

// WithLimit limits how many entities to load. Use NoLimit to disable the limit.
func (c *Criteria) WithLimit(limit int) *Criteria {
	c.limit = &limit

	return c
}

// Offset returns the offset and whether it is set.
func (c *Criteria) Offset() (int, bool) {
	if c.offset == nil {
		return 0, false
	}

	return *c.offset, true
}

// EffectiveOffset returns the offset, or 0 if none is set.
func (c *Criteria) EffectiveOffset() int {
	if c.offset == nil {
		return 0
	}

	return *c.offset
}

// WithOffset sets the index of the first entity to load.
func (c *Criteria) WithOffset(offset int) *Criteria {
	c.offset = &offset

	return c
}

// Sort returns the sort string and whether it is set.
func (c *Criteria) Sort() (string, bool) {
	return deref(c.sort)
}

// WithSort sets a raw sort string.
func (c *Criteria) WithSort(sort string) *Criteria {
	c.sort = &sort

	return c
}

// WithSortBy sets the sort from a Sort builder.
func (c *Criteria) WithSortBy(sort *Sort) *Criteria {
	return c.WithSort(sort.String())
}

// Filter returns the filter string and whether it is set.
func (c *Criteria) Filter() (string, bool) {
	return deref(c.filter)
}

// WithFilter sets a raw filter string.
func (c *Criteria) WithFilter(filter string) *Criteria {
	c.filter = &filter

	return c
}

// WithFilterBy sets the filter from a Filter builder.
func (c *Criteria) WithFilterBy(filter *Filter) *Criteria {
	return c.WithFilter(filter.String())
}

// After returns the formatted modified-after timestamp and whether it is set.
func (c *Criteria) After() (string, bool) {
	return deref(c.after)
}

// WithAfter only loads entities modified after the given pre-formatted timestamp.
func (c *Criteria) WithAfter(after string) *Criteria {
	c.after = &after

	return c
}

// WithAfterTime only loads entities modified after t, converted to UTC.
func (c *Criteria) WithAfterTime(t time.Time) *Criteria {
	return c.WithAfter(t.UTC().Format(c.dateTimeFormat))
}

// LoadOnly returns the pipe-separated field list and whether it is set.
func (c *Criteria) LoadOnly() (string, bool) {
	return deref(c.loadOnly)
}

// WithLoadOnly only loads the given fields.
func (c *Criteria) WithLoadOnly(fields ...string) *Criteria {
	joined := strings.Join(fields, SegmentSeparator)
	c.loadOnly = &joined

	return c
}

// Apply sets a single parameter by name, accepting the same value types as
// Set. Names other than the six parameters fail with ErrMethodNotFound.
func (c *Criteria) Apply(name string, value any) (*Criteria, error) {
	if !isCriteriaKey(name) {
		return c, fmt.Errorf("%w: '%s'", ErrMethodNotFound, name)
	}

	err := c.setValue(name, value)
	if err != nil {
		return c, err
	}

	return c, nil
}

// Set sets multiple parameters at once. source can be:
//   - *Criteria or Criteria: copies all six parameters, unsetting those not
//     set in source.
//   - map[string]any, map[string]string or url.Values: sets the parameters
//     present in the map and leaves the others untouched. A nil value unsets
//     the parameter. Unknown keys are ignored.
//   - string: a URL query string, parsed and then handled like a map.
//   - *Filter or *Sort: sets only that parameter.
//   - nil: no change.
//
// On error the criteria are left unchanged.
func (c *Criteria) Set(source any) error {
	switch src := source.(type) {
	case nil:
		return nil
	case *Criteria:
		if src != nil {
			c.copyParams(src)
		}

		return nil
	case Criteria:
		c.copyParams(&src)

		return nil
	case *Filter:
		c.WithFilterBy(src)

		return nil
	case *Sort:
		c.WithSortBy(src)

		return nil
	case string:
		values, err := url.ParseQuery(src)
		if err != nil {
			return fmt.Errorf("%w: parsing query string: %w", ErrInvalidCriteriaSource, err)
		}

		return c.setMap(valuesToMap(values))
	case url.Values:
		return c.setMap(valuesToMap(src))
	case map[string]string:
		m := make(map[string]any, len(src))
		for k, v := range src {
			m[k] = v
		}

		return c.setMap(m)
	case map[string]any:
		return c.setMap(src)
	default:
		return fmt.Errorf("%w: %T", ErrInvalidCriteriaSource, source)
	}
}

// ToURLQuery returns the URL-encoded query string. Only set parameters are
// included, always in the order limit, offset, sort, filter, after, loadonly.
func (c *Criteria) ToURLQuery() string {
	parts := make([]string, 0, len(criteriaKeys))

	for _, key := range criteriaKeys {
		value, ok := c.get(key)
		if !ok {
			continue
		}

		parts = append(parts, url.QueryEscape(key)+"="+url.QueryEscape(value))
	}

	return strings.Join(parts, "&")
}

// String implements fmt.Stringer.
func (c *Criteria) String() string {
	return c.ToURLQuery()
}

// Values returns the set parameters as url.Values.
func (c *Criteria) Values() url.Values {
	values := url.Values{}

	for _, key := range criteriaKeys {
		if value, ok := c.get(key); ok {
			values.Set(key, value)
		}
	}

	return values
}

// Copy returns an independent copy of the criteria.
func (c *Criteria) Copy() *Criteria {
	cp := &Criteria{
		dateTimeFormat: c.dateTimeFormat,
		defaultLimit:   c.defaultLimit,
	}
	cp.copyParams(c)

	return cp
}

// Equal reports whether both criteria have the same six parameters, treating
// two unset parameters as equal.
func (c *Criteria) Equal(other *Criteria) bool {
	if c == nil || other == nil {
		return c == other
	}

	return equalPtr(c.limit, other.limit) &&
		equalPtr(c.offset, other.offset) &&
		equalPtr(c.sort, other.sort) &&
		equalPtr(c.filter, other.filter) &&
		equalPtr(c.after, other.after) &&
		equalPtr(c.loadOnly, other.loadOnly)
}

func (c *Criteria) copyParams(src *Criteria) {
	c.limit = clonePtr(src.limit)
	c.offset = clonePtr(src.offset)
	c.sort = clonePtr(src.sort)
	c.filter = clonePtr(src.filter)
	c.after = clonePtr(src.after)
	c.loadOnly = clonePtr(src.loadOnly)
}

func (c *Criteria) setMap(params map[string]any) error {
	staged := c.Copy()

	for _, key := range criteriaKeys {
		value, ok := params[key]
		if !ok {
			continue
		}

		err := staged.setValue(key, value)
		if err != nil {
			return err
		}
	}

	c.copyParams(staged)

	return nil
}

//nolint:cyclop // One branch per parameter and accepted value type
func (c *Criteria) setValue(key string, value any) error {
	if value == nil {
		c.unset(key)

		return nil
	}

	switch key {
	case KeyLimit, KeyOffset:
		n, err := toInt(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidCriteriaValue, key, err)
		}

		if key == KeyLimit {
			c.WithLimit(n)
		} else {
			c.WithOffset(n)
		}
	case KeySort:
		switch v := value.(type) {
		case string:
			c.WithSort(v)
		case *Sort:
			c.WithSortBy(v)
		default:
			return fmt.Errorf("%w: sort: unsupported type %T", ErrInvalidCriteriaValue, value)
		}
	case KeyFilter:
		switch v := value.(type) {
		case string:
			c.WithFilter(v)
		case *Filter:
			c.WithFilterBy(v)
		default:
			return fmt.Errorf("%w: filter: unsupported type %T", ErrInvalidCriteriaValue, value)
		}
	case KeyAfter:
		switch v := value.(type) {
		case string:
			c.WithAfter(v)
		case time.Time:
			c.WithAfterTime(v)
		case *time.Time:
			c.WithAfterTime(*v)
		default:
			return fmt.Errorf("%w: after: unsupported type %T", ErrInvalidCriteriaValue, value)
		}
	case KeyLoadOnly:
		switch v := value.(type) {
		case string:
			c.WithLoadOnly(v)
		case []string:
			c.WithLoadOnly(v...)
		default:
			return fmt.Errorf("%w: loadonly: unsupported type %T", ErrInvalidCriteriaValue, value)
		}
	}

	return nil
}

func (c *Criteria) unset(key string) {
	switch key {
	case KeyLimit:
		c.limit = nil
	case KeyOffset:
		c.offset = nil
	case KeySort:
		c.sort = nil
	case KeyFilter:
		c.filter = nil
	case KeyAfter:
		c.after = nil
	case KeyLoadOnly:
		c.loadOnly = nil
	}
}

func (c *Criteria) get(key string) (string, bool) {
	switch key {
	case KeyLimit:
		if c.limit == nil {
			return "", false
		}

		return strconv.Itoa(*c.limit), true
	case KeyOffset:
		if c.offset == nil {
			return "", false
		}

		return strconv.Itoa(*c.offset), true
	case KeySort:
		return deref(c.sort)
	case KeyFilter:
		return deref(c.filter)
	case KeyAfter:
		return deref(c.after)
	case KeyLoadOnly:
		return deref(c.loadOnly)
	default:
		return "", false
	}
}

func isCriteriaKey(name string) bool {
	for _, key := range criteriaKeys {
		if key == name {
			return true
		}
	}

	return false
}

func valuesToMap(values url.Values) map[string]any {
	m := make(map[string]any, len(values))

	for k, v := range values {
		if len(v) > 0 {
			m[k] = v[0]
		}
	}

	return m
}

func toInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("parsing %q: %w", v, err)
		}

		return n, nil
	default:
		return 0, fmt.Errorf("unsupported type %T", value)
	}
}

func deref(s *string) (string, bool) {
	if s == nil {
		return "", false
	}

	return *s, true
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}

	v := *p

	return &v
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}

	return *a == *b
}
