package crm

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/fivetwenty-io/pipeliner-client/internal/constants"
)

// IDField is the name of the field holding an entity's ID.
const IDField = "ID"

// Entity is a schema-less CRM record: a type name plus a map of field names
// (e.g. OWNER_ID) to values. Fields set since the entity was created or last
// saved are tracked as modified, which allows saving only what changed.
type Entity struct {
	typeName       string
	values         map[string]any
	modified       map[string]struct{}
	dateTimeFormat string
}

// NewEntity creates an empty entity of the given type, e.g. "Account".
func NewEntity(typeName string) *Entity {
	return &Entity{
		typeName:       typeName,
		values:         make(map[string]any),
		modified:       make(map[string]struct{}),
		dateTimeFormat: constants.DateTimeFormat,
	}
}

// LoadEntity creates an entity from field values loaded from the server.
// None of the fields are considered modified.
func LoadEntity(typeName string, values map[string]any) *Entity {
	e := NewEntity(typeName)
	maps.Copy(e.values, values)

	return e
}

// WithDateTimeFormat sets the layout used when storing time.Time values.
func (e *Entity) WithDateTimeFormat(layout string) *Entity {
	e.dateTimeFormat = layout

	return e
}

// TypeName returns the entity type, e.g. "Account".
func (e *Entity) TypeName() string {
	return e.typeName
}

// ID returns the entity's ID as a string, or "" if it has none.
func (e *Entity) ID() string {
	v, ok := e.values[IDField]
	if !ok || v == nil {
		return ""
	}

	return fmt.Sprint(v)
}

// HasID reports whether the ID field is set.
func (e *Entity) HasID() bool {
	return e.ID() != ""
}

// SetID sets the ID field.
func (e *Entity) SetID(id any) *Entity {
	return e.SetField(IDField, id)
}

// Field returns the value of a field and whether it is present.
func (e *Entity) Field(name string) (any, bool) {
	v, ok := e.values[name]

	return v, ok
}

// StringField returns the field formatted as a string, or "" if it is unset.
func (e *Entity) StringField(name string) string {
	v, ok := e.values[name]
	if !ok || v == nil {
		return ""
	}

	return fmt.Sprint(v)
}

// SetField sets a field and marks it as modified. time.Time values are
// converted to UTC and stored as formatted strings.
func (e *Entity) SetField(name string, value any) *Entity {
	switch v := value.(type) {
	case time.Time:
		value = v.UTC().Format(e.dateTimeFormat)
	case *time.Time:
		if v != nil {
			value = v.UTC().Format(e.dateTimeFormat)
		}
	}

	e.values[name] = value
	e.modified[name] = struct{}{}

	return e
}

// SetFields sets multiple fields at once. Fields not in values are untouched.
func (e *Entity) SetFields(values map[string]any) *Entity {
	for name, value := range values {
		e.SetField(name, value)
	}

	return e
}

// UnsetField removes a field, so it is not sent on the next save.
func (e *Entity) UnsetField(name string) *Entity {
	delete(e.values, name)
	delete(e.modified, name)

	return e
}

// IsFieldSet reports whether the field has a non-nil value.
func (e *Entity) IsFieldSet(name string) bool {
	v, ok := e.values[name]

	return ok && v != nil
}

// Fields returns a copy of all fields.
func (e *Entity) Fields() map[string]any {
	return maps.Clone(e.values)
}

// ModifiedFields returns a copy of the fields modified since the entity was
// loaded or last saved.
func (e *Entity) ModifiedFields() map[string]any {
	out := make(map[string]any, len(e.modified))

	for name := range e.modified {
		if v, ok := e.values[name]; ok {
			out[name] = v
		}
	}

	return out
}

// ModifiedFieldNames returns the sorted names of modified fields.
func (e *Entity) ModifiedFieldNames() []string {
	return slices.Sorted(maps.Keys(e.modified))
}

// IsModified reports whether the field was modified.
func (e *Entity) IsModified(name string) bool {
	_, ok := e.modified[name]

	return ok
}

// ResetModified marks all fields as not modified. Repositories call this after
// a successful save.
func (e *Entity) ResetModified() {
	clear(e.modified)
}

// Property returns a field by its camel-case property name, so
// Property("OwnerId") reads OWNER_ID.
func (e *Entity) Property(property string) (any, bool) {
	return e.Field(FieldName(property))
}

// SetProperty sets a field by its camel-case property name.
func (e *Entity) SetProperty(property string, value any) *Entity {
	return e.SetField(FieldName(property), value)
}

// MarshalJSON encodes all fields.
func (e *Entity) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(e.values)
	if err != nil {
		return nil, fmt.Errorf("encoding %s entity: %w", e.typeName, err)
	}

	return data, nil
}

// ModifiedJSON encodes only the modified fields.
func (e *Entity) ModifiedJSON() ([]byte, error) {
	data, err := json.Marshal(e.ModifiedFields())
	if err != nil {
		return nil, fmt.Errorf("encoding modified fields of %s entity: %w", e.typeName, err)
	}

	return data, nil
}

// FieldName converts a camel-case property name into a field name:
// OwnerId becomes OWNER_ID.
func FieldName(property string) string {
	var b strings.Builder

	for i, r := range property {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte('_')
		}

		b.WriteRune(unicode.ToUpper(r))
	}

	return b.String()
}
