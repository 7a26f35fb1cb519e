package crm_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/fivetwenty-io/pipeliner-client/pkg/crm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"OwnerId":      "OWNER_ID",
		"Id":           "ID",
		"Organization": "ORGANIZATION",
		"FormType":     "FORM_TYPE",
		"ownerId":      "OWNER_ID",
		"":             "",
	}

	for in, expected := range tests {
		assert.Equal(t, expected, crm.FieldName(in), in)
	}
}

func TestEntity_ModifiedTracking(t *testing.T) {
	t.Parallel()

	e := crm.LoadEntity("Account", map[string]any{"ID": "abc", "ORGANIZATION": "Acme"})

	assert.Equal(t, "Account", e.TypeName())
	assert.Equal(t, "abc", e.ID())
	assert.True(t, e.HasID())
	assert.Empty(t, e.ModifiedFields())

	e.SetProperty("OwnerId", 7).SetField("PHONE1", "123")

	v, ok := e.Property("OwnerId")
	require.True(t, ok)
	assert.Equal(t, 7, v)
	assert.True(t, e.IsModified("OWNER_ID"))
	assert.False(t, e.IsModified("ORGANIZATION"))
	assert.Equal(t, []string{"OWNER_ID", "PHONE1"}, e.ModifiedFieldNames())
	assert.Equal(t, map[string]any{"OWNER_ID": 7, "PHONE1": "123"}, e.ModifiedFields())

	e.UnsetField("PHONE1")
	assert.False(t, e.IsFieldSet("PHONE1"))
	assert.Equal(t, []string{"OWNER_ID"}, e.ModifiedFieldNames())

	e.ResetModified()
	assert.Empty(t, e.ModifiedFieldNames())
	assert.Len(t, e.Fields(), 3)
}

func TestEntity_IsFieldSet(t *testing.T) {
	t.Parallel()

	e := crm.NewEntity("Contact").SetField("EMAIL1", nil).SetField("NAME", "")

	assert.False(t, e.IsFieldSet("EMAIL1"))
	assert.True(t, e.IsFieldSet("NAME"))
	assert.False(t, e.IsFieldSet("MISSING"))
	assert.False(t, e.HasID())
}

func TestEntity_TimeValues(t *testing.T) {
	t.Parallel()

	ts := time.Date(2014, 6, 1, 10, 0, 0, 0, time.FixedZone("CEST", 2*60*60))

	e := crm.NewEntity("Appointment").SetField("START_DATE", ts)
	assert.Equal(t, "2014-06-01 08:00:00", e.StringField("START_DATE"))

	e.WithDateTimeFormat(time.RFC3339).SetField("END_DATE", &ts)
	assert.Equal(t, "2014-06-01T08:00:00Z", e.StringField("END_DATE"))
}

func TestEntity_JSON(t *testing.T) {
	t.Parallel()

	e := crm.LoadEntity("Account", map[string]any{"ID": 6, "ORGANIZATION": "Old"})
	e.SetField("ORGANIZATION", "Asdf")

	all, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ID":6,"ORGANIZATION":"Asdf"}`, string(all))

	modified, err := e.ModifiedJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"ORGANIZATION":"Asdf"}`, string(modified))
}

func TestEntity_FieldsAreCopies(t *testing.T) {
	t.Parallel()

	values := map[string]any{"ID": 1}
	e := crm.LoadEntity("Account", values)
	values["ID"] = 2

	fields := e.Fields()
	fields["ID"] = 3

	assert.Equal(t, "1", e.ID())
}
