package cursor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/pipeliner-client/internal/cursor"
	"github.com/fivetwenty-io/pipeliner-client/pkg/crm"
	"github.com/fivetwenty-io/pipeliner-client/pkg/crm/query"
)

func newPage(t *testing.T, criteria *query.Criteria, start, end, total int) *crm.EntityCollection {
	t.Helper()

	entities := make([]*crm.Entity, 0)
	for i := start; i <= end; i++ {
		entities = append(entities, crm.NewEntity("Account"))
	}

	page, err := crm.NewEntityCollection(entities, criteria, start, end, total)
	require.NoError(t, err)

	return page
}

func TestEncodeDecode(t *testing.T) {
	t.Parallel()

	token, err := cursor.Encode(&cursor.Cursor{Entity: "Account", Query: "limit=2&offset=4"})
	require.NoError(t, err)
	assert.NotContains(t, token, "=")

	decoded, err := cursor.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "Account", decoded.Entity)
	assert.Equal(t, "limit=2&offset=4", decoded.Query)
}

func TestDecode_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		token string
	}{
		{name: "not base64", token: "!!!"},
		{name: "not cbor", token: "AAAA"},
		{name: "empty", token: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := cursor.Decode(tt.token)
			require.ErrorIs(t, err, cursor.ErrInvalidCursor)
		})
	}
}

func TestNext(t *testing.T) {
	t.Parallel()

	criteria := query.NewCriteria().
		WithLimit(2).
		WithOffset(2).
		WithFilterBy(query.Ll("ORGANIZATION", "Ac")).
		WithSortBy(query.Desc("MODIFIED"))

	token, err := cursor.Next("Account", newPage(t, criteria, 2, 3, 5))
	require.NoError(t, err)
	require.NotEmpty(t, token)

	decoded, err := cursor.Decode(token)
	require.NoError(t, err)

	next, err := decoded.Criteria("Account")
	require.NoError(t, err)

	offset, ok := next.Offset()
	require.True(t, ok)
	assert.Equal(t, 4, offset)
	assert.Equal(t, 2, next.EffectiveLimit())

	filter, _ := next.Filter()
	assert.Equal(t, "ORGANIZATION::Ac::ll", filter)

	sort, _ := next.Sort()
	assert.Equal(t, "-MODIFIED", sort)
}

func TestNext_LastPage(t *testing.T) {
	t.Parallel()

	criteria := query.NewCriteria().WithLimit(2).WithOffset(4)

	token, err := cursor.Next("Account", newPage(t, criteria, 4, 4, 5))
	require.NoError(t, err)
	assert.Empty(t, token)

	token, err = cursor.Next("Account", newPage(t, query.NewCriteria(), 0, -1, 0))
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestCursor_EntityMismatch(t *testing.T) {
	t.Parallel()

	c := &cursor.Cursor{Entity: "Account", Query: "limit=2"}

	_, err := c.Criteria("Contact")
	require.ErrorIs(t, err, cursor.ErrEntityMismatch)
}
