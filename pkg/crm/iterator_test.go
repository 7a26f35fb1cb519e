package crm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fivetwenty-io/pipeliner-client/pkg/crm"
	"github.com/fivetwenty-io/pipeliner-client/pkg/crm/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFetchFailed = errors.New("fetch failed")

// pagedFetcher serves pages of a fixed result set of letters.
type pagedFetcher struct {
	items   []string
	queries []string
	err     error
}

func (f *pagedFetcher) Get(_ context.Context, criteria *query.Criteria) (*crm.EntityCollection, error) {
	f.queries = append(f.queries, criteria.ToURLQuery())

	if f.err != nil {
		return nil, f.err
	}

	offset := criteria.EffectiveOffset()
	if offset >= len(f.items) {
		return crm.NewEntityCollection(nil, criteria, 0, -1, len(f.items))
	}

	end := min(offset+criteria.EffectiveLimit(), len(f.items))

	entities := make([]*crm.Entity, 0, end-offset)
	for _, name := range f.items[offset:end] {
		entities = append(entities, crm.LoadEntity("Account", map[string]any{"NAME": name}))
	}

	return crm.NewEntityCollection(entities, criteria, offset, end-1, len(f.items))
}

func firstPage(t *testing.T, criteria *query.Criteria, names ...string) *crm.EntityCollection {
	t.Helper()

	entities := make([]*crm.Entity, 0, len(names))
	for _, name := range names {
		entities = append(entities, crm.LoadEntity("Account", map[string]any{"NAME": name}))
	}

	c, err := crm.NewEntityCollection(entities, criteria, criteria.EffectiveOffset(), criteria.EffectiveOffset()+len(names)-1, 5)
	require.NoError(t, err)

	return c
}

func TestIterator_FetchesOnlyOutsidePage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fetcher := &pagedFetcher{items: []string{"A", "B", "C", "D", "E"}}
	it := crm.NewEntityCollectionIterator(fetcher, firstPage(t, query.NewCriteria().WithLimit(2), "A", "B"))

	assert.Equal(t, 0, it.Key())

	current, err := it.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A", current.StringField("NAME"))
	assert.Empty(t, fetcher.queries)

	it.Next()
	assert.True(t, it.DataAvailable())
	assert.False(t, it.NextDataAvailable())

	it.Next()
	assert.Equal(t, 2, it.Key())
	assert.False(t, it.DataAvailable())

	current, err = it.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "C", current.StringField("NAME"))
	assert.Equal(t, []string{"limit=2&offset=2"}, fetcher.queries)

	// served from the new page
	it.Next()
	current, err = it.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "D", current.StringField("NAME"))
	assert.Len(t, fetcher.queries, 1)
}

func TestIterator_StartsAtCollectionOffset(t *testing.T) {
	t.Parallel()

	fetcher := &pagedFetcher{items: []string{"A", "B", "C", "D", "E"}}
	it := crm.NewEntityCollectionIterator(fetcher, firstPage(t, query.NewCriteria().WithLimit(2).WithOffset(3), "D", "E"))

	assert.Equal(t, 3, it.Key())
	assert.True(t, it.DataAvailable())

	it.Rewind()
	assert.Equal(t, 0, it.Key())
	assert.False(t, it.DataAvailable())

	current, err := it.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A", current.StringField("NAME"))
	assert.Equal(t, []string{"limit=2&offset=0"}, fetcher.queries)
}

func TestIterator_ValidAndAtEnd(t *testing.T) {
	t.Parallel()

	for total := 1; total <= 4; total++ {
		entities := makeEntities(1)
		c, err := crm.NewEntityCollection(entities, nil, 0, 0, total)
		require.NoError(t, err)

		it := crm.NewEntityCollectionIterator(&pagedFetcher{}, c)

		for pos := -1; pos <= total; pos++ {
			it.Seek(pos)
			assert.Equal(t, pos == total-1, it.AtEnd(), "total %d pos %d", total, pos)
			assert.Equal(t, pos >= 0 && pos < total, it.Valid(), "total %d pos %d", total, pos)
		}
	}
}

func TestIterator_ForEach(t *testing.T) {
	t.Parallel()

	fetcher := &pagedFetcher{items: []string{"A", "B", "C", "D", "E"}}
	it := crm.NewEntityCollectionIterator(fetcher, firstPage(t, query.NewCriteria().WithLimit(2), "A", "B"))

	var names []string
	err := it.ForEach(context.Background(), func(i int, e *crm.Entity) error {
		assert.Equal(t, len(names), i)
		names = append(names, e.StringField("NAME"))

		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, names)
	assert.Equal(t, []string{"limit=2&offset=2", "limit=2&offset=4"}, fetcher.queries)
	assert.False(t, it.Valid())
}

func TestIterator_FetchErrorPropagates(t *testing.T) {
	t.Parallel()

	fetcher := &pagedFetcher{err: errFetchFailed}
	it := crm.NewEntityCollectionIterator(fetcher, firstPage(t, query.NewCriteria().WithLimit(2), "A", "B"))
	it.Seek(3)

	_, err := it.Current(context.Background())
	require.ErrorIs(t, err, errFetchFailed)

	err = it.ForEach(context.Background(), func(int, *crm.Entity) error { return nil })
	require.ErrorIs(t, err, errFetchFailed)
}

func TestIterator_OutsideFetchedPage(t *testing.T) {
	t.Parallel()

	// the server returns fewer entities than the position requires
	fetcher := &pagedFetcher{items: []string{"A", "B"}}
	it := crm.NewEntityCollectionIterator(fetcher, firstPage(t, query.NewCriteria().WithLimit(2), "A", "B"))
	it.Seek(4)

	_, err := it.Current(context.Background())
	require.ErrorIs(t, err, crm.ErrIndexOutOfRange)
}
