package crm

import (
	"context"

	"github.com/fivetwenty-io/pipeliner-client/pkg/crm/query"
)

// Fetcher loads a page of entities matching the criteria. Repository
// satisfies it.
type Fetcher interface {
	Get(ctx context.Context, criteria *query.Criteria) (*EntityCollection, error)
}

// EntityCollectionIterator walks the full result set behind a collection,
// index 0 to TotalCount-1, loading further pages from the server on demand.
// Only one page is held at a time; moving outside it and calling Current
// replaces it with the page starting at the current position, loaded with the
// original criteria.
//
// Validity is judged against the total count of the page held last. If the
// result set changes on the server between fetches the iterator does not
// notice until the next page is loaded.
//
//	it := repo.EntireRangeIterator(page)
//	for ; it.Valid(); it.Next() {
//		account, err := it.Current(ctx)
//		if err != nil {
//			return err
//		}
//		...
//	}
type EntityCollectionIterator struct {
	fetcher    Fetcher
	collection *EntityCollection
	criteria   *query.Criteria
	position   int
	logger     Logger
}

// IteratorOption configures an EntityCollectionIterator.
type IteratorOption func(*EntityCollectionIterator)

// WithIteratorLogger logs page fetches at debug level.
func WithIteratorLogger(logger Logger) IteratorOption {
	return func(it *EntityCollectionIterator) {
		it.logger = logger
	}
}

// NewEntityCollectionIterator creates an iterator positioned at the offset the
// collection was loaded with.
func NewEntityCollectionIterator(
	fetcher Fetcher,
	collection *EntityCollection,
	opts ...IteratorOption,
) *EntityCollectionIterator {
	criteria := collection.CriteriaCopy()

	it := &EntityCollectionIterator{
		fetcher:    fetcher,
		collection: collection,
		criteria:   criteria,
		position:   criteria.EffectiveOffset(),
	}

	for _, opt := range opts {
		opt(it)
	}

	return it
}

// Current returns the entity at the current position. If it is not in the held
// page, the page starting at the current position is fetched first. Fetch
// errors are returned as they are.
func (it *EntityCollectionIterator) Current(ctx context.Context) (*Entity, error) {
	if !it.DataAvailable() {
		it.criteria.WithOffset(it.position)

		if it.logger != nil {
			it.logger.Debug("Fetching entity page", map[string]interface{}{
				"offset": it.position,
				"limit":  it.criteria.EffectiveLimit(),
			})
		}

		collection, err := it.fetcher.Get(ctx, it.criteria)
		if err != nil {
			return nil, err
		}

		it.collection = collection
	}

	return it.collection.At(it.position - it.collection.StartIndex())
}

// Key returns the current position.
func (it *EntityCollectionIterator) Key() int {
	return it.position
}

// Next advances the position by one.
func (it *EntityCollectionIterator) Next() {
	it.position++
}

// Seek moves to an arbitrary position. It is not bounds-checked; use Valid.
func (it *EntityCollectionIterator) Seek(position int) {
	it.position = position
}

// Rewind moves to position 0, regardless of where iteration started.
func (it *EntityCollectionIterator) Rewind() {
	it.position = 0
}

// Valid reports whether the position lies within the result set.
func (it *EntityCollectionIterator) Valid() bool {
	return it.position >= 0 && it.position < it.collection.TotalCount()
}

// DataAvailable reports whether the current entity is in the held page, so
// Current will not need to fetch.
func (it *EntityCollectionIterator) DataAvailable() bool {
	return it.collection.Range().Contains(it.position)
}

// NextDataAvailable reports whether the entity after the current one is in
// the held page.
func (it *EntityCollectionIterator) NextDataAvailable() bool {
	return it.collection.Range().Contains(it.position + 1)
}

// AtEnd reports whether the position is the last index of the result set.
func (it *EntityCollectionIterator) AtEnd() bool {
	return it.position == it.collection.TotalCount()-1
}

// Collection returns the page currently held.
func (it *EntityCollectionIterator) Collection() *EntityCollection {
	return it.collection
}

// ForEach calls fn for every entity from the current position to the end of
// the result set, stopping at the first error.
func (it *EntityCollectionIterator) ForEach(ctx context.Context, fn func(index int, entity *Entity) error) error {
	for ; it.Valid(); it.Next() {
		err := ctx.Err()
		if err != nil {
			return err
		}

		entity, err := it.Current(ctx)
		if err != nil {
			return err
		}

		err = fn(it.position, entity)
		if err != nil {
			return err
		}
	}

	return nil
}
