package crm

import (
	"fmt"
	"iter"
	"slices"

	"github.com/fivetwenty-io/pipeliner-client/pkg/crm/query"
)

// PageRange is the inclusive window [StartIndex, EndIndex] of a loaded page
// within a result set of TotalCount entities. The server reports an empty page
// as 0 - -1.
type PageRange struct {
	StartIndex int `json:"start_index" yaml:"start_index"`
	EndIndex   int `json:"end_index"   yaml:"end_index"`
	TotalCount int `json:"total_count" yaml:"total_count"`
}

// Len returns the number of entities the range covers.
func (r PageRange) Len() int {
	if r.EndIndex == -1 {
		return 0
	}

	return r.EndIndex - r.StartIndex + 1
}

// Contains reports whether index falls inside the loaded window.
func (r PageRange) Contains(index int) bool {
	return index >= r.StartIndex && index <= r.EndIndex
}

// EntityCollection is one loaded page of entities together with its position
// in the full result set and the criteria that produced it. The collection
// itself cannot be modified; the entities in it can.
type EntityCollection struct {
	entities  []*Entity
	pageRange PageRange
	criteria  *query.Criteria
}

// NewEntityCollection creates a collection. criteria may be anything accepted
// by query.Criteria.Set and is copied. It fails with ErrRangeMismatch unless
// end-start+1 equals the number of entities, or end is -1.
func NewEntityCollection(entities []*Entity, criteria any, start, end, total int) (*EntityCollection, error) {
	if end-start+1 != len(entities) && end != -1 {
		return nil, fmt.Errorf("%w: range %d-%d, %d entities", ErrRangeMismatch, start, end, len(entities))
	}

	snapshot, err := snapshotCriteria(criteria)
	if err != nil {
		return nil, err
	}

	return &EntityCollection{
		entities: slices.Clone(entities),
		pageRange: PageRange{
			StartIndex: start,
			EndIndex:   end,
			TotalCount: total,
		},
		criteria: snapshot,
	}, nil
}

// snapshotCriteria copies criteria, keeping the options of a *query.Criteria.
func snapshotCriteria(criteria any) (*query.Criteria, error) {
	if c, ok := criteria.(*query.Criteria); ok && c != nil {
		return c.Copy(), nil
	}

	snapshot, err := query.NewCriteriaFrom(criteria)
	if err != nil {
		return nil, fmt.Errorf("copying collection criteria: %w", err)
	}

	return snapshot, nil
}

// Len returns the number of entities in this page.
func (c *EntityCollection) Len() int {
	return len(c.entities)
}

// At returns the entity at a page-relative index.
func (c *EntityCollection) At(index int) (*Entity, error) {
	if index < 0 || index >= len(c.entities) {
		return nil, fmt.Errorf("%w: %d (page holds %d)", ErrIndexOutOfRange, index, len(c.entities))
	}

	return c.entities[index], nil
}

// Entities returns the entities in this page. The slice is a copy.
func (c *EntityCollection) Entities() []*Entity {
	return slices.Clone(c.entities)
}

// All iterates over page-relative indexes and entities.
func (c *EntityCollection) All() iter.Seq2[int, *Entity] {
	return func(yield func(int, *Entity) bool) {
		for i, e := range c.entities {
			if !yield(i, e) {
				return
			}
		}
	}
}

// TotalCount returns the size of the full result set on the server.
func (c *EntityCollection) TotalCount() int {
	return c.pageRange.TotalCount
}

// StartIndex returns the result-set index of the first entity in this page.
func (c *EntityCollection) StartIndex() int {
	return c.pageRange.StartIndex
}

// EndIndex returns the result-set index of the last entity in this page.
func (c *EntityCollection) EndIndex() int {
	return c.pageRange.EndIndex
}

// Range returns the page range.
func (c *EntityCollection) Range() PageRange {
	return c.pageRange
}

// CriteriaCopy returns a copy of the criteria used to load this page.
func (c *EntityCollection) CriteriaCopy() *query.Criteria {
	return c.criteria.Copy()
}

// Set always fails with ErrImmutable.
func (c *EntityCollection) Set(int, *Entity) error {
	return ErrImmutable
}

// Remove always fails with ErrImmutable.
func (c *EntityCollection) Remove(int) error {
	return ErrImmutable
}

// Append always fails with ErrImmutable.
func (c *EntityCollection) Append(...*Entity) error {
	return ErrImmutable
}

// Sort always fails with ErrImmutable.
func (c *EntityCollection) Sort(func(a, b *Entity) int) error {
	return ErrImmutable
}

// Replace always fails with ErrImmutable.
func (c *EntityCollection) Replace([]*Entity) error {
	return ErrImmutable
}
