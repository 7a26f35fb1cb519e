// Package cursor encodes resumable list positions as opaque tokens.
package cursor

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/fivetwenty-io/pipeliner-client/pkg/crm"
	"github.com/fivetwenty-io/pipeliner-client/pkg/crm/query"
)

// Static errors for err113 compliance.
var (
	ErrInvalidCursor  = errors.New("invalid cursor")
	ErrEntityMismatch = errors.New("cursor belongs to a different entity type")
)

// Cursor identifies the next page of a listing: the entity type and the
// criteria to load it with, offset included.
type Cursor struct {
	Entity string `cbor:"1,keyasint"`
	Query  string `cbor:"2,keyasint,omitempty"`
}

// Encode encodes a cursor into a URL-safe base64 string using CBOR.
func Encode(c *Cursor) (string, error) {
	data, err := cbor.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(data), nil
}

// Decode decodes a token produced by Encode.
func Decode(token string) (*Cursor, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCursor, err)
	}

	var c Cursor

	err = cbor.Unmarshal(data, &c)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCursor, err)
	}

	if c.Entity == "" {
		return nil, fmt.Errorf("%w: no entity type", ErrInvalidCursor)
	}

	return &c, nil
}

// Next returns the token for the page after page, or "" when page reaches
// the end of the result set.
func Next(entity string, page *crm.EntityCollection) (string, error) {
	next := page.EndIndex() + 1
	if page.EndIndex() == -1 || next >= page.TotalCount() {
		return "", nil
	}

	criteria := page.CriteriaCopy().WithOffset(next)

	return Encode(&Cursor{Entity: entity, Query: criteria.ToURLQuery()})
}

// Criteria returns the criteria stored in the cursor after checking that it
// was issued for entity.
func (c *Cursor) Criteria(entity string) (*query.Criteria, error) {
	if c.Entity != entity {
		return nil, fmt.Errorf("%w: %s, not %s", ErrEntityMismatch, c.Entity, entity)
	}

	criteria, err := query.ParseCriteria(c.Query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCursor, err)
	}

	return criteria, nil
}
