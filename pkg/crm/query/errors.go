package query

import "errors"

// Static errors for err113 compliance.
var (
	ErrInvalidOperator       = errors.New("invalid filter operator")
	ErrInvalidFilterValue    = errors.New("invalid filter value")
	ErrMethodNotFound        = errors.New("call to a non-existent method")
	ErrInvalidCriteriaSource = errors.New("invalid criteria source")
	ErrInvalidCriteriaValue  = errors.New("invalid criteria value")
)
