package types

import "github.com/cockroachdb/errors"

// Structural errors: no entity context exists to anchor the data.
var (
	ErrNoEntity          = errors.New("content line before any entity-indicator line")
	ErrDuplicateEntity   = errors.New("entity declared more than once")
	ErrAttributeNotFound = errors.New("attribute not found")
)

// Table errors: fatal for one entity's table only.
var (
	ErrMalformedTable = errors.New("malformed data table")
)

// IsStructural reports whether err aborts the whole parse
func IsStructural(err error) bool {
	return errors.IsAny(err, ErrNoEntity, ErrDuplicateEntity, ErrAttributeNotFound)
}

// IsTableError reports whether err only invalidates one entity's table
func IsTableError(err error) bool {
	return errors.Is(err, ErrMalformedTable)
}
