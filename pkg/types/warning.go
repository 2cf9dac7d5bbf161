package types

import "fmt"

// WarningCode classifies a non-fatal schema violation
type WarningCode string

const (
	WarnDuplicateScalar   WarningCode = "duplicate_scalar"
	WarnMissingObligation WarningCode = "missing_obligation"
	WarnEmptyFullList     WarningCode = "empty_full_list"
)

// Warning records a schema violation found while parsing or validating.
// Warnings never abort a parse; the model keeps its best-effort values.
type Warning struct {
	Entity    EntityKey
	Attribute string
	Code      WarningCode
	Message   string
}

// String formats the warning for logs and CLI output
func (w Warning) String() string {
	return fmt.Sprintf("%s: %s: %s", w.Entity, w.Attribute, w.Message)
}
