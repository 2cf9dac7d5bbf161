package types

import "fmt"

// EntityKind is the label of a SOFT entity-indicator line (^KIND = NAME)
type EntityKind string

const (
	KindPlatform EntityKind = "PLATFORM"
	KindSeries   EntityKind = "SERIES"
	KindSample   EntityKind = "SAMPLE"

	// GDS files carry these kinds; they have no declared schema.
	KindDatabase EntityKind = "DATABASE"
	KindDataset  EntityKind = "DATASET"
	KindSubset   EntityKind = "SUBSET"
)

// IsKnown reports whether the kind is one GEO is documented to emit
func (k EntityKind) IsKnown() bool {
	switch k {
	case KindPlatform, KindSeries, KindSample, KindDatabase, KindDataset, KindSubset:
		return true
	default:
		return false
	}
}

// EntityKey uniquely identifies one entity within a parsed document
type EntityKey struct {
	Kind EntityKind
	Name string
}

// String renders the key the way it appears on an entity-indicator line
func (k EntityKey) String() string {
	return fmt.Sprintf("%s = %s", k.Kind, k.Name)
}
