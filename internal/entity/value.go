package entity

import "strings"

// SlotKind tags what an attribute slot currently holds
type SlotKind int

const (
	SlotUnset  SlotKind = iota // declared scalar, no value yet
	SlotScalar                 // declared scalar with its value
	SlotList                   // list of values in arrival order
)

// String returns the slot kind name
func (k SlotKind) String() string {
	switch k {
	case SlotScalar:
		return "scalar"
	case SlotList:
		return "list"
	default:
		return "unset"
	}
}

// Value is one attribute slot: Unset | Scalar(value) | List(values)
type Value struct {
	kind   SlotKind
	scalar string
	list   []string
}

// UnsetValue returns an empty scalar slot
func UnsetValue() Value { return Value{kind: SlotUnset} }

// ScalarValue returns a populated scalar slot
func ScalarValue(v string) Value { return Value{kind: SlotScalar, scalar: v} }

// ListValue returns a list slot holding values
func ListValue(values ...string) Value {
	return Value{kind: SlotList, list: append([]string{}, values...)}
}

// Kind returns the slot kind
func (v Value) Kind() SlotKind { return v.kind }

// IsUnset reports whether the slot is a scalar with no value
func (v Value) IsUnset() bool { return v.kind == SlotUnset }

// Scalar returns the scalar value; ok is false for unset and list slots
func (v Value) Scalar() (string, bool) {
	if v.kind != SlotScalar {
		return "", false
	}
	return v.scalar, true
}

// List returns a copy of the list values; ok is false for scalar slots
func (v Value) List() ([]string, bool) {
	if v.kind != SlotList {
		return nil, false
	}
	return append([]string{}, v.list...), true
}

// Values flattens the slot: nothing, one value, or the whole list
func (v Value) Values() []string {
	switch v.kind {
	case SlotScalar:
		return []string{v.scalar}
	case SlotList:
		return append([]string{}, v.list...)
	default:
		return nil
	}
}

// String joins list values with "; "
func (v Value) String() string {
	switch v.kind {
	case SlotScalar:
		return v.scalar
	case SlotList:
		return strings.Join(v.list, "; ")
	default:
		return ""
	}
}
