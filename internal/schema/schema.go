// Package schema declares the expected shape of each SOFT entity kind.
//
// A schema sorts attribute names into four disjoint sets. The sets describe
// expected cardinality, not hard constraints: GEO producers are
// heterogeneous, so violations become warnings rather than errors.
package schema

import (
	"strings"

	"github.com/dshills/geosoft-mcp/pkg/types"
)

// Cardinality is the declared shape of one attribute
type Cardinality int

const (
	// Undeclared attributes behave as lists
	Undeclared Cardinality = iota
	Obligation             // exactly one scalar
	Flag                   // zero or one scalar
	EmptyList              // zero or more values
	FullList               // one or more values
)

// String returns the cardinality name
func (c Cardinality) String() string {
	switch c {
	case Obligation:
		return "obligation"
	case Flag:
		return "flag"
	case EmptyList:
		return "empty_list"
	case FullList:
		return "full_list"
	default:
		return "undeclared"
	}
}

// IsScalar reports whether values of this cardinality hold a single value
func (c Cardinality) IsScalar() bool {
	return c == Obligation || c == Flag
}

// Schema holds the four name-sets for one entity kind
type Schema struct {
	Obligations []string
	Flags       []string
	EmptyLists  []string
	FullLists   []string
}

var platform = Schema{
	Obligations: []string{
		"Platform_title",
		"Platform_distribution",
		"Platform_technology",
		"Platform_manufacturer",
		"platform_table_begin",
		"platform_table_end",
	},
	Flags: []string{
		"Platform_support",
		"Platform_coating",
		"Platform_geo_accession",
	},
	EmptyLists: []string{
		"Platform_catalog_number",
		"Platform_web_link",
		"Platform_description",
		"Platform_contributor",
		"Platform_pubmed_id",
	},
	FullLists: []string{
		"Platform_organism",
		"Platform_manufacture_protocol",
	},
}

// ForKind returns the schema for an entity kind.
// Kinds without a declared schema get the empty schema.
func ForKind(kind types.EntityKind) Schema {
	switch kind {
	case types.KindPlatform:
		return platform.clone()
	default:
		return Schema{}
	}
}

// Cardinality returns the declared cardinality of name
func (s Schema) Cardinality(name string) Cardinality {
	switch {
	case contains(s.Obligations, name):
		return Obligation
	case contains(s.Flags, name):
		return Flag
	case contains(s.EmptyLists, name):
		return EmptyList
	case contains(s.FullLists, name):
		return FullList
	default:
		return Undeclared
	}
}

// Declared returns every declared name in schema order:
// obligations, flags, empty lists, full lists.
func (s Schema) Declared() []string {
	out := make([]string, 0, len(s.Obligations)+len(s.Flags)+len(s.EmptyLists)+len(s.FullLists))
	out = append(out, s.Obligations...)
	out = append(out, s.Flags...)
	out = append(out, s.EmptyLists...)
	out = append(out, s.FullLists...)
	return out
}

// IsEmpty reports whether the schema declares nothing
func (s Schema) IsEmpty() bool {
	return len(s.Obligations) == 0 && len(s.Flags) == 0 && len(s.EmptyLists) == 0 && len(s.FullLists) == 0
}

func (s Schema) clone() Schema {
	return Schema{
		Obligations: append([]string(nil), s.Obligations...),
		Flags:       append([]string(nil), s.Flags...),
		EmptyLists:  append([]string(nil), s.EmptyLists...),
		FullLists:   append([]string(nil), s.FullLists...),
	}
}

// IsTableBegin reports whether a bare attribute label opens a data table,
// e.g. platform_table_begin or sample_table_begin.
func IsTableBegin(label string) bool {
	return strings.HasSuffix(strings.ToLower(label), "_table_begin")
}

// IsTableEnd reports whether a bare attribute label closes a data table
func IsTableEnd(label string) bool {
	return strings.HasSuffix(strings.ToLower(label), "_table_end")
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
