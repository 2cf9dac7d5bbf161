package parser

import (
	"regexp"
	"strings"
)

// LineKind is the class of a SOFT line, chosen by its first character
type LineKind int

const (
	LineRow       LineKind = iota // anything else: raw table data
	LineEntity                    // ^KIND = NAME
	LineAttribute                 // !label = value, or bare !label
	LineHeader                    // #COLUMN = description
)

// String returns the line kind name
func (k LineKind) String() string {
	switch k {
	case LineEntity:
		return "entity"
	case LineAttribute:
		return "attribute"
	case LineHeader:
		return "header"
	default:
		return "row"
	}
}

// Line is one tokenized SOFT line
type Line struct {
	Kind LineKind
	// Raw is the line without its line terminator
	Raw string
	// Payload is Raw minus the marker character; rows keep the full text
	Payload string
	Label   string
	Value   string
	// HasValue is false for bare labels (no " = " separator)
	HasValue bool
}

var labelValue = regexp.MustCompile(`^([^=]+) = (.*)$`)

// Tokenize classifies raw strictly on its first character and splits the
// payload into label and value. Lines that do not match "label = value"
// become bare labels; tokenizing never fails.
func Tokenize(raw string) Line {
	raw = strings.TrimRight(raw, "\r\n")

	line := Line{Kind: LineRow, Raw: raw, Payload: raw}
	if raw == "" {
		return line
	}

	switch raw[0] {
	case '^':
		line.Kind = LineEntity
	case '!':
		line.Kind = LineAttribute
	case '#':
		line.Kind = LineHeader
	default:
		return line
	}

	line.Payload = raw[1:]
	if m := labelValue.FindStringSubmatch(line.Payload); m != nil {
		line.Label, line.Value, line.HasValue = m[1], m[2], true
	} else {
		line.Label = line.Payload
	}
	return line
}
