package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Line
	}{
		{
			name: "entity line",
			raw:  "^PLATFORM = GPL1\n",
			want: Line{Kind: LineEntity, Raw: "^PLATFORM = GPL1", Payload: "PLATFORM = GPL1", Label: "PLATFORM", Value: "GPL1", HasValue: true},
		},
		{
			name: "attribute with value",
			raw:  "!Platform_title = X",
			want: Line{Kind: LineAttribute, Raw: "!Platform_title = X", Payload: "Platform_title = X", Label: "Platform_title", Value: "X", HasValue: true},
		},
		{
			name: "value containing separator",
			raw:  "!Sample_description = a = b",
			want: Line{Kind: LineAttribute, Raw: "!Sample_description = a = b", Payload: "Sample_description = a = b", Label: "Sample_description", Value: "a = b", HasValue: true},
		},
		{
			name: "empty value",
			raw:  "#ID_REF = ",
			want: Line{Kind: LineHeader, Raw: "#ID_REF = ", Payload: "ID_REF = ", Label: "ID_REF", Value: "", HasValue: true},
		},
		{
			name: "bare label",
			raw:  "!platform_table_begin\r\n",
			want: Line{Kind: LineAttribute, Raw: "!platform_table_begin", Payload: "platform_table_begin", Label: "platform_table_begin"},
		},
		{
			name: "bare marker only",
			raw:  "!",
			want: Line{Kind: LineAttribute, Raw: "!", Payload: "", Label: ""},
		},
		{
			name: "malformed attribute",
			raw:  "!Sample_title=no spaces",
			want: Line{Kind: LineAttribute, Raw: "!Sample_title=no spaces", Payload: "Sample_title=no spaces", Label: "Sample_title=no spaces"},
		},
		{
			name: "data row keeps full text",
			raw:  "ID_REF\tVALUE",
			want: Line{Kind: LineRow, Raw: "ID_REF\tVALUE", Payload: "ID_REF\tVALUE"},
		},
		{
			name: "empty line",
			raw:  "\n",
			want: Line{Kind: LineRow},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.raw))
		})
	}
}

func TestLineKind_String(t *testing.T) {
	assert.Equal(t, "entity", LineEntity.String())
	assert.Equal(t, "attribute", LineAttribute.String())
	assert.Equal(t, "header", LineHeader.String())
	assert.Equal(t, "row", LineRow.String())
}
