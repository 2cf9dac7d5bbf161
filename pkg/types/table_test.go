package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTable_Accessors(t *testing.T) {
	table := &Table{
		Columns: []string{"ID_REF", "VALUE"},
		Rows: [][]string{
			{"1007_s_at", "8.5"},
			{"1053_at", "6.1"},
		},
	}

	assert.Equal(t, 2, table.NumRows())
	assert.Equal(t, 2, table.NumColumns())
	assert.Equal(t, 1, table.ColumnIndex("VALUE"))
	assert.Equal(t, -1, table.ColumnIndex("MISSING"))

	values, ok := table.Column("VALUE")
	assert.True(t, ok)
	assert.Equal(t, []string{"8.5", "6.1"}, values)

	_, ok = table.Column("MISSING")
	assert.False(t, ok)

	row, ok := table.Row(1)
	assert.True(t, ok)
	assert.Equal(t, map[string]string{"ID_REF": "1053_at", "VALUE": "6.1"}, row)

	_, ok = table.Row(2)
	assert.False(t, ok)
}

func TestTable_Nil(t *testing.T) {
	var table *Table
	assert.Equal(t, 0, table.NumRows())
	assert.Equal(t, 0, table.NumColumns())
	assert.Equal(t, -1, table.ColumnIndex("VALUE"))
}

func TestEntityKey(t *testing.T) {
	key := EntityKey{Kind: EntityKind("PLATFORM"), Name: "GPL570"}
	assert.Equal(t, KindPlatform, key.Kind)
	assert.Equal(t, "PLATFORM = GPL570", key.String())
	assert.True(t, key.Kind.IsKnown())
	assert.False(t, EntityKind("ANNOTATION").IsKnown())
}

func TestErrorClassification(t *testing.T) {
	assert.True(t, IsStructural(ErrNoEntity))
	assert.True(t, IsStructural(ErrAttributeNotFound))
	assert.False(t, IsStructural(ErrMalformedTable))
	assert.True(t, IsTableError(ErrMalformedTable))
	assert.False(t, IsTableError(nil))
}
