package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAndLookupTable(t *testing.T) {
	cat := NewCatalog()
	schema := NewTableSchema("widgets", []Attribute{{Name: "id", Type: INT, MaxSize: 4}}, false)

	id, err := cat.AddTableSchema(schema, "widgets.tbl")
	require.NoError(t, err)

	gotID, err := cat.GetTableId("widgets")
	require.NoError(t, err)
	assert.Equal(t, id, gotID)

	filename, err := cat.GetTableFilename(id)
	require.NoError(t, err)
	assert.Equal(t, "widgets.tbl", filename)

	gotSchema, err := cat.GetTableSchema(id)
	require.NoError(t, err)
	assert.Same(t, schema, gotSchema)
}

func TestDuplicateTableNameFails(t *testing.T) {
	cat := NewCatalog()
	schema := NewTableSchema("widgets", nil, false)
	_, err := cat.AddTableSchema(schema, "widgets.tbl")
	require.NoError(t, err)

	_, err = cat.AddTableSchema(schema, "widgets2.tbl")
	assert.Error(t, err)
}

func TestUnknownTableLookupFails(t *testing.T) {
	cat := NewCatalog()
	_, err := cat.GetTableId("nope")
	assert.Error(t, err)
}
