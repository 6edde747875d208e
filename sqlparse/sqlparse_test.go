package sqlparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hit-dbcourse/bufjoindb/catalog"
)

func TestParseCreateTable(t *testing.T) {
	schema, err := ParseCreateTable("CREATE TABLE employees (id INT NOT NULL, name VARCHAR(30) UNIQUE, dept CHAR(8));")
	require.NoError(t, err)

	assert.Equal(t, "employees", schema.Name)
	require.Len(t, schema.Attributes, 3)

	assert.Equal(t, catalog.Attribute{Name: "id", Type: catalog.INT, MaxSize: 4, NotNull: true}, schema.Attributes[0])
	assert.Equal(t, catalog.VARCHAR, schema.Attributes[1].Type)
	assert.True(t, schema.Attributes[1].Unique)
	assert.Equal(t, catalog.CHAR, schema.Attributes[2].Type)
	assert.Equal(t, 8, schema.Attributes[2].MaxSize)
}

func TestParseInsertQuotedAndNumeric(t *testing.T) {
	schema := catalog.NewTableSchema("t", []catalog.Attribute{
		{Name: "a", Type: catalog.INT, MaxSize: 4},
		{Name: "b", Type: catalog.VARCHAR, MaxSize: 10},
	}, false)

	name, values, err := ParseInsert(`INSERT INTO t VALUES (7, 'hi');`, schema)
	require.NoError(t, err)
	assert.Equal(t, "t", name)
	assert.Equal(t, []interface{}{int32(7), "hi"}, values)
}

func TestPeekInsertTableName(t *testing.T) {
	name, err := PeekInsertTableName(`INSERT INTO widgets VALUES (1, 2, 3);`)
	require.NoError(t, err)
	assert.Equal(t, "widgets", name)
}
