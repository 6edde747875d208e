package tuple

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hit-dbcourse/bufjoindb/catalog"
)

func testSchema() *catalog.TableSchema {
	return catalog.NewTableSchema("t", []catalog.Attribute{
		{Name: "a", Type: catalog.INT, MaxSize: 4},
		{Name: "b", Type: catalog.CHAR, MaxSize: 4},
		{Name: "c", Type: catalog.VARCHAR, MaxSize: 20},
	}, false)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	schema := testSchema()
	values := []interface{}{int32(65535), "foo ", "hello world"}

	data, err := Encode(schema, values)
	require.NoError(t, err)

	got, err := Decode(schema, data)
	require.NoError(t, err)

	assert.Equal(t, int32(65535), got[0])
	assert.Equal(t, "foo ", got[1]) // only trailing 0x00 is stripped; the space is content
	assert.Equal(t, "hello world", got[2])
}

func TestNegativeIntRoundTrips(t *testing.T) {
	schema := catalog.NewTableSchema("t", []catalog.Attribute{
		{Name: "a", Type: catalog.INT, MaxSize: 4},
	}, false)

	data, err := Encode(schema, []interface{}{int32(-1)})
	require.NoError(t, err)

	got, err := Decode(schema, data)
	require.NoError(t, err)
	assert.Equal(t, int32(-1), got[0])
}

func TestEncodedLengthIsAlwaysAligned(t *testing.T) {
	schema := testSchema()
	data, err := Encode(schema, []interface{}{int32(1), "x", "y"})
	require.NoError(t, err)
	assert.Equal(t, 0, len(data)%4)
}

func TestAttributeBytesStripsPaddingNotContent(t *testing.T) {
	schema := testSchema()
	data, err := Encode(schema, []interface{}{int32(7), "ab", "z"})
	require.NoError(t, err)

	varcharBytes, err := AttributeBytes(schema, data, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 'z'}, varcharBytes)
}

func TestCharExceedingMaxSizeFails(t *testing.T) {
	schema := testSchema()
	_, err := Encode(schema, []interface{}{int32(1), "toolong", "x"})
	assert.Error(t, err)
}
