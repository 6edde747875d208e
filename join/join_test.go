package join

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hit-dbcourse/bufjoindb/catalog"
	"github.com/hit-dbcourse/bufjoindb/heapfilemanager"
	"github.com/hit-dbcourse/bufjoindb/storage/buffer"
	"github.com/hit-dbcourse/bufjoindb/storage/heapfile"
	"github.com/hit-dbcourse/bufjoindb/tuple"
	"github.com/hit-dbcourse/bufjoindb/types"
)

func intIntSchema(name, col1, col2 string) *catalog.TableSchema {
	return catalog.NewTableSchema(name, []catalog.Attribute{
		{Name: col1, Type: catalog.INT, MaxSize: 4},
		{Name: col2, Type: catalog.INT, MaxSize: 4},
	}, false)
}

func insertRow(t *testing.T, schema *catalog.TableSchema, f *heapfile.File, bpm *buffer.BufferPoolManager, a, b int32) {
	t.Helper()
	rec, err := tuple.Encode(schema, []interface{}{a, b})
	require.NoError(t, err)
	_, err = heapfilemanager.InsertTuple(rec, f, bpm)
	require.NoError(t, err)
}

func readAllRows(t *testing.T, schema *catalog.TableSchema, f *heapfile.File, bpm *buffer.BufferPoolManager) [][]interface{} {
	t.Helper()
	var rows [][]interface{}
	for pageNo := types.PageID(1); int(pageNo) <= f.NumPages(); pageNo++ {
		pg, err := bpm.ReadPage(f, pageNo)
		require.NoError(t, err)
		for slot := pg.GetNextUsedSlot(types.InvalidSlotID); slot != types.InvalidSlotID; slot = pg.GetNextUsedSlot(slot) {
			data, err := pg.GetRecord(types.NewRecordID(pageNo, slot))
			require.NoError(t, err)
			values, err := tuple.Decode(schema, data)
			require.NoError(t, err)
			rows = append(rows, values)
		}
		require.NoError(t, bpm.UnpinPage(f, pageNo, false))
	}
	return rows
}

// buildRS is scenario S4's fixture: R(a,b) = {(1,10),(2,20)}, S(a,c) = {(1,100),(3,300)}.
func buildRS(t *testing.T) (*heapfile.File, *heapfile.File, *catalog.TableSchema, *catalog.TableSchema, *buffer.BufferPoolManager) {
	t.Helper()
	dir := t.TempDir()
	bpm := buffer.NewBufferPoolManager(32)

	rSchema := intIntSchema("R", "a", "b")
	sSchema := intIntSchema("S", "a", "c")

	rFile, err := heapfile.Open(dir + "/r.tbl")
	require.NoError(t, err)
	sFile, err := heapfile.Open(dir + "/s.tbl")
	require.NoError(t, err)

	insertRow(t, rSchema, rFile, bpm, 1, 10)
	insertRow(t, rSchema, rFile, bpm, 2, 20)
	insertRow(t, sSchema, sFile, bpm, 1, 100)
	insertRow(t, sSchema, sFile, bpm, 3, 300)

	return rFile, sFile, rSchema, sSchema, bpm
}

func TestOnePassJoinS4(t *testing.T) {
	rFile, sFile, rSchema, sSchema, bpm := buildRS(t)
	resultFile, err := heapfile.Open(t.TempDir() + "/result.tbl")
	require.NoError(t, err)

	op := NewOnePassJoinOperator(rFile, sFile, rSchema, sSchema, nil, bpm)
	ok, err := op.Execute(5, resultFile)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, op.Stats().NumResultTuples)

	rows := readAllRows(t, op.ResultSchema(), resultFile, bpm)
	require.Len(t, rows, 1)
	assert.Equal(t, []interface{}{int32(1), int32(10), int32(100)}, rows[0])
}

func TestOnePassJoinIsIdempotent(t *testing.T) {
	rFile, sFile, rSchema, sSchema, bpm := buildRS(t)
	resultFile, err := heapfile.Open(t.TempDir() + "/result.tbl")
	require.NoError(t, err)

	op := NewOnePassJoinOperator(rFile, sFile, rSchema, sSchema, nil, bpm)
	_, err = op.Execute(5, resultFile)
	require.NoError(t, err)
	firstStats := op.Stats()

	ok, err := op.Execute(5, resultFile)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, firstStats, op.Stats())
}

// TestNestedLoopMatchesOnePass is scenario S5.
func TestNestedLoopMatchesOnePass(t *testing.T) {
	rFile, sFile, rSchema, sSchema, bpm := buildRS(t)
	onePassResult, err := heapfile.Open(t.TempDir() + "/onepass.tbl")
	require.NoError(t, err)

	onePass := NewOnePassJoinOperator(rFile, sFile, rSchema, sSchema, nil, bpm)
	_, err = onePass.Execute(5, onePassResult)
	require.NoError(t, err)

	nlFile2, nlFile3, rSchema2, sSchema2, bpm2 := buildRS(t)
	nestedLoopResult, err := heapfile.Open(t.TempDir() + "/nestedloop.tbl")
	require.NoError(t, err)

	nestedLoop := NewNestedLoopJoinOperator(nlFile2, nlFile3, rSchema2, sSchema2, nil, bpm2)
	_, err = nestedLoop.Execute(3, nestedLoopResult)
	require.NoError(t, err)

	onePassRows := readAllRows(t, onePass.ResultSchema(), onePassResult, bpm)
	nestedLoopRows := readAllRows(t, nestedLoop.ResultSchema(), nestedLoopResult, bpm2)

	assert.ElementsMatch(t, onePassRows, nestedLoopRows)
}

// buildLargeRS is scenario S6's fixture: R and S each have 10000 rows on
// (a, b)/(a, c), large enough to span many pages per side. Their a values
// overlap on exactly 1000 keys, each unique on both sides, so the natural
// join's result cardinality is 1000.
func buildLargeRS(t *testing.T) (*heapfile.File, *heapfile.File, *catalog.TableSchema, *catalog.TableSchema, *buffer.BufferPoolManager) {
	t.Helper()
	dir := t.TempDir()
	bpm := buffer.NewBufferPoolManager(32)

	rSchema := intIntSchema("R", "a", "b")
	sSchema := intIntSchema("S", "a", "c")

	rFile, err := heapfile.Open(dir + "/r.tbl")
	require.NoError(t, err)
	sFile, err := heapfile.Open(dir + "/s.tbl")
	require.NoError(t, err)

	// R has a = 0..9999; S has a = 9000..18999. The two ranges share
	// exactly the 1000 keys 9000..9999, each appearing once per side.
	for i := int32(0); i < 10000; i++ {
		insertRow(t, rSchema, rFile, bpm, i, i*10)
	}
	for i := int32(0); i < 10000; i++ {
		insertRow(t, sSchema, sFile, bpm, 9000+i, (9000+i)*100)
	}

	return rFile, sFile, rSchema, sSchema, bpm
}

// TestGraceHashLargeScale is scenario S6: 10000 rows per side, M=5 so B=4,
// a bucket holding roughly a quarter of each relation's rows spans several
// pages. This exercises the inner one-pass join's pin budget against the
// pool's physical frame count rather than the partitioning budget M, and
// confirms partitions are cleaned up so the join can run to completion.
func TestGraceHashLargeScale(t *testing.T) {
	rFile, sFile, rSchema, sSchema, bpm := buildLargeRS(t)
	resultFile, err := heapfile.Open(t.TempDir() + "/grace_large.tbl")
	require.NoError(t, err)

	grace := NewGraceHashJoinOperator(rFile, sFile, rSchema, sSchema, nil, bpm)
	ok, err := grace.Execute(5, resultFile)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1000, grace.Stats().NumResultTuples)

	rows := readAllRows(t, grace.ResultSchema(), resultFile, bpm)
	assert.Len(t, rows, 1000)
	for _, row := range rows {
		a := row[0].(int32)
		assert.True(t, a >= 9000 && a < 10000)
	}
}

func TestGraceHashMatchesOnePass(t *testing.T) {
	rFile, sFile, rSchema, sSchema, bpm := buildRS(t)
	onePassResult, err := heapfile.Open(t.TempDir() + "/onepass.tbl")
	require.NoError(t, err)
	onePass := NewOnePassJoinOperator(rFile, sFile, rSchema, sSchema, nil, bpm)
	_, err = onePass.Execute(5, onePassResult)
	require.NoError(t, err)

	gFile1, gFile2, rSchema2, sSchema2, bpm2 := buildRS(t)
	graceResult, err := heapfile.Open(t.TempDir() + "/grace.tbl")
	require.NoError(t, err)
	grace := NewGraceHashJoinOperator(gFile1, gFile2, rSchema2, sSchema2, nil, bpm2)
	_, err = grace.Execute(5, graceResult)
	require.NoError(t, err)

	onePassRows := readAllRows(t, onePass.ResultSchema(), onePassResult, bpm)
	graceRows := readAllRows(t, grace.ResultSchema(), graceResult, bpm2)
	assert.ElementsMatch(t, onePassRows, graceRows)
}
