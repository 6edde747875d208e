package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hit-dbcourse/bufjoindb/types"
)

func TestInsertGetRoundTrip(t *testing.T) {
	pg := NewEmptyPage(types.PageID(1))

	rid, err := pg.InsertRecord([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, types.PageID(1), rid.PageNum)

	got, err := pg.GetRecord(rid)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)
}

func TestDeleteThenGetFails(t *testing.T) {
	pg := NewEmptyPage(types.PageID(1))
	rid, err := pg.InsertRecord([]byte("bye"))
	require.NoError(t, err)

	require.NoError(t, pg.DeleteRecord(rid))

	_, err = pg.GetRecord(rid)
	assert.Error(t, err)
}

func TestDeletedSlotIsReused(t *testing.T) {
	pg := NewEmptyPage(types.PageID(1))
	rid1, err := pg.InsertRecord([]byte("one"))
	require.NoError(t, err)
	require.NoError(t, pg.DeleteRecord(rid1))

	rid2, err := pg.InsertRecord([]byte("two"))
	require.NoError(t, err)
	assert.Equal(t, rid1.Slot, rid2.Slot)
}

func TestHasSpaceForRecordReflectsRemainingCapacity(t *testing.T) {
	pg := NewEmptyPage(types.PageID(1))
	big := make([]byte, 8100)
	assert.True(t, pg.HasSpaceForRecord(big))

	_, err := pg.InsertRecord(big)
	require.NoError(t, err)

	assert.False(t, pg.HasSpaceForRecord(make([]byte, 100)))
}

func TestInsertFailsWhenFull(t *testing.T) {
	pg := NewEmptyPage(types.PageID(1))
	_, err := pg.InsertRecord(make([]byte, 9000))
	assert.Error(t, err)
}

func TestGetNextUsedSlotSkipsDeleted(t *testing.T) {
	pg := NewEmptyPage(types.PageID(1))
	rid1, err := pg.InsertRecord([]byte("a"))
	require.NoError(t, err)
	_, err = pg.InsertRecord([]byte("b"))
	require.NoError(t, err)
	rid3, err := pg.InsertRecord([]byte("c"))
	require.NoError(t, err)

	require.NoError(t, pg.DeleteRecord(rid1))

	var got []types.SlotID
	for s := pg.GetNextUsedSlot(types.InvalidSlotID); s != types.InvalidSlotID; s = pg.GetNextUsedSlot(s) {
		got = append(got, s)
	}
	assert.Equal(t, []types.SlotID{types.SlotID(1), rid3.Slot}, got)
}
