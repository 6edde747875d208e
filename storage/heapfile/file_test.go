package heapfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hit-dbcourse/bufjoindb/common"
	"github.com/hit-dbcourse/bufjoindb/types"
)

func TestWriteReadRoundTrip(t *testing.T) {
	f, err := Open(t.TempDir() + "/t.tbl")
	require.NoError(t, err)

	pageNo := f.AllocatePage()
	assert.Equal(t, types.PageID(1), pageNo)

	var data [common.PageSize]byte
	copy(data[:], "hello page")
	require.NoError(t, f.WritePage(pageNo, &data))

	var got [common.PageSize]byte
	require.NoError(t, f.ReadPage(pageNo, &got))
	assert.Equal(t, data, got)
}

func TestReadPastEndOfFileFails(t *testing.T) {
	f, err := Open(t.TempDir() + "/t.tbl")
	require.NoError(t, err)

	var data [common.PageSize]byte
	err = f.ReadPage(types.PageID(1), &data)
	assert.Error(t, err)
}

func TestAllocatePageNumbersAreSequential(t *testing.T) {
	f, err := Open(t.TempDir() + "/t.tbl")
	require.NoError(t, err)

	assert.Equal(t, types.PageID(1), f.AllocatePage())
	assert.Equal(t, types.PageID(2), f.AllocatePage())
	assert.Equal(t, types.PageID(3), f.AllocatePage())
}

func TestMemFileWriteReadRoundTrip(t *testing.T) {
	f := OpenMemFile("scratch")

	pageNo := f.AllocatePage()
	assert.Equal(t, types.PageID(1), pageNo)

	var data [common.PageSize]byte
	copy(data[:], "hello mem page")
	require.NoError(t, f.WritePage(pageNo, &data))

	var got [common.PageSize]byte
	require.NoError(t, f.ReadPage(pageNo, &got))
	assert.Equal(t, data, got)

	require.NoError(t, f.Remove())
}

func TestReopenRecoversNextPageID(t *testing.T) {
	path := t.TempDir() + "/t.tbl"
	f, err := Open(path)
	require.NoError(t, err)

	pageNo := f.AllocatePage()
	var data [common.PageSize]byte
	require.NoError(t, f.WritePage(pageNo, &data))
	require.NoError(t, f.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, types.PageID(2), reopened.AllocatePage())
}
