package buffer

import (
	"github.com/hit-dbcourse/bufjoindb/storage/heapfile"
	"github.com/hit-dbcourse/bufjoindb/storage/page"
	"github.com/hit-dbcourse/bufjoindb/types"
)

// FrameID indexes a slot in the buffer pool's frame array.
type FrameID int32

// frameKey identifies a page by the heap file that owns it and its page
// number within that file. File identity is pointer identity: every table
// and partition is expected to be opened through exactly one *heapfile.File.
type frameKey struct {
	file   *heapfile.File
	pageNo types.PageID
}

// frame is one buffer pool slot: the CLOCK bookkeeping plus the page data it
// currently holds, once valid.
type frame struct {
	key    frameKey
	pg     *page.Page
	valid  bool
	refBit bool
	pinCnt int
	dirty  bool
}

func (f *frame) clear() {
	*f = frame{}
}
