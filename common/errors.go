package common

import "github.com/pkg/errors"

// Error taxonomy for the buffer manager and its callers. Every condition a
// caller might need to branch on is a distinguishable sentinel so it can be
// compared with errors.Cause(err) == common.ErrXxx after any wrapping.
var (
	// ErrBufferExceeded is raised by allocBuf when a full CLOCK sweep finds
	// every frame pinned.
	ErrBufferExceeded = errors.New("buffer exceeded: no frame available for replacement")

	// ErrPagePinned is raised by flushFile when it encounters a frame for
	// the target file whose pin count has not returned to zero.
	ErrPagePinned = errors.New("page pinned: cannot flush a pinned frame")

	// ErrPageNotPinned is raised by unPinPage when the frame is resident
	// but its pin count is already zero.
	ErrPageNotPinned = errors.New("page not pinned: cannot unpin a frame with pinCnt == 0")

	// ErrBadBuffer is raised by flushFile when it finds an invalid frame
	// still tagged with the file being flushed.
	ErrBadBuffer = errors.New("bad buffer: invalid frame tagged with a live file")

	// ErrRecordNotFound is raised by Page.GetRecord/DeleteRecord for a slot
	// that holds no live record.
	ErrRecordNotFound = errors.New("record not found")

	// ErrPageFull is raised by Page.InsertRecord when there is not enough
	// free space left in the page for the record.
	ErrPageFull = errors.New("page full: not enough free space for record")
)
