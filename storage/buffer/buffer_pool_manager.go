// The CLOCK sweep and frame bookkeeping here follow the general shape of
// go-bustub-style buffer pool managers, generalized to a pointer-identity
// frame key so the same pool can back any number of open heap files.

// Package buffer implements the CLOCK buffer pool manager: the page cache
// shared by every heap file and join executor in the module. Frames are
// recycled by a CLOCK sweep over reference bits rather than LRU bookkeeping.
package buffer

import (
	deadlock "github.com/sasha-s/go-deadlock"

	"github.com/hit-dbcourse/bufjoindb/common"
	"github.com/hit-dbcourse/bufjoindb/storage/heapfile"
	"github.com/hit-dbcourse/bufjoindb/storage/page"
	"github.com/hit-dbcourse/bufjoindb/types"
)

// BufferPoolManager caches pages from any number of open heap files in a
// fixed-size pool of frames, using CLOCK to choose a victim when the pool is
// full. All public methods are safe for concurrent use.
type BufferPoolManager struct {
	mu        deadlock.Mutex
	numBufs   uint32
	clockHand uint32
	frames    []frame
	table     map[frameKey]FrameID
}

// NewBufferPoolManager creates a pool of numBufs frames. numBufs must be at
// least common.MinBufs for the join executors to make progress.
func NewBufferPoolManager(numBufs uint32) *BufferPoolManager {
	return &BufferPoolManager{
		numBufs: numBufs,
		frames:  make([]frame, numBufs),
		table:   make(map[frameKey]FrameID, numBufs),
	}
}

// advanceClock moves the clock hand to the next frame, wrapping around.
func (b *BufferPoolManager) advanceClock() {
	b.clockHand = (b.clockHand + 1) % b.numBufs
}

// allocBuf runs the CLOCK sweep to find a frame for a new page: the first
// frame along the sweep that is either invalid or valid, unpinned, and with
// its reference bit already cleared by a previous pass. If it evicts a
// dirty frame, the victim page is flushed first. Returns
// common.ErrBufferExceeded if two full sweeps find no victim, meaning every
// frame is currently pinned.
func (b *BufferPoolManager) allocBuf() (FrameID, error) {
	pinnedSeen := uint32(0)
	for {
		b.advanceClock()

		f := &b.frames[b.clockHand]
		if !f.valid {
			f.clear()
			return FrameID(b.clockHand), nil
		}
		if f.refBit {
			f.refBit = false
			// This frame gets a second look on the next pass, so the run of
			// pinned frames seen so far no longer proves the pool is full.
			pinnedSeen = 0
			continue
		}
		if f.pinCnt > 0 {
			pinnedSeen++
			if pinnedSeen == b.numBufs {
				return 0, common.ErrBufferExceeded
			}
			continue
		}

		if f.dirty {
			if err := f.key.file.WritePage(f.key.pageNo, f.pg.Data()); err != nil {
				return 0, err
			}
		}
		delete(b.table, f.key)
		return FrameID(b.clockHand), nil
	}
}

// ReadPage returns the page (file, pageNo), pinning it and setting its
// reference bit. It reads from disk through file only on a pool miss.
func (b *BufferPoolManager) ReadPage(file *heapfile.File, pageNo types.PageID) (*page.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := frameKey{file, pageNo}
	if frameID, ok := b.table[key]; ok {
		f := &b.frames[frameID]
		f.refBit = true
		f.pinCnt++
		return f.pg, nil
	}

	frameID, err := b.allocBuf()
	if err != nil {
		return nil, err
	}

	var data [common.PageSize]byte
	if err := file.ReadPage(pageNo, &data); err != nil {
		return nil, err
	}

	pg := page.NewPage(&data)
	b.frames[frameID] = frame{key: key, pg: pg, valid: true, refBit: true, pinCnt: 1}
	b.table[key] = frameID
	return pg, nil
}

// UnpinPage releases one pin held on (file, pageNo). isDirty is OR'd into the
// frame's dirty bit so a page written-but-not-yet-dirtied by an earlier
// unpin stays marked dirty. Unpinning a page that is not resident is a
// no-op: callers that only ever unpin pages they themselves pinned will
// never hit this path with a page that matters.
func (b *BufferPoolManager) UnpinPage(file *heapfile.File, pageNo types.PageID, isDirty bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	frameID, ok := b.table[frameKey{file, pageNo}]
	if !ok {
		return nil
	}

	f := &b.frames[frameID]
	if f.pinCnt == 0 {
		return common.ErrPageNotPinned
	}
	f.pinCnt--
	f.dirty = f.dirty || isDirty
	return nil
}

// AllocPage allocates a new page in file and seats it in the pool, pinned
// once and marked dirty so it is guaranteed to reach disk on the next flush
// or eviction.
func (b *BufferPoolManager) AllocPage(file *heapfile.File) (types.PageID, *page.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	pageNo := file.AllocatePage()
	frameID, err := b.allocBuf()
	if err != nil {
		return types.InvalidPageID, nil, err
	}

	pg := page.NewEmptyPage(pageNo)
	key := frameKey{file, pageNo}
	b.frames[frameID] = frame{key: key, pg: pg, valid: true, refBit: true, pinCnt: 1, dirty: true}
	b.table[key] = frameID
	return pageNo, pg, nil
}

// DisposePage drops (file, pageNo) from the pool, if resident, and tells
// file to reclaim its page number.
func (b *BufferPoolManager) DisposePage(file *heapfile.File, pageNo types.PageID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := frameKey{file, pageNo}
	if frameID, ok := b.table[key]; ok {
		b.frames[frameID].clear()
		delete(b.table, key)
	}
	file.DeallocatePage(pageNo)
}

// FlushFile writes every dirty frame belonging to file back to disk and
// evicts all of file's frames from the pool. Returns common.ErrPagePinned if
// any of file's frames is still pinned, or common.ErrBadBuffer if a frame
// tagged with file is not marked valid.
func (b *BufferPoolManager) FlushFile(file *heapfile.File) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.frames {
		f := &b.frames[i]
		if f.key.file != file {
			continue
		}
		if f.pinCnt > 0 {
			return common.ErrPagePinned
		}
		if !f.valid {
			return common.ErrBadBuffer
		}
		if f.dirty {
			if err := file.WritePage(f.key.pageNo, f.pg.Data()); err != nil {
				return err
			}
		}
		delete(b.table, f.key)
		f.clear()
	}
	return nil
}

// NumBufs returns the pool's fixed frame count.
func (b *BufferPoolManager) NumBufs() uint32 {
	return b.numBufs
}

// Close flushes every dirty valid frame back to its file, then releases the
// pool's frames and hash table. Callers must not use the pool afterward.
// Unlike FlushFile, Close does not fail on a pinned frame: it is meant for
// program teardown, after every pin has already been released, and simply
// drops whatever is left.
func (b *BufferPoolManager) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.frames {
		f := &b.frames[i]
		if !f.valid {
			continue
		}
		if f.dirty {
			if err := f.key.file.WritePage(f.key.pageNo, f.pg.Data()); err != nil {
				return err
			}
		}
		f.clear()
	}
	b.table = make(map[frameKey]FrameID, b.numBufs)
	return nil
}
