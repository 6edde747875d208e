// The slot directory layout here follows the general shape used by
// go-bustub-style slotted pages, generalized to variable-length records.

// Package page implements the fixed-size slotted page: a byte container with
// a small header, a slot directory growing from the front, and records
// packed from the back. It underlies every heap file in the buffer manager.
package page

import (
	"encoding/binary"

	"github.com/hit-dbcourse/bufjoindb/common"
	"github.com/hit-dbcourse/bufjoindb/types"
)

// Slotted page format:
//
//	-----------------------------------------------------------------
//	| PageId(4) | FreeSpacePtr(4) | SlotCount(4) | slot dir ... | ... free space ... | records ... |
//	-----------------------------------------------------------------
//	slot dir entry: RecordOffset(4) RecordSize(4), RecordSize == 0 means the slot is free.
//	Records are appended from the tail of the page backward as FreeSpacePtr decreases.
const (
	offsetPageID      = 0
	offsetFreeSpacePtr = 4
	offsetSlotCount   = 8
	headerSize        = 12
	slotEntrySize     = 8
)

// Page is an in-memory view of one page's worth of bytes, backed either by a
// buffer pool frame or (in tests) by a standalone allocation. It owns no I/O;
// the buffer manager and File decide when bytes move to and from disk.
type Page struct {
	data *[common.PageSize]byte
}

// NewPage wraps an existing byte array as a Page, without touching its
// contents. Used by the buffer manager when seating a page freshly read from
// disk into a frame.
func NewPage(data *[common.PageSize]byte) *Page {
	return &Page{data: data}
}

// NewEmptyPage formats a fresh, empty page for pageNum.
func NewEmptyPage(pageNum types.PageID) *Page {
	p := &Page{data: &[common.PageSize]byte{}}
	p.setPageID(pageNum)
	p.setFreeSpacePointer(common.PageSize)
	p.setSlotCount(0)
	return p
}

// Data returns the raw backing array, e.g. so the buffer manager can hand it
// to the disk manager for a write.
func (p *Page) Data() *[common.PageSize]byte {
	return p.data
}

// PageNumber returns this page's own PageId, stored in its header.
func (p *Page) PageNumber() types.PageID {
	return types.PageID(binary.BigEndian.Uint32(p.data[offsetPageID:]))
}

func (p *Page) setPageID(id types.PageID) {
	binary.BigEndian.PutUint32(p.data[offsetPageID:], uint32(id))
}

func (p *Page) freeSpacePointer() uint32 {
	return binary.BigEndian.Uint32(p.data[offsetFreeSpacePtr:])
}

func (p *Page) setFreeSpacePointer(v uint32) {
	binary.BigEndian.PutUint32(p.data[offsetFreeSpacePtr:], v)
}

func (p *Page) slotCount() uint32 {
	return binary.BigEndian.Uint32(p.data[offsetSlotCount:])
}

func (p *Page) setSlotCount(v uint32) {
	binary.BigEndian.PutUint32(p.data[offsetSlotCount:], v)
}

func (p *Page) slotOffsetOf(slot types.SlotID) int {
	return headerSize + int(slot)*slotEntrySize
}

func (p *Page) recordOffsetAt(slot types.SlotID) uint32 {
	off := p.slotOffsetOf(slot)
	return binary.BigEndian.Uint32(p.data[off:])
}

func (p *Page) setRecordOffsetAt(slot types.SlotID, v uint32) {
	off := p.slotOffsetOf(slot)
	binary.BigEndian.PutUint32(p.data[off:], v)
}

func (p *Page) recordSizeAt(slot types.SlotID) uint32 {
	off := p.slotOffsetOf(slot)
	return binary.BigEndian.Uint32(p.data[off+4:])
}

func (p *Page) setRecordSizeAt(slot types.SlotID, v uint32) {
	off := p.slotOffsetOf(slot)
	binary.BigEndian.PutUint32(p.data[off+4:], v)
}

func (p *Page) freeSpaceRemaining() uint32 {
	used := uint32(headerSize) + p.slotCount()*slotEntrySize
	fsp := p.freeSpacePointer()
	if fsp < used {
		return 0
	}
	return fsp - used
}

// freeSlot returns a reusable (previously deleted or never used) slot index
// below slotCount, if one exists.
func (p *Page) freeSlot() (types.SlotID, bool) {
	count := p.slotCount()
	for s := types.SlotID(0); uint32(s) < count; s++ {
		if p.recordSizeAt(s) == 0 {
			return s, true
		}
	}
	return 0, false
}

// HasSpaceForRecord reports whether record could be inserted without
// growing the page.
func (p *Page) HasSpaceForRecord(record []byte) bool {
	remaining := p.freeSpaceRemaining()
	if _, reusable := p.freeSlot(); !reusable {
		if remaining < slotEntrySize {
			return false
		}
		remaining -= slotEntrySize
	}
	return remaining >= uint32(len(record))
}

// InsertRecord appends record to the page and returns its RecordId. It fails
// with common.ErrPageFull if there is insufficient free space.
func (p *Page) InsertRecord(record []byte) (types.RecordID, error) {
	if !p.HasSpaceForRecord(record) {
		return types.RecordID{}, common.ErrPageFull
	}

	slot, reused := p.freeSlot()
	if !reused {
		slot = types.SlotID(p.slotCount())
		p.setSlotCount(p.slotCount() + 1)
	}

	newFSP := p.freeSpacePointer() - uint32(len(record))
	copy(p.data[newFSP:], record)
	p.setFreeSpacePointer(newFSP)
	p.setRecordOffsetAt(slot, newFSP)
	p.setRecordSizeAt(slot, uint32(len(record)))

	return types.NewRecordID(p.PageNumber(), slot), nil
}

// GetRecord returns a copy of the bytes stored at rid's slot.
func (p *Page) GetRecord(rid types.RecordID) ([]byte, error) {
	if uint32(rid.Slot) >= p.slotCount() {
		return nil, common.ErrRecordNotFound
	}
	size := p.recordSizeAt(rid.Slot)
	if size == 0 {
		return nil, common.ErrRecordNotFound
	}
	off := p.recordOffsetAt(rid.Slot)
	out := make([]byte, size)
	copy(out, p.data[off:off+size])
	return out, nil
}

// DeleteRecord frees rid's slot for reuse. The underlying bytes are not
// reclaimed or compacted; only the slot directory entry is cleared.
func (p *Page) DeleteRecord(rid types.RecordID) error {
	if uint32(rid.Slot) >= p.slotCount() {
		return common.ErrRecordNotFound
	}
	if p.recordSizeAt(rid.Slot) == 0 {
		return common.ErrRecordNotFound
	}
	p.setRecordSizeAt(rid.Slot, 0)
	p.setRecordOffsetAt(rid.Slot, 0)
	return nil
}

// GetNextUsedSlot returns the first live slot strictly after prev, or
// types.InvalidSlotID if there is none. Pass types.InvalidSlotID to get the
// first live slot in the page.
func (p *Page) GetNextUsedSlot(prev types.SlotID) types.SlotID {
	count := p.slotCount()
	start := uint32(0)
	if prev != types.InvalidSlotID {
		start = uint32(prev) + 1
	}
	for s := start; s < count; s++ {
		if p.recordSizeAt(types.SlotID(s)) > 0 {
			return types.SlotID(s)
		}
	}
	return types.InvalidSlotID
}
