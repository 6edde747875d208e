// this code is adapted from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

// Package heapfile implements File, the on-disk container of fixed-size
// pages backing one table (or one partition, during a Grace hash join).
// It owns page allocation and raw page I/O; it knows nothing about slots,
// tuples, or schemas.
package heapfile

import (
	"io"
	"os"

	"github.com/dsnet/golib/memfile"
	"github.com/pkg/errors"

	"github.com/hit-dbcourse/bufjoindb/common"
	"github.com/hit-dbcourse/bufjoindb/types"
)

// randAccessStore is the slice of os.File that a heap file actually needs.
// *os.File and *memfile.File both satisfy it, so File can sit on top of a
// real file on disk or an in-memory buffer without knowing which.
type randAccessStore interface {
	io.ReaderAt
	io.WriterAt
}

// syncer is implemented by backing stores that need an explicit flush to
// disk; a memory-backed store has no such thing to flush, so File checks
// for this interface rather than requiring it.
type syncer interface {
	Sync() error
}

// closer is implemented by backing stores that hold a real resource to
// release; a memory-backed store has nothing to close, so File checks for
// this interface rather than requiring it.
type closer interface {
	Close() error
}

// File is a sequence of common.PageSize pages, numbered from 1, backed by
// either a real OS file or an in-memory buffer. Page 0 is never allocated;
// it is reserved as types.InvalidPageID so a zero-valued PageID is always
// recognizably absent.
type File struct {
	f          randAccessStore
	size       int64
	name       string
	nextPageID types.PageID
	numWrites  uint64
}

// Open opens fileName, creating it if it does not exist, and recovers
// nextPageID from the file's current size.
func Open(fileName string) (*File, error) {
	f, err := os.OpenFile(fileName, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		return nil, errors.Wrapf(err, "opening heap file %q", fileName)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "stat heap file %q", fileName)
	}

	size := info.Size()
	nPages := size / common.PageSize
	return &File{
		f:          f,
		size:       size,
		name:       fileName,
		nextPageID: types.PageID(nPages + 1),
	}, nil
}

// OpenMemFile backs a File with an in-memory buffer instead of a real OS
// file. name is cosmetic only: it is never opened or removed on disk. Grace
// hash partitions and tests that don't need durability use this instead of
// Open to skip the filesystem entirely.
func OpenMemFile(name string) *File {
	return &File{
		f:          memfile.New(make([]byte, 0)),
		name:       name,
		nextPageID: types.PageID(1),
	}
}

// Exists reports whether fileName already exists on disk, without creating it.
func Exists(fileName string) bool {
	_, err := os.Stat(fileName)
	return err == nil
}

// Name returns the path File was opened with.
func (f *File) Name() string {
	return f.name
}

func offsetOf(pageID types.PageID) int64 {
	return int64(pageID-1) * common.PageSize
}

// ReadPage fills dest with the on-disk contents of pageID. Reading a page
// past the current end of file is an error: callers should only read pages
// they (or a prior AllocatePage) know to exist.
func (f *File) ReadPage(pageID types.PageID, dest *[common.PageSize]byte) error {
	if !pageID.IsValid() {
		return errors.Wrap(common.ErrRecordNotFound, "read of invalid page id")
	}

	offset := offsetOf(pageID)
	if offset >= f.size {
		return errors.Wrapf(common.ErrRecordNotFound, "heap file %q: read past end of file at page %d", f.name, pageID)
	}

	n, err := f.f.ReadAt(dest[:], offset)
	if err != nil && err != io.EOF {
		return errors.Wrap(err, "read heap file")
	}
	for i := n; i < common.PageSize; i++ {
		dest[i] = 0
	}
	return nil
}

// WritePage persists data as pageID's contents, extending the file if
// pageID had only been allocated, not yet written.
func (f *File) WritePage(pageID types.PageID, data *[common.PageSize]byte) error {
	if !pageID.IsValid() {
		return errors.Wrap(common.ErrRecordNotFound, "write of invalid page id")
	}

	offset := offsetOf(pageID)
	n, err := f.f.WriteAt(data[:], offset)
	if err != nil {
		return errors.Wrap(err, "write heap file")
	}
	if n != common.PageSize {
		return errors.Errorf("heap file %q: short write (%d of %d bytes)", f.name, n, common.PageSize)
	}
	f.numWrites++
	if offset+int64(n) > f.size {
		f.size = offset + int64(n)
	}
	if s, ok := f.f.(syncer); ok {
		return s.Sync()
	}
	return nil
}

// AllocatePage reserves the next page number. The page is not written to
// disk until the caller calls WritePage for it.
func (f *File) AllocatePage() types.PageID {
	id := f.nextPageID
	f.nextPageID++
	return id
}

// NumPages returns the number of pages ever allocated in this file,
// including any not yet written.
func (f *File) NumPages() int {
	return int(f.nextPageID) - 1
}

// DeallocatePage marks pageID as free. A real implementation would track
// freed page numbers in a bitmap page for reuse; no workload in this module
// ever reclaims a disposed page, so this is currently a no-op.
func (f *File) DeallocatePage(pageID types.PageID) {
}

// GetNumWrites returns the number of completed WritePage calls, exposed for
// the same kind of I/O accounting the buffer manager's tests rely on.
func (f *File) GetNumWrites() uint64 {
	return f.numWrites
}

// Close releases the underlying store, if it holds one worth releasing.
func (f *File) Close() error {
	if c, ok := f.f.(closer); ok {
		return c.Close()
	}
	return nil
}

// Remove closes the underlying store and, for a disk-backed File, deletes
// it. Used to discard Grace hash partition files once a bucket's join has
// been executed; mem-backed files have nothing on disk to unlink.
func (f *File) Remove() error {
	f.Close()
	if _, onDisk := f.f.(*os.File); !onDisk {
		return nil
	}
	if !Exists(f.name) {
		return nil
	}
	return os.Remove(f.name)
}
