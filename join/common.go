// Package join implements the three natural-join executors —
// OnePassJoinOperator, NestedLoopJoinOperator, and GraceHashJoinOperator —
// over the shared buffer manager and heap file layer. All three share the
// state machine, result-schema computation, and join-key/result-tuple
// construction defined in this file.
package join

import (
	"fmt"
	"io"

	mapset "github.com/deckarep/golang-set/v2"
	pair "github.com/notEpsilon/go-pair"
	"github.com/pkg/errors"

	"github.com/hit-dbcourse/bufjoindb/catalog"
	"github.com/hit-dbcourse/bufjoindb/common"
	"github.com/hit-dbcourse/bufjoindb/storage/buffer"
	"github.com/hit-dbcourse/bufjoindb/storage/heapfile"
	"github.com/hit-dbcourse/bufjoindb/storage/page"
	"github.com/hit-dbcourse/bufjoindb/tuple"
	"github.com/hit-dbcourse/bufjoindb/types"
)

// execState is the operator lifecycle: Fresh -> Running -> Complete.
// Complete is absorbing.
type execState int

const (
	stateFresh execState = iota
	stateRunning
	stateComplete
)

// Stats are the running counters every operator exposes.
type Stats struct {
	NumResultTuples int
	NumUsedBufPages int
	NumIOs          int
}

// base holds the state and natural-join plumbing common to every operator:
// inputs, the computed result schema, and the (leftIdx, rightIdx) pairs of
// attributes the join key is built from.
type base struct {
	left, right             *heapfile.File
	leftSchema, rightSchema *catalog.TableSchema
	cat                     *catalog.Catalog
	bufMgr                  *buffer.BufferPoolManager

	state        execState
	stats        Stats
	curPinned    int
	pinnedPages  mapset.Set[pinnedPage]
	resultSchema *catalog.TableSchema
	rightOnly    []int // indices into rightSchema not present in leftSchema
	commonAttrs  []*pair.Pair[int, int]
}

// pinnedPage tracks one (file, pageNo) this operator has pinned, purely to
// compute numUsedBufPages (pages pinned for the first time by this run).
type pinnedPage struct {
	file   *heapfile.File
	pageNo int32
}

func attrKey(a catalog.Attribute) string {
	return a.Name + "\x00" + a.Type.String()
}

// newBase wires up the shared operator state and computes the natural-join
// result schema: left attributes in order, then right attributes whose
// (name, type) does not appear on the left.
func newBase(left, right *heapfile.File, leftSchema, rightSchema *catalog.TableSchema, cat *catalog.Catalog, bufMgr *buffer.BufferPoolManager) *base {
	leftKinds := mapset.NewThreadUnsafeSet[string]()
	for _, a := range leftSchema.Attributes {
		leftKinds.Add(attrKey(a))
	}

	attrs := make([]catalog.Attribute, len(leftSchema.Attributes))
	copy(attrs, leftSchema.Attributes)

	var rightOnly []int
	var common []*pair.Pair[int, int]
	for j, a := range rightSchema.Attributes {
		if leftKinds.Contains(attrKey(a)) {
			for i, la := range leftSchema.Attributes {
				if la.SameKind(a) {
					common = append(common, pair.New(i, j))
					break
				}
			}
			continue
		}
		rightOnly = append(rightOnly, j)
		attrs = append(attrs, a)
	}

	resultSchema := catalog.NewTableSchema(leftSchema.Name+"_join_"+rightSchema.Name, attrs, true)

	return &base{
		left:         left,
		right:        right,
		leftSchema:   leftSchema,
		rightSchema:  rightSchema,
		cat:          cat,
		bufMgr:       bufMgr,
		state:        stateFresh,
		pinnedPages:  mapset.NewThreadUnsafeSet[pinnedPage](),
		resultSchema: resultSchema,
		rightOnly:    rightOnly,
		commonAttrs:  common,
	}
}

// leftJoinKey concatenates the raw (unpadded) bytes of the common
// attributes out of a left-schema tuple.
func (b *base) leftJoinKey(data []byte) ([]byte, error) {
	key := make([]byte, 0, 16)
	for _, p := range b.commonAttrs {
		bs, err := tuple.AttributeBytes(b.leftSchema, data, p.First)
		if err != nil {
			return nil, err
		}
		key = append(key, bs...)
	}
	return key, nil
}

// rightJoinKey is leftJoinKey's counterpart over the right schema.
func (b *base) rightJoinKey(data []byte) ([]byte, error) {
	key := make([]byte, 0, 16)
	for _, p := range b.commonAttrs {
		bs, err := tuple.AttributeBytes(b.rightSchema, data, p.Second)
		if err != nil {
			return nil, err
		}
		key = append(key, bs...)
	}
	return key, nil
}

// constructResultTuple copies leftData verbatim, then appends the bytes of
// every right-only attribute (including its VARCHAR length prefix, if any),
// maintaining 4-byte alignment as each attribute is appended.
func (b *base) constructResultTuple(leftData, rightData []byte) ([]byte, error) {
	buf := make([]byte, len(leftData))
	copy(buf, leftData)

	for _, j := range b.rightOnly {
		bs, err := tuple.AttributeBytes(b.rightSchema, rightData, j)
		if err != nil {
			return nil, err
		}
		buf = append(buf, bs...)
		if padded := tuple.Align4(len(buf)); padded > len(buf) {
			buf = append(buf, make([]byte, padded-len(buf))...)
		}
	}
	return buf, nil
}

// markPinned records that this run pinned (file, pageNo), bumping
// NumUsedBufPages only the first time the page is seen. readPage and
// allocPage call it after every successful pin; a page already tracked is
// not counted again.
func (b *base) markPinned(file *heapfile.File, pageNo int32) {
	key := pinnedPage{file, pageNo}
	if !b.pinnedPages.Contains(key) {
		b.pinnedPages.Add(key)
		b.stats.NumUsedBufPages++
	}
}

// IsComplete reports whether a prior execute() already finished this
// operator; a second execute is then a guaranteed no-op.
func (b *base) IsComplete() bool {
	return b.state == stateComplete
}

// Stats returns the running counters, valid both mid-run and after
// completion.
func (b *base) Stats() Stats {
	return b.stats
}

// PrintRunningStats writes the operator's running counters in the same
// line-oriented, tab-separated shape Print uses for scanned rows, so a
// caller driving an operator from the command line can report progress
// with its output sitting next to table scans.
func (b *base) PrintRunningStats(w io.Writer) error {
	_, err := fmt.Fprintf(w, "numResultTuples\t%d\nnumUsedBufPages\t%d\nnumIOs\t%d\n",
		b.stats.NumResultTuples, b.stats.NumUsedBufPages, b.stats.NumIOs)
	return err
}

// resetCounters is called at the top of every execute() that isn't a
// no-op, per the common contract.
func (b *base) resetCounters() {
	b.stats = Stats{}
	b.pinnedPages = mapset.NewThreadUnsafeSet[pinnedPage]()
}

var errNotEnoughBuffers = errors.New("join: M is too small for this operator")

// ensureBudget fails with common.ErrBufferExceeded if the operator is
// already holding M concurrent pins, before it attempts to take one more.
// M is the caller's self-declared pin budget for this execute() call, which
// may be smaller than the underlying pool's physical frame count.
func (b *base) ensureBudget(m int) error {
	if b.curPinned >= m {
		return errors.Wrap(common.ErrBufferExceeded, errNotEnoughBuffers.Error())
	}
	return nil
}

// readPage pins (file, pageNo) through the buffer manager, bumping the
// operator's I/O counter, distinct-pages-used counter, and live pin count.
func (b *base) readPage(file *heapfile.File, pageNo types.PageID) (*page.Page, error) {
	pg, err := b.bufMgr.ReadPage(file, pageNo)
	if err != nil {
		return nil, err
	}
	b.stats.NumIOs++
	b.markPinned(file, int32(pageNo))
	b.curPinned++
	return pg, nil
}

// allocPage is readPage's counterpart for a freshly allocated page.
func (b *base) allocPage(file *heapfile.File) (types.PageID, *page.Page, error) {
	pageNo, pg, err := b.bufMgr.AllocPage(file)
	if err != nil {
		return types.InvalidPageID, nil, err
	}
	b.stats.NumIOs++
	b.markPinned(file, int32(pageNo))
	b.curPinned++
	return pageNo, pg, nil
}

// unpin releases one pin taken by readPage/allocPage.
func (b *base) unpin(file *heapfile.File, pageNo types.PageID, dirty bool) error {
	if err := b.bufMgr.UnpinPage(file, pageNo, dirty); err != nil {
		return err
	}
	b.curPinned--
	return nil
}
