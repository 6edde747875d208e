package join

import (
	stack "github.com/golang-collections/collections/stack"
	"github.com/pkg/errors"

	"github.com/hit-dbcourse/bufjoindb/catalog"
	"github.com/hit-dbcourse/bufjoindb/common"
	"github.com/hit-dbcourse/bufjoindb/heapfilemanager"
	"github.com/hit-dbcourse/bufjoindb/storage/buffer"
	"github.com/hit-dbcourse/bufjoindb/storage/heapfile"
	"github.com/hit-dbcourse/bufjoindb/storage/page"
	"github.com/hit-dbcourse/bufjoindb/types"
)

// NestedLoopJoinOperator is the block nested-loop join: left is the outer
// relation, consumed in blocks of up to M-2 pages; right is the inner
// relation, scanned once in full per block.
type NestedLoopJoinOperator struct {
	*base
}

// NewNestedLoopJoinOperator constructs a block nested-loop join of left
// against right.
func NewNestedLoopJoinOperator(left, right *heapfile.File, leftSchema, rightSchema *catalog.TableSchema, cat *catalog.Catalog, bufMgr *buffer.BufferPoolManager) *NestedLoopJoinOperator {
	return &NestedLoopJoinOperator{base: newBase(left, right, leftSchema, rightSchema, cat, bufMgr)}
}

// ResultSchema is the natural-join schema this operator produces.
func (op *NestedLoopJoinOperator) ResultSchema() *catalog.TableSchema {
	return op.resultSchema
}

// leftFrame is one pinned left-block page, held on the block stack from the
// moment it's read until the block's scan over the right file finishes.
type leftFrame struct {
	pageNo types.PageID
	pg     *page.Page
}

// Execute runs the join, appending result tuples to resultFile. A second
// call after a successful first call is a no-op returning true.
func (op *NestedLoopJoinOperator) Execute(m int, resultFile *heapfile.File) (bool, error) {
	if op.IsComplete() {
		return true, nil
	}
	op.resetCounters()
	op.state = stateRunning

	blockSize := m - 2
	if blockSize < 1 {
		return false, errors.Wrap(common.ErrBufferExceeded, "join: M leaves no room for a left block")
	}

	totalLeftPages := types.PageID(op.left.NumPages())
	for blockStart := types.PageID(1); blockStart <= totalLeftPages; blockStart += types.PageID(blockSize) {
		blockEnd := blockStart + types.PageID(blockSize) - 1
		if blockEnd > totalLeftPages {
			blockEnd = totalLeftPages
		}

		leftBlock := stack.New()
		for pageNo := blockStart; pageNo <= blockEnd; pageNo++ {
			pg, err := op.readPage(op.left, pageNo)
			if err != nil {
				return false, err
			}
			leftBlock.Push(leftFrame{pageNo: pageNo, pg: pg})
		}

		var frames []leftFrame
		for leftBlock.Len() > 0 {
			frames = append(frames, leftBlock.Pop().(leftFrame))
		}

		for rightPageNo := types.PageID(1); int(rightPageNo) <= op.right.NumPages(); rightPageNo++ {
			rightPg, err := op.readPage(op.right, rightPageNo)
			if err != nil {
				return false, err
			}

			for rSlot := rightPg.GetNextUsedSlot(types.InvalidSlotID); rSlot != types.InvalidSlotID; rSlot = rightPg.GetNextUsedSlot(rSlot) {
				rightData, err := rightPg.GetRecord(types.NewRecordID(rightPageNo, rSlot))
				if err != nil {
					return false, err
				}
				rightKey, err := op.rightJoinKey(rightData)
				if err != nil {
					return false, err
				}

				for _, fr := range frames {
					for lSlot := fr.pg.GetNextUsedSlot(types.InvalidSlotID); lSlot != types.InvalidSlotID; lSlot = fr.pg.GetNextUsedSlot(lSlot) {
						leftData, err := fr.pg.GetRecord(types.NewRecordID(fr.pageNo, lSlot))
						if err != nil {
							return false, err
						}
						leftKey, err := op.leftJoinKey(leftData)
						if err != nil {
							return false, err
						}
						if string(leftKey) != string(rightKey) {
							continue
						}

						resultTuple, err := op.constructResultTuple(leftData, rightData)
						if err != nil {
							return false, err
						}
						if _, err := heapfilemanager.InsertTuple(resultTuple, resultFile, op.bufMgr); err != nil {
							return false, err
						}
						op.stats.NumResultTuples++
					}
				}
			}

			if err := op.unpin(op.right, rightPageNo, false); err != nil {
				return false, err
			}
		}

		if err := op.bufMgr.FlushFile(op.right); err != nil {
			return false, err
		}

		for _, fr := range frames {
			if err := op.unpin(op.left, fr.pageNo, false); err != nil {
				return false, err
			}
		}
	}

	op.state = stateComplete
	return true, nil
}
