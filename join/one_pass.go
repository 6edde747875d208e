package join

import (
	"github.com/hit-dbcourse/bufjoindb/catalog"
	"github.com/hit-dbcourse/bufjoindb/heapfilemanager"
	"github.com/hit-dbcourse/bufjoindb/storage/buffer"
	"github.com/hit-dbcourse/bufjoindb/storage/heapfile"
	"github.com/hit-dbcourse/bufjoindb/types"
)

// OnePassJoinOperator assumes the right relation fits in the pin budget M:
// it builds an in-memory multimap of the right relation's join keys, then
// probes it one left page at a time.
type OnePassJoinOperator struct {
	*base
}

// NewOnePassJoinOperator constructs a one-pass join of left against right.
func NewOnePassJoinOperator(left, right *heapfile.File, leftSchema, rightSchema *catalog.TableSchema, cat *catalog.Catalog, bufMgr *buffer.BufferPoolManager) *OnePassJoinOperator {
	return &OnePassJoinOperator{base: newBase(left, right, leftSchema, rightSchema, cat, bufMgr)}
}

// ResultSchema is the natural-join schema this operator produces.
func (op *OnePassJoinOperator) ResultSchema() *catalog.TableSchema {
	return op.resultSchema
}

// Execute runs the join, appending result tuples to resultFile. A second
// call after a successful first call is a no-op returning true.
func (op *OnePassJoinOperator) Execute(m int, resultFile *heapfile.File) (bool, error) {
	if op.IsComplete() {
		return true, nil
	}
	op.resetCounters()
	op.state = stateRunning

	multimap := make(map[string][]types.RecordID)
	var rightPages []types.PageID

	for pageNo := types.PageID(1); int(pageNo) <= op.right.NumPages(); pageNo++ {
		if err := op.ensureBudget(m); err != nil {
			return false, err
		}
		pg, err := op.readPage(op.right, pageNo)
		if err != nil {
			return false, err
		}
		rightPages = append(rightPages, pageNo)

		for slot := pg.GetNextUsedSlot(types.InvalidSlotID); slot != types.InvalidSlotID; slot = pg.GetNextUsedSlot(slot) {
			rid := types.NewRecordID(pageNo, slot)
			data, err := pg.GetRecord(rid)
			if err != nil {
				return false, err
			}
			key, err := op.rightJoinKey(data)
			if err != nil {
				return false, err
			}
			multimap[string(key)] = append(multimap[string(key)], rid)
		}
		// The right page stays pinned through the rest of build and all of
		// probe; it is released in the cleanup loop below.
	}

	for pageNo := types.PageID(1); int(pageNo) <= op.left.NumPages(); pageNo++ {
		if err := op.ensureBudget(m); err != nil {
			return false, err
		}
		leftPg, err := op.readPage(op.left, pageNo)
		if err != nil {
			return false, err
		}

		for slot := leftPg.GetNextUsedSlot(types.InvalidSlotID); slot != types.InvalidSlotID; slot = leftPg.GetNextUsedSlot(slot) {
			leftData, err := leftPg.GetRecord(types.NewRecordID(pageNo, slot))
			if err != nil {
				return false, err
			}
			key, err := op.leftJoinKey(leftData)
			if err != nil {
				return false, err
			}

			for _, rid := range multimap[string(key)] {
				if err := op.ensureBudget(m); err != nil {
					return false, err
				}
				rightPg, err := op.readPage(op.right, rid.PageNum)
				if err != nil {
					return false, err
				}
				rightData, err := rightPg.GetRecord(rid)
				if err != nil {
					return false, err
				}

				resultTuple, err := op.constructResultTuple(leftData, rightData)
				if err != nil {
					return false, err
				}
				if _, err := heapfilemanager.InsertTuple(resultTuple, resultFile, op.bufMgr); err != nil {
					return false, err
				}
				op.stats.NumResultTuples++

				if err := op.unpin(op.right, rid.PageNum, false); err != nil {
					return false, err
				}
			}
		}

		if err := op.unpin(op.left, pageNo, false); err != nil {
			return false, err
		}
	}

	for _, pageNo := range rightPages {
		if err := op.unpin(op.right, pageNo, false); err != nil {
			return false, err
		}
	}

	op.state = stateComplete
	return true, nil
}
