package join

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spaolacci/murmur3"

	"github.com/hit-dbcourse/bufjoindb/catalog"
	"github.com/hit-dbcourse/bufjoindb/common"
	"github.com/hit-dbcourse/bufjoindb/heapfilemanager"
	"github.com/hit-dbcourse/bufjoindb/storage/buffer"
	"github.com/hit-dbcourse/bufjoindb/storage/heapfile"
	"github.com/hit-dbcourse/bufjoindb/types"
)

// GraceHashJoinOperator partitions both relations into B = M-1 buckets by a
// shared hash of the join key, then runs a OnePassJoinOperator over each
// corresponding pair of partitions. Partitions are ordinary heap files,
// read and written exclusively through the shared buffer manager.
type GraceHashJoinOperator struct {
	*base
}

// NewGraceHashJoinOperator constructs a Grace hash join of left against
// right.
func NewGraceHashJoinOperator(left, right *heapfile.File, leftSchema, rightSchema *catalog.TableSchema, cat *catalog.Catalog, bufMgr *buffer.BufferPoolManager) *GraceHashJoinOperator {
	return &GraceHashJoinOperator{base: newBase(left, right, leftSchema, rightSchema, cat, bufMgr)}
}

// ResultSchema is the natural-join schema this operator produces.
func (op *GraceHashJoinOperator) ResultSchema() *catalog.TableSchema {
	return op.resultSchema
}

// bucketOf hashes a join key to one of B buckets with murmur3, a stable
// non-cryptographic hash; Grace hash only needs H to agree between the two
// partitioning passes, not to be collision-free.
func bucketOf(key []byte, b int) int {
	return int(murmur3.Sum32(key) % uint32(b))
}

// Execute runs the join, appending result tuples to resultFile. A second
// call after a successful first call is a no-op returning true.
func (op *GraceHashJoinOperator) Execute(m int, resultFile *heapfile.File) (bool, error) {
	if op.IsComplete() {
		return true, nil
	}
	op.resetCounters()
	op.state = stateRunning

	b := m - 1
	if b < 1 {
		return false, errors.Wrap(common.ErrBufferExceeded, "join: M leaves no partitions for Grace hash")
	}

	leftParts, rightParts, err := op.openPartitionFiles(b)
	if err != nil {
		return false, err
	}
	defer op.removePartitionFiles(leftParts, rightParts)

	if err := op.partition(op.left, op.leftSchema, op.leftJoinKey, leftParts, b); err != nil {
		return false, err
	}
	if err := op.partition(op.right, op.rightSchema, op.rightJoinKey, rightParts, b); err != nil {
		return false, err
	}

	// B is fixed at M-1 whatever the input size, so a bucket can span more
	// pages than M-1 even under a uniform hash, and more so under a skewed
	// key distribution. Give the inner one-pass join the pool's actual frame
	// count rather than the outer M, so it is limited by real buffer
	// pressure instead of the partitioning budget that produced it.
	innerBudget := int(op.bufMgr.NumBufs())
	for k := 0; k < b; k++ {
		inner := NewOnePassJoinOperator(leftParts[k], rightParts[k], op.leftSchema, op.rightSchema, op.cat, op.bufMgr)
		if _, err := inner.Execute(innerBudget, resultFile); err != nil {
			return false, err
		}
		innerStats := inner.Stats()
		op.stats.NumResultTuples += innerStats.NumResultTuples
		op.stats.NumIOs += innerStats.NumIOs
		if innerStats.NumUsedBufPages > op.stats.NumUsedBufPages {
			op.stats.NumUsedBufPages = innerStats.NumUsedBufPages
		}
	}

	op.state = stateComplete
	return true, nil
}

// openPartitionFiles allocates b scratch partitions per side. Partitions
// never need to survive this Execute call, so they live in memory instead
// of on disk, keeping Grace hash from touching the filesystem at all beyond
// the two input relations.
func (op *GraceHashJoinOperator) openPartitionFiles(b int) ([]*heapfile.File, []*heapfile.File, error) {
	leftParts := make([]*heapfile.File, b)
	rightParts := make([]*heapfile.File, b)

	for i := 0; i < b; i++ {
		leftParts[i] = heapfile.OpenMemFile(fmt.Sprintf("%s.gracepart.L%d", op.left.Name(), i))
		rightParts[i] = heapfile.OpenMemFile(fmt.Sprintf("%s.gracepart.R%d", op.right.Name(), i))
	}

	return leftParts, rightParts, nil
}

func (op *GraceHashJoinOperator) removePartitionFiles(leftParts, rightParts []*heapfile.File) {
	for _, f := range leftParts {
		f.Remove()
	}
	for _, f := range rightParts {
		f.Remove()
	}
}

// partition scans source page-by-page, computes each tuple's join key with
// keyFn, and appends the raw tuple bytes to parts[bucketOf(key, B)] via the
// heap file manager, exactly as any other heap file insert.
func (op *GraceHashJoinOperator) partition(source *heapfile.File, schema *catalog.TableSchema, keyFn func([]byte) ([]byte, error), parts []*heapfile.File, b int) error {
	for pageNo := types.PageID(1); int(pageNo) <= source.NumPages(); pageNo++ {
		pg, err := op.readPage(source, pageNo)
		if err != nil {
			return err
		}

		for slot := pg.GetNextUsedSlot(types.InvalidSlotID); slot != types.InvalidSlotID; slot = pg.GetNextUsedSlot(slot) {
			data, err := pg.GetRecord(types.NewRecordID(pageNo, slot))
			if err != nil {
				return err
			}
			key, err := keyFn(data)
			if err != nil {
				return err
			}
			bucket := bucketOf(key, b)
			if _, err := heapfilemanager.InsertTuple(data, parts[bucket], op.bufMgr); err != nil {
				return err
			}
		}

		if err := op.unpin(source, pageNo, false); err != nil {
			return err
		}
	}
	return nil
}
