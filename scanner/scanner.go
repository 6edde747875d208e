// Package scanner implements TableScanner, the thin pretty-printer used to
// inspect a heap file's rows against a schema without going through a join.
package scanner

import (
	"fmt"
	"io"
	"strings"

	"github.com/hit-dbcourse/bufjoindb/catalog"
	"github.com/hit-dbcourse/bufjoindb/storage/buffer"
	"github.com/hit-dbcourse/bufjoindb/storage/heapfile"
	"github.com/hit-dbcourse/bufjoindb/tuple"
	"github.com/hit-dbcourse/bufjoindb/types"
)

// TableScanner reads a heap file page by page, through the buffer manager,
// and renders its rows against a schema.
type TableScanner struct {
	file   *heapfile.File
	schema *catalog.TableSchema
	bufMgr *buffer.BufferPoolManager
}

// New returns a TableScanner over file's rows, decoded against schema.
func New(file *heapfile.File, schema *catalog.TableSchema, bufMgr *buffer.BufferPoolManager) *TableScanner {
	return &TableScanner{file: file, schema: schema, bufMgr: bufMgr}
}

// Print writes one line per live tuple in the file, in page/slot order, to
// w. INT columns print as decimal, CHAR and VARCHAR columns print with
// trailing padding stripped.
func (s *TableScanner) Print(w io.Writer) error {
	for pageNo := types.PageID(1); int(pageNo) <= s.file.NumPages(); pageNo++ {
		pg, err := s.bufMgr.ReadPage(s.file, pageNo)
		if err != nil {
			return err
		}

		for slot := pg.GetNextUsedSlot(types.InvalidSlotID); slot != types.InvalidSlotID; slot = pg.GetNextUsedSlot(slot) {
			data, err := pg.GetRecord(types.NewRecordID(pageNo, slot))
			if err != nil {
				s.bufMgr.UnpinPage(s.file, pageNo, false)
				return err
			}

			values, err := tuple.Decode(s.schema, data)
			if err != nil {
				s.bufMgr.UnpinPage(s.file, pageNo, false)
				return err
			}

			if _, err := fmt.Fprintln(w, formatRow(values)); err != nil {
				s.bufMgr.UnpinPage(s.file, pageNo, false)
				return err
			}
		}

		if err := s.bufMgr.UnpinPage(s.file, pageNo, false); err != nil {
			return err
		}
	}
	return nil
}

func formatRow(values []interface{}) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%v", v)
	}
	return strings.Join(parts, "\t")
}
