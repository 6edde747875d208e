// Package heapfilemanager implements the stateless tuple-level operations
// every join executor and loader uses to get bytes into and out of a heap
// file: insertTuple, deleteTuple, and createTupleFromSQLStatement. It holds
// no state of its own; every call takes the File and BufferPoolManager it
// operates through.
package heapfilemanager

import (
	"github.com/hit-dbcourse/bufjoindb/catalog"
	"github.com/hit-dbcourse/bufjoindb/sqlparse"
	"github.com/hit-dbcourse/bufjoindb/storage/buffer"
	"github.com/hit-dbcourse/bufjoindb/storage/heapfile"
	"github.com/hit-dbcourse/bufjoindb/tuple"
	"github.com/hit-dbcourse/bufjoindb/types"
)

// InsertTuple scans file in page order for the first page with room for
// record, inserting there; if none has room, it allocates a new page. The
// page that receives the record is left unpinned and dirty; every other
// page visited is unpinned clean.
func InsertTuple(record []byte, file *heapfile.File, bufMgr *buffer.BufferPoolManager) (types.RecordID, error) {
	for pageNo := types.PageID(1); int(pageNo) <= file.NumPages(); pageNo++ {
		pg, err := bufMgr.ReadPage(file, pageNo)
		if err != nil {
			return types.RecordID{}, err
		}

		if pg.HasSpaceForRecord(record) {
			rid, err := pg.InsertRecord(record)
			if err != nil {
				bufMgr.UnpinPage(file, pageNo, false)
				return types.RecordID{}, err
			}
			if err := bufMgr.UnpinPage(file, pageNo, true); err != nil {
				return types.RecordID{}, err
			}
			return rid, nil
		}

		if err := bufMgr.UnpinPage(file, pageNo, false); err != nil {
			return types.RecordID{}, err
		}
	}

	pageNo, pg, err := bufMgr.AllocPage(file)
	if err != nil {
		return types.RecordID{}, err
	}
	rid, err := pg.InsertRecord(record)
	if err != nil {
		bufMgr.UnpinPage(file, pageNo, true)
		return types.RecordID{}, err
	}
	if err := bufMgr.UnpinPage(file, pageNo, true); err != nil {
		return types.RecordID{}, err
	}
	return rid, nil
}

// DeleteTuple removes the record at rid from file.
func DeleteTuple(rid types.RecordID, file *heapfile.File, bufMgr *buffer.BufferPoolManager) error {
	pg, err := bufMgr.ReadPage(file, rid.PageNum)
	if err != nil {
		return err
	}
	if err := pg.DeleteRecord(rid); err != nil {
		bufMgr.UnpinPage(file, rid.PageNum, false)
		return err
	}
	return bufMgr.UnpinPage(file, rid.PageNum, true)
}

// CreateTupleFromSQLStatement parses an `INSERT INTO <name> VALUES (...);`
// statement against cat's schema for the named table and encodes the
// resulting row per the tuple wire format. It does not insert the tuple
// anywhere; callers pass the returned bytes to InsertTuple themselves.
func CreateTupleFromSQLStatement(sql string, cat *catalog.Catalog) ([]byte, error) {
	tableName, err := sqlparse.PeekInsertTableName(sql)
	if err != nil {
		return nil, err
	}

	schema, err := cat.GetTableSchemaByName(tableName)
	if err != nil {
		return nil, err
	}

	_, values, err := sqlparse.ParseInsert(sql, schema)
	if err != nil {
		return nil, err
	}

	return tuple.Encode(schema, values)
}
