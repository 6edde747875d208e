// this code is adapted from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package types

import (
	"fmt"

	"github.com/hit-dbcourse/bufjoindb/common"
)

// SlotID identifies a record's slot within a page's slot directory.
type SlotID uint32

// InvalidSlotID is the slot number meaning "no slot".
const InvalidSlotID = SlotID(common.InvalidSlotID)

// RecordID is a stable locator for a tuple: the page that holds it and its
// slot within that page's slot directory.
type RecordID struct {
	PageNum PageID
	Slot    SlotID
}

func NewRecordID(pageNum PageID, slot SlotID) RecordID {
	return RecordID{pageNum, slot}
}

func (r RecordID) String() string {
	return fmt.Sprintf("(%d,%d)", r.PageNum, r.Slot)
}

func (r RecordID) IsValid() bool {
	return r.PageNum.IsValid() && r.Slot != InvalidSlotID
}
