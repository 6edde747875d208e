// this code is adapted from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package types

import "github.com/hit-dbcourse/bufjoindb/common"

// PageID identifies a page within a single File. Page numbers are assigned
// monotonically starting at 1; 0 is reserved as InvalidPageID.
type PageID int32

// InvalidPageID is the page number meaning "no page".
const InvalidPageID = PageID(common.InvalidPageID)

func (p PageID) IsValid() bool {
	return p != InvalidPageID
}
