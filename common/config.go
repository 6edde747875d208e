// this code is adapted from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package common

const (
	// PageSize is the size in bytes of a single page on disk and in a buffer frame.
	PageSize = 8192

	// InvalidPageID is the reserved page number meaning "no page".
	InvalidPageID = 0

	// InvalidSlotID is the reserved slot number meaning "no slot".
	InvalidSlotID = ^uint32(0)

	// MinBufs is the smallest buffer pool size the join executors are specified against.
	MinBufs = 3
)

// EnableDebug toggles ShPrintf's debug tracing output. No code in this
// module calls ShPrintf at present. Kept false in committed code.
const EnableDebug = false

// ShPrintf prints a debug trace line when EnableDebug is set. It mirrors the
// conditional tracing calls scattered through the teacher codebase without
// paying the cost when debugging is off.
func ShPrintf(format string, args ...interface{}) {
	if !EnableDebug {
		return
	}
	shPrintfImpl(format, args...)
}
