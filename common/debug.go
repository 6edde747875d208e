package common

import "fmt"

func shPrintfImpl(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// SH_Assert panics with msg when condition is false. It is an assertion
// helper for invariants whose violation cannot be recovered from; no code in
// this module calls it.
func SH_Assert(condition bool, msg string) {
	if !condition {
		panic(msg)
	}
}
