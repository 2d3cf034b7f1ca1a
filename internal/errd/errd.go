// Package errd provides a helper for wrapping named error returns with
// deferred context, avoiding a repeated "if err != nil { return fmt.Errorf(...) }"
// at every return site of a function.
package errd

import "fmt"

// Wrap wraps *err with f (and any extra args v, appended before err) if
// *err is non nil. Intended for use with defer on a named error return:
//
//	func do() (err error) {
//		defer errd.Wrap(&err, "failed to do")
//		...
//	}
func Wrap(err *error, f string, v ...interface{}) {
	if *err != nil {
		*err = fmt.Errorf(f+": %w", append(v, *err)...)
	}
}
