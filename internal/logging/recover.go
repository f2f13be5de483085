package logging

import (
	"fmt"
	"runtime/debug"
)

// Recover runs fn and turns a panic into an error entry carrying the stack.
// It reports whether fn panicked.
func (l *Logger) Recover(where string, fn func()) (panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			l.Error("recovered panic",
				"where", where,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	fn()
	return false
}
