package engine

import "log"

// StderrDiag is the default DiagFunc: it writes to stderr via the standard
// log package, the Go equivalent of the original library's
// netstack_stderr_diag default diagnostic callback.
func StderrDiag(format string, args ...interface{}) {
	log.Printf(format, args...)
}
