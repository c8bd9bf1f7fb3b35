// Command colsplit splits a free-text name column and/or a free-text address
// column of every CSV file in a directory into structured columns. Runs are
// resumable: completed files are recorded in a progress store and skipped
// next time.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"colsplit/internal/errs"
)

// Exit codes.
const (
	exitOK          = 0
	exitFatal       = 1
	exitConfig      = 2
	exitInterrupted = 130
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "colsplit:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps a command error onto the process exit status. Per-file
// failures never reach here: a run that finishes exits 0.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	case errs.KindOf(err) == errs.Configuration:
		return exitConfig
	default:
		return exitFatal
	}
}
