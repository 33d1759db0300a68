package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spboyer/kansan/internal/schemeclient"
)

// Exit codes for different failure modes
const (
	ExitSuccess  = 0 // Conversion (or other command) succeeded
	ExitRejected = 1 // The scheme service rejected the conversion
	ExitError    = 2 // Configuration, network or runtime error
)

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error returned by a command to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var convErr *schemeclient.ConversionError
	if errors.As(err, &convErr) && convErr.Rejected() {
		return ExitRejected
	}
	return ExitError
}
