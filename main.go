package main

import (
	"fmt"
	"os"

	"github.com/temirov/pkgsweep/cmd/cli"
)

const (
	failureExitCodeConstant        = 1
	executionErrorTemplateConstant = "pkgsweep: %v\n"
)

// main runs the pkgsweep command hierarchy and exits non-zero on failure.
func main() {
	executionError := cli.Execute()
	if executionError == nil {
		return
	}

	fmt.Fprintf(os.Stderr, executionErrorTemplateConstant, executionError)
	os.Exit(failureExitCodeConstant)
}
