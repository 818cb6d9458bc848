// Package main is the entry point for the slicersave CLI.
package main

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/thoreinstein/slicersave/cmd/slicersave/commands"
	ssErrors "github.com/thoreinstein/slicersave/internal/errors"
)

func main() {
	if err := commands.Execute(); err != nil {
		var exitErr *ssErrors.ExitError
		if errors.As(err, &exitErr) {
			if exitErr.Err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", exitErr.Err)
			}
			if exitErr.Suggestion != "" {
				fmt.Fprintf(os.Stderr, "%s\n", exitErr.Suggestion)
			}
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ssErrors.ExitUser)
	}
}
