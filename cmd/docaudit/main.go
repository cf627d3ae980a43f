package main

import (
	"errors"
	"fmt"
	"os"

	auditerrors "docaudit/internal/errors"
	"docaudit/internal/exitcode"
)

func main() {
	err := rootCmd.Execute()
	closeLogFile()

	if err != nil {
		reportError(err)
	}
	os.Exit(int(exitcode.ForError(err)))
}

// reportError prints err to stderr. Exit results only print their message.
func reportError(err error) {
	var exit *exitcode.ExitResult
	if errors.As(err, &exit) {
		if exit.Message != "" {
			fmt.Fprintln(os.Stderr, exit.Message)
		}
		return
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	var ae *auditerrors.AuditError
	if errors.As(err, &ae) {
		for _, fix := range ae.SuggestedFixes {
			if fix.Command != "" {
				fmt.Fprintf(os.Stderr, "  hint: %s (%s)\n", fix.Description, fix.Command)
			} else {
				fmt.Fprintf(os.Stderr, "  hint: %s\n", fix.Description)
			}
		}
	}
}
