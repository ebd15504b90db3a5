package utils

import (
	"fmt"
	"os"
)

// ShowError prints the formatted error box to stderr without exiting.
// Structured logs go through zap; this is the human-facing CLI surface.
func ShowError(context string, err error) {
	fmt.Fprintf(os.Stderr, "\n---------------------------------------------------------\n")
	fmt.Fprintf(os.Stderr, "🚨 SPOTTER ERROR: %s\n", context)
	if err != nil {
		fmt.Fprintf(os.Stderr, "DETAILS: %v\n", err)
	}
	fmt.Fprintf(os.Stderr, "---------------------------------------------------------\n")
}

// Die is the unified exit strategy for fatal CLI paths.
func Die(context string, err error) {
	ShowError(context, err)
	os.Exit(1)
}
