// Package main provides the entry point for the tally CLI application.
package main

import (
	"fmt"
	"os"

	"fjacquet/tally/cmd/ingest"
	"fjacquet/tally/cmd/initialize"
	"fjacquet/tally/cmd/report"
	"fjacquet/tally/cmd/root"
	"fjacquet/tally/cmd/validate"
)

func init() {
	root.Cmd.AddCommand(initialize.Cmd)
	root.Cmd.AddCommand(ingest.Cmd)
	root.Cmd.AddCommand(report.Cmd)
	root.Cmd.AddCommand(validate.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
