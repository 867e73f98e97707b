// Axon Context - context intelligence for coding assistants.
//
// Axon Context maps a project's file dependency graph, mines version-control
// history for churn and co-change, and ranks files by relevance to a task.
// It is exposed as a CLI and as an MCP server.
package main

import (
	"fmt"
	"os"

	"github.com/Benny93/axon-context/cmd"
)

func main() {
	cli := cmd.NewCLI()

	if err := cli.Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
