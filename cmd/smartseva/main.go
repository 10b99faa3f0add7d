// Command smartseva is the entry point for the SmartSeva citizen-services
// assistant. It provides a CLI interface (via Cobra) and an HTTP server
// exposing the question-answering and document-management API.
package main

import (
	"fmt"
	"os"

	"github.com/AritraCh2005/SmartSeva-4/cmd/smartseva/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
