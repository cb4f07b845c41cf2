// Testwise - Test-Run Log Summarizer
//
// Testwise normalizes test-run logs and CSV result tables, ranks failure
// causes and writes Markdown reports with optional LLM analysis.
package main

import (
	"os"

	"github.com/ccollicutt/testwise/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
