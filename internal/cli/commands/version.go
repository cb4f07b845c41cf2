package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/testwise/pkg/parser"
)

// Version and Commit are set via ldflags at build time.
var (
	Version = "dev"
	Commit  = ""
)

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Print the version of testwise. With --verbose, also print the build commit, Go version and supported line grammars.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "testwise %s\n", Version)
			if !verbose {
				return
			}
			commit := Commit
			if commit == "" {
				commit = "unknown"
			}
			fmt.Fprintf(out, "commit: %s\n", commit)
			fmt.Fprintf(out, "go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
			fmt.Fprintf(out, "grammars: %v\n", parser.Grammars())
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Also print build and grammar details")

	return cmd
}
