package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "structive",
		Short: "Fine-grained reactive state binding for Go",
		Long: `Structive is a fine-grained reactive state-binding runtime.

State lives in plain maps and slices; bindings address it through
structured paths like "items.*.name". Writes commit inside update
transactions and render through a scheduler that touches only the
consumers whose paths changed.

This CLI ships the development tooling:

  • inspect   explain how a path pattern parses
  • bench     run the headless reconciliation benchmark
  • devtools  serve the runtime inspection endpoints
  • errors    print the error code catalog`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		inspectCmd(),
		benchCmd(),
		devtoolsCmd(),
		errorsCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}
