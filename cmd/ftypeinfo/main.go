// Command ftypeinfo builds the runtime derived-type descriptors of a
// program description and prints them.
//
// Usage:
//
//	ftypeinfo build [flags] <program.json>
//	ftypeinfo bindings <program.json> <module> <type>
//	ftypeinfo inspect <program.json>
//	ftypeinfo version
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

// Version information
const Version = "0.1.0-dev"

// options holds the flags shared by the subcommands.
type options struct {
	verify     bool
	trace      bool
	dumpBefore string
	dumpAfter  string
	omit       []string
	noTypeInfo bool

	format string
	show   []string
}

// exitError carries the exit status of a command whose diagnostics have
// already been printed.
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the command line args and returns the exit status.
func execute(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return 0
	}
	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	fmt.Fprintf(stderr, "error: %v\n", err)
	return 1
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "ftypeinfo",
		Short: "Runtime derived-type descriptor builder",
		Long: `ftypeinfo loads a JSON program description, builds the runtime
derived-type descriptors of its derived types and instantiations, and
prints the emitted objects.

Commands:
  build     Build and print the descriptor objects
  bindings  Print the binding table of one derived type
  inspect   Explore the descriptors interactively
  version   Print version information
`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.BoolVar(&opts.verify, "verify", false, "verify the tables after each pass")
	pf.BoolVar(&opts.trace, "trace", false, "print phase timings to stderr")
	pf.StringVar(&opts.dumpBefore, "dump-before", "", "dump state before pass (name or \"*\")")
	pf.StringVar(&opts.dumpAfter, "dump-after", "", "dump state after pass (name or \"*\")")
	pf.StringSliceVar(&opts.omit, "omit-schema", nil, "leave schema members out of __fortran_type_info")
	pf.BoolVar(&opts.noTypeInfo, "no-schema", false, "do not install __fortran_type_info")

	root.AddCommand(
		newBuildCmd(opts),
		newBindingsCmd(opts),
		newInspectCmd(opts),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ftypeinfo version %s\n", Version)
			fmt.Fprintf(out, "go version %s\n", runtime.Version())
		},
	}
}
