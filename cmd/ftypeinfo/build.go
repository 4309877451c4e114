package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/you-not-fish/ftypeinfo/internal/builtins"
	"github.com/you-not-fish/ftypeinfo/internal/passes"
	"github.com/you-not-fish/ftypeinfo/internal/program"
	"github.com/you-not-fish/ftypeinfo/internal/semantics"
	"github.com/you-not-fish/ftypeinfo/internal/typeinfo"
)

func newBuildCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <program.json>",
		Short: "Build and print the descriptor objects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return exitCode(runBuild(opts, args[0], cmd.OutOrStdout(), cmd.ErrOrStderr()))
		},
	}
	cmd.Flags().StringVar(&opts.format, "format", "text", "output format (text or json)")
	cmd.Flags().StringSliceVar(&opts.show, "show", nil, "print only the named descriptors, expanded")
	return cmd
}

func newBindingsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "bindings <program.json> <module> <type>",
		Short: "Print the binding table of one derived type",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return exitCode(runBindings(opts, args[0], args[1], args[2], cmd.OutOrStdout(), cmd.ErrOrStderr()))
		},
	}
}

func exitCode(code int) error {
	if code == 0 {
		return nil
	}
	return &exitError{code: code}
}

// compile loads filename and runs the passes on it. Diagnostics are
// written to stderr. A nil state means the program could not be loaded.
func compile(opts *options, filename string, stderr io.Writer) (*passes.State, error) {
	ctx := semantics.NewContext(nil)
	_, err := builtins.Install(ctx, &builtins.Config{Omit: opts.omit, NoTypeInfo: opts.noTypeInfo})
	if err != nil {
		return nil, err
	}
	f, err := program.LoadFile(ctx, filename)
	if err != nil {
		return nil, err
	}

	tiOpts := &typeinfo.Options{Schema: f.Schema}
	if opts.trace {
		tiOpts.Trace = func(phase string, elapsed time.Duration) {
			fmt.Fprintf(stderr, "[trace] %-8s %v\n", phase, elapsed)
		}
	}
	s := &passes.State{Ctx: ctx}
	err = passes.Run(s, passes.Default(tiOpts), passes.Config{
		DumpBefore: opts.dumpBefore,
		DumpAfter:  opts.dumpAfter,
		Verify:     opts.verify,
		Out:        stderr,
	})
	for _, m := range ctx.Messages().Sorted() {
		fmt.Fprintln(stderr, m.String())
	}
	return s, err
}

// runBuild builds the tables of filename and prints them.
func runBuild(opts *options, filename string, stdout, stderr io.Writer) int {
	s, err := compile(opts, filename, stderr)
	if s == nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	if s.Tables != nil {
		if code := printTables(opts, s.Tables, stdout, stderr); code != 0 {
			return code
		}
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	if s.Ctx.Messages().AnyError() {
		return 1
	}
	return 0
}

func printTables(opts *options, tables *typeinfo.RuntimeDerivedTypeTables, stdout, stderr io.Writer) int {
	if len(opts.show) > 0 {
		for _, name := range opts.show {
			d := tables.Lookup(name)
			if d == nil {
				fmt.Fprintf(stderr, "error: no descriptor %s\n", name)
				return 1
			}
			typeinfo.FprintDescriptor(stdout, d)
		}
		return 0
	}
	switch opts.format {
	case "text":
		typeinfo.Fprint(stdout, tables)
	case "json":
		if err := typeinfo.FprintJSON(stdout, tables); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
	default:
		fmt.Fprintf(stderr, "error: unknown format %q (want text or json)\n", opts.format)
		return 1
	}
	return 0
}

// runBindings prints the binding table of type typ of module mod, one
// binding per line as "name => target", marking overrides.
func runBindings(opts *options, filename, mod, typ string, stdout, stderr io.Writer) int {
	ctx := semantics.NewContext(nil)
	if _, err := builtins.Install(ctx, &builtins.Config{Omit: opts.omit, NoTypeInfo: opts.noTypeInfo}); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	if _, err := program.LoadFile(ctx, filename); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	ts := ctx.FindType(strings.ToLower(mod), strings.ToLower(typ))
	if ts == nil {
		fmt.Fprintf(stderr, "error: no derived type %s in module %s\n", typ, mod)
		return 1
	}
	writeBindings(stdout, ts.Scope())
	return 0
}

func writeBindings(w io.Writer, dtScope *semantics.Scope) {
	for _, b := range typeinfo.CollectBindings(dtScope) {
		target := "<unresolved>"
		if d, ok := b.Details().(*semantics.ProcBindingDetails); ok {
			switch {
			case d.Target != nil:
				target = d.Target.Name()
			case d.Interface != nil:
				target = "deferred " + d.Interface.Name()
			}
		}
		owner := ""
		if b.Owner() != dtScope {
			owner = " (from " + b.Owner().Name() + ")"
		}
		fmt.Fprintf(w, "%s => %s%s\n", b.Name(), target, owner)
	}
}
