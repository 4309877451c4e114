package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/you-not-fish/ftypeinfo/internal/passes"
	"github.com/you-not-fish/ftypeinfo/internal/typeinfo"
)

const historyFile = ".ftypeinfo_history"

const inspectHelp = `commands:
  names                       list the descriptors built
  externals                   list the descriptors defined elsewhere
  show <name>                 print a descriptor, expanded
  object <name>               print one emitted object
  bindings <module> <type>    print the binding table of a type
  errors                      list the errors of the build
  help                        print this text
  quit                        leave
`

func newInspectCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <program.json>",
		Short: "Explore the descriptors interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return exitCode(runInspect(opts, args[0], cmd.OutOrStdout(), cmd.ErrOrStderr()))
		},
	}
}

func runInspect(opts *options, filename string, stdout, stderr io.Writer) int {
	s, err := compile(opts, filename, stderr)
	if s == nil || s.Tables == nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	if err != nil {
		fmt.Fprintf(stderr, "warning: %v\n", err)
	}

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetCompleter(func(line string) []string {
		return complete(s.Tables, line)
	})

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fmt.Fprintf(stdout, "%d descriptors from %s; type help for commands\n", len(s.Tables.Names), filename)
	for {
		line, err := ln.Prompt("ftypeinfo> ")
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Fprintln(stdout)
			return 0
		}
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		ln.AppendHistory(line)
		if quit := inspectCommand(s, line, stdout); quit {
			return 0
		}
	}
}

// inspectCommand runs one inspector command line and reports whether it
// asked to quit.
func inspectCommand(s *passes.State, line string, w io.Writer) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	tables := s.Tables
	args := fields[1:]
	switch strings.ToLower(fields[0]) {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		fmt.Fprint(w, inspectHelp)
	case "names":
		for _, name := range tables.SortedNames() {
			fmt.Fprintln(w, name)
		}
	case "externals":
		for _, d := range tables.Descriptors {
			if d.External {
				fmt.Fprintln(w, d.Name)
			}
		}
	case "show":
		if len(args) != 1 {
			fmt.Fprintln(w, "usage: show <name>")
			break
		}
		d := tables.Lookup(strings.ToLower(args[0]))
		if d == nil {
			fmt.Fprintf(w, "no descriptor %s\n", args[0])
			break
		}
		typeinfo.FprintDescriptor(w, d)
	case "object":
		if len(args) != 1 {
			fmt.Fprintln(w, "usage: object <name>")
			break
		}
		sym := tables.Object(strings.ToLower(args[0]))
		if sym == nil {
			fmt.Fprintf(w, "no object %s\n", args[0])
			break
		}
		fmt.Fprintln(w, typeinfo.FormatObject(sym))
	case "bindings":
		if len(args) != 2 {
			fmt.Fprintln(w, "usage: bindings <module> <type>")
			break
		}
		ts := s.Ctx.FindType(strings.ToLower(args[0]), strings.ToLower(args[1]))
		if ts == nil {
			fmt.Fprintf(w, "no derived type %s in module %s\n", args[1], args[0])
			break
		}
		writeBindings(w, ts.Scope())
	case "errors":
		if len(tables.Errors) == 0 {
			fmt.Fprintln(w, "no errors")
		}
		for _, e := range tables.Errors {
			fmt.Fprintln(w, e)
		}
	default:
		fmt.Fprintf(w, "unknown command %q; type help for commands\n", fields[0])
	}
	return false
}

// complete offers command names, then descriptor names after show.
func complete(tables *typeinfo.RuntimeDerivedTypeTables, line string) []string {
	var out []string
	if cmd, rest, ok := strings.Cut(line, " "); ok {
		if cmd != "show" {
			return nil
		}
		for _, name := range tables.SortedNames() {
			if strings.HasPrefix(name, rest) {
				out = append(out, cmd+" "+name)
			}
		}
		return out
	}
	for _, c := range []string{"names", "externals", "show", "object", "bindings", "errors", "help", "quit"} {
		if strings.HasPrefix(c, line) {
			out = append(out, c)
		}
	}
	return out
}
