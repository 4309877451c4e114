// Package passes runs the semantic passes that follow name resolution:
// component layout and the construction of the runtime derived-type
// tables.
package passes

import (
	"fmt"
	"io"
	"os"

	"github.com/you-not-fish/ftypeinfo/internal/semantics"
	"github.com/you-not-fish/ftypeinfo/internal/typeinfo"
)

// State is the program the passes work on and what they produce.
type State struct {
	Ctx    *semantics.Context
	Tables *typeinfo.RuntimeDerivedTypeTables
}

// Pass describes a single pass.
type Pass struct {
	Name string
	Fn   func(s *State) error
}

// Config controls pass execution behavior.
type Config struct {
	DumpBefore string    // dump state before this pass ("*" for all)
	DumpAfter  string    // dump state after this pass ("*" for all)
	Verify     bool      // verify the tables before/after each pass
	Out        io.Writer // destination of dumps, os.Stderr if nil
}

// Default returns the layout pass followed by the type-info pass
// configured by opts.
func Default(opts *typeinfo.Options) []Pass {
	return []Pass{
		{Name: "layout", Fn: layout},
		{Name: "typeinfo", Fn: func(s *State) error {
			tables, err := typeinfo.Build(s.Ctx, opts)
			s.Tables = tables
			return err
		}},
	}
}

func layout(s *State) error {
	s.Ctx.CompleteLayouts()
	return nil
}

// Run executes the given passes on s in order. It stops at the first
// pass that fails.
func Run(s *State, passes []Pass, cfg Config) error {
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}
	for _, p := range passes {
		if shouldDump(cfg.DumpBefore, p.Name) {
			fmt.Fprintf(out, "--- before %s ---\n", p.Name)
			dump(out, s)
			fmt.Fprintln(out)
		}

		if cfg.Verify && s.Tables != nil {
			if err := typeinfo.Verify(s.Tables); err != nil {
				return fmt.Errorf("verify before %s: %w", p.Name, err)
			}
		}

		if err := p.Fn(s); err != nil {
			return fmt.Errorf("%s: %w", p.Name, err)
		}

		if cfg.Verify && s.Tables != nil {
			if err := typeinfo.Verify(s.Tables); err != nil {
				return fmt.Errorf("verify after %s: %w", p.Name, err)
			}
		}

		if shouldDump(cfg.DumpAfter, p.Name) {
			fmt.Fprintf(out, "--- after %s ---\n", p.Name)
			dump(out, s)
			fmt.Fprintln(out)
		}
	}
	return nil
}

// dump writes the tables once built, the scope tree before.
func dump(w io.Writer, s *State) {
	if s.Tables != nil {
		typeinfo.Fprint(w, s.Tables)
		return
	}
	fmt.Fprint(w, s.Ctx.GlobalScope())
}

func shouldDump(pattern, name string) bool {
	return pattern == "*" || pattern == name
}
