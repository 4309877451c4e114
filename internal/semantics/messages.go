package semantics

import (
	"fmt"
	"sort"

	"github.com/you-not-fish/ftypeinfo/internal/source"
)

// Severity of a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInternal // internal compiler error
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityInternal:
		return "internal error"
	}
	return "error"
}

// Message is a positioned diagnostic.
type Message struct {
	Pos      source.Pos
	Severity Severity
	Text     string
}

// String formats m as a diagnostic line.
func (m *Message) String() string {
	if !m.Pos.IsValid() {
		return fmt.Sprintf("%s: %s", m.Severity, m.Text)
	}
	return fmt.Sprintf("%s: %s: %s", m.Pos, m.Severity, m.Text)
}

// Error implements the error interface. A message without a position is
// just its text, for the caller to wrap with its own context.
func (m *Message) Error() string {
	if !m.Pos.IsValid() {
		return m.Text
	}
	return m.String()
}

// ErrorHandler is called for each diagnostic as it is reported.
type ErrorHandler func(m *Message)

// Messages accumulates the diagnostics of a compilation.
type Messages struct {
	list   []*Message
	errors int
	first  *Message
	errh   ErrorHandler
}

// Say reports a diagnostic and returns it.
func (ms *Messages) Say(pos source.Pos, sev Severity, format string, args ...interface{}) *Message {
	m := &Message{Pos: pos, Severity: sev, Text: fmt.Sprintf(format, args...)}
	ms.list = append(ms.list, m)
	if sev != SeverityWarning {
		if ms.errors == 0 {
			ms.first = m
		}
		ms.errors++
	}
	if ms.errh != nil {
		ms.errh(m)
	}
	return m
}

// List returns the diagnostics in the order reported.
func (ms *Messages) List() []*Message { return ms.list }

// Sorted returns the diagnostics ordered by position.
func (ms *Messages) Sorted() []*Message {
	out := append([]*Message(nil), ms.list...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Pos.Before(out[j].Pos) })
	return out
}

// AnyError reports whether an error or internal error was reported.
func (ms *Messages) AnyError() bool { return ms.errors > 0 }

// NumErrors returns the number of errors and internal errors.
func (ms *Messages) NumErrors() int { return ms.errors }

// First returns the first error, or nil.
func (ms *Messages) First() error {
	if ms.first == nil {
		return nil
	}
	return ms.first
}
