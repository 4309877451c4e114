// Package semantics is the semantic model of a Fortran program consumed
// by the runtime type-info builder: scopes, symbols, declared types,
// constant expressions, component layout and the instantiation of
// parameterized derived types.
package semantics

import (
	"github.com/you-not-fish/ftypeinfo/internal/source"
)

// Config specifies the configuration of a Context.
type Config struct {
	// Error is called for each diagnostic. If nil, diagnostics are only
	// collected.
	Error ErrorHandler
}

// Context is the semantic state of one compilation.
type Context struct {
	global   *Scope
	messages Messages

	// instantiation scopes keyed by type symbol and parameter key
	instances map[*Symbol]map[string]*Scope
}

// NewContext returns a context with an empty global scope.
func NewContext(conf *Config) *Context {
	if conf == nil {
		conf = &Config{}
	}
	c := &Context{
		global:    NewScope(nil, ScopeGlobal, nil),
		instances: make(map[*Symbol]map[string]*Scope),
	}
	c.messages.errh = conf.Error
	return c
}

// GlobalScope returns the root of the scope tree.
func (c *Context) GlobalScope() *Scope { return c.global }

// Messages returns the diagnostics reported so far.
func (c *Context) Messages() *Messages { return &c.messages }

// Say reports an error at pos.
func (c *Context) Say(pos source.Pos, format string, args ...interface{}) *Message {
	return c.messages.Say(pos, SeverityError, format, args...)
}

// Warn reports a warning at pos.
func (c *Context) Warn(pos source.Pos, format string, args ...interface{}) *Message {
	return c.messages.Say(pos, SeverityWarning, format, args...)
}

// FindModule returns the scope of the named module or submodule, or nil.
func (c *Context) FindModule(name string) *Scope {
	if sym := c.global.Lookup(name); sym != nil && sym.Scope() != nil && sym.Scope().IsModule() {
		return sym.Scope()
	}
	return nil
}

// FindType returns the derived type named name in module mod.
func (c *Context) FindType(mod, name string) *Symbol {
	m := c.FindModule(mod)
	if m == nil {
		return nil
	}
	if sym := m.Lookup(name); sym != nil && sym.IsDerivedType() {
		return sym.GetUltimate()
	}
	return nil
}

// Instances returns the instantiation scopes created for the derived
// type sym.
func (c *Context) Instances(sym *Symbol) []*Scope {
	var out []*Scope
	for _, s := range sym.Scope().Parent().Children() {
		if s.spec != nil && s.spec.typeSymbol == sym {
			out = append(out, s)
		}
	}
	return out
}
