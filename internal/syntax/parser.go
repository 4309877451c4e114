package syntax

import (
	"io"
	"strings"

	"github.com/you-not-fish/ftypeinfo/internal/source"
)

// Maximum number of errors before aborting parse.
const maxErrors = 10

// SyntaxError represents a syntax error.
type SyntaxError struct {
	Pos source.Pos
	Msg string
}

func (e *SyntaxError) Error() string {
	return e.Pos.String() + ": " + e.Msg
}

// Parser performs syntax analysis of declaration notation.
type Parser struct {
	scanner *Scanner

	tok Token
	lit string
	pos source.Pos

	errh   func(pos source.Pos, msg string)
	errcnt int
	first  error
	abort  bool
}

// NewParser creates a new Parser for src.
func NewParser(filename string, src io.Reader, errh func(pos source.Pos, msg string)) *Parser {
	p := &Parser{errh: errh}
	p.scanner = NewScanner(filename, src, func(line, col uint32, msg string) {
		p.syntaxErrorAt(source.NewPos(filename, line, col), msg)
	})
	p.next()
	return p
}

// ----------------------------------------------------------------------------
// Token navigation

func (p *Parser) next() {
	if p.abort {
		p.tok = _EOF
		return
	}
	p.scanner.Next()
	p.tok = p.scanner.Token()
	p.lit = p.scanner.Literal()
	p.pos = p.scanner.Pos()
}

// got reports whether the current token is tok.
// If so, it consumes the token and returns true.
func (p *Parser) got(tok Token) bool {
	if p.tok == tok {
		p.next()
		return true
	}
	return false
}

// want consumes the current token if it matches tok.
// Otherwise, reports an error.
func (p *Parser) want(tok Token) {
	if !p.got(tok) {
		p.syntaxError("expected " + tok.String() + ", found " + p.found())
	}
}

func (p *Parser) found() string {
	switch p.tok {
	case _Name, _Literal:
		return p.scanner.Literal()
	case _EOF:
		return "end of input"
	}
	return p.tok.String()
}

// ----------------------------------------------------------------------------
// Error handling

func (p *Parser) syntaxError(msg string) {
	p.syntaxErrorAt(p.pos, msg)
}

func (p *Parser) syntaxErrorAt(pos source.Pos, msg string) {
	if p.abort {
		return
	}
	if p.errcnt == 0 {
		p.first = &SyntaxError{Pos: pos, Msg: msg}
	}
	p.errcnt++
	if p.errh != nil {
		p.errh(pos, msg)
	}
	if p.errcnt >= maxErrors {
		p.abort = true
		p.tok = _EOF
	}
}

// Errors returns the number of errors encountered during parsing.
func (p *Parser) Errors() int {
	return p.errcnt
}

// FirstError returns the first error encountered, or nil if none.
func (p *Parser) FirstError() error {
	return p.first
}

// End reports an error unless all input has been consumed.
func (p *Parser) End() {
	if p.tok != _EOF {
		p.syntaxError("unexpected " + p.found() + " after end of notation")
	}
}

// ----------------------------------------------------------------------------
// Entry points

// ParseTypeSpec parses src as a complete type specification.
func ParseTypeSpec(filename, src string) (*TypeSpec, error) {
	p := NewParser(filename, strings.NewReader(src), nil)
	s := p.TypeSpec()
	p.End()
	return s, p.FirstError()
}

// ParseShape parses src as a complete array specification.
func ParseShape(filename, src string) (*Shape, error) {
	p := NewParser(filename, strings.NewReader(src), nil)
	s := p.Shape()
	p.End()
	return s, p.FirstError()
}

// ParseExpr parses src as a complete expression.
func ParseExpr(filename, src string) (Expr, error) {
	p := NewParser(filename, strings.NewReader(src), nil)
	x := p.Expr()
	p.End()
	return x, p.FirstError()
}

// ----------------------------------------------------------------------------
// Specifications

var intrinsicKeywords = map[string]bool{
	"integer":   true,
	"real":      true,
	"complex":   true,
	"logical":   true,
	"character": true,
}

// TypeSpec parses a type specification.
func (p *Parser) TypeSpec() *TypeSpec {
	s := &TypeSpec{}
	s.pos = p.pos
	if p.tok != _Name {
		p.syntaxError("expected type specification, found " + p.found())
		return s
	}
	s.Keyword = p.lit
	p.next()

	switch {
	case intrinsicKeywords[s.Keyword]:
		if p.got(_Lparen) {
			s.Params = p.paramList()
		}
	case s.Keyword == "doubleprecision":
	case s.Keyword == "double":
		if p.tok != _Name || p.lit != "precision" {
			p.syntaxError("expected precision, found " + p.found())
		}
		p.next()
		s.Keyword = "doubleprecision"
	case s.Keyword == "type" || s.Keyword == "class":
		p.want(_Lparen)
		if p.got(_Mul) {
			s.Star = true
		} else {
			s.Derived = p.derivedSpec()
		}
		p.want(_Rparen)
	default:
		p.syntaxErrorAt(s.pos, "unknown type "+s.Keyword)
	}
	return s
}

// derivedSpec parses name[(param-list)].
func (p *Parser) derivedSpec() *DerivedSpec {
	d := &DerivedSpec{}
	d.pos = p.pos
	d.Name = p.name()
	if p.got(_Lparen) {
		d.Params = p.paramList()
	}
	return d
}

// paramList parses a comma-separated parameter list after '(' and the
// closing ')'.
func (p *Parser) paramList() []*Param {
	var list []*Param
	for {
		list = append(list, p.param())
		if !p.got(_Comma) {
			break
		}
	}
	p.want(_Rparen)
	return list
}

// param parses [keyword =] (expr | * | :).
func (p *Parser) param() *Param {
	a := &Param{}
	a.pos = p.pos
	if p.tok == _Name {
		x := p.Expr()
		n, ok := x.(*Name)
		if !ok || !p.got(_Assign) {
			a.Value = x
			return a
		}
		a.Keyword = n.Value
	}
	switch {
	case p.got(_Mul):
		a.Star = true
	case p.got(_Colon):
		a.Colon = true
	default:
		a.Value = p.Expr()
	}
	return a
}

// Shape parses an array specification: (dim-list) or (..).
func (p *Parser) Shape() *Shape {
	s := &Shape{}
	s.pos = p.pos
	p.want(_Lparen)
	if p.got(_DotDot) {
		s.AssumedRank = true
		p.want(_Rparen)
		return s
	}
	for {
		s.Dims = append(s.Dims, p.dim())
		if !p.got(_Comma) {
			break
		}
	}
	p.want(_Rparen)
	return s
}

// dim parses [lower :] upper, [lower] :, [lower :] *.
func (p *Parser) dim() *Dim {
	d := &Dim{}
	d.pos = p.pos
	if p.got(_Mul) {
		d.Star = true
		return d
	}
	if !p.got(_Colon) {
		x := p.Expr()
		if !p.got(_Colon) {
			d.Upper = x
			return d
		}
		d.Lower = x
	}
	d.Colon = true
	switch {
	case p.got(_Mul):
		d.Star = true
	case p.tok == _Comma || p.tok == _Rparen:
	default:
		d.Upper = p.Expr()
	}
	return d
}

// ----------------------------------------------------------------------------
// Expressions

// Expr parses an expression.
func (p *Parser) Expr() Expr {
	return p.binaryExpr(0)
}

// binaryExpr parses a binary expression with minimum precedence prec.
func (p *Parser) binaryExpr(prec int) Expr {
	x := p.unaryExpr()
	for {
		oprec := p.tok.Precedence()
		if oprec <= prec {
			return x
		}
		op := &Operation{Op: p.tok, X: x}
		op.pos = x.Pos()
		p.next()
		op.Y = p.binaryExpr(oprec)
		x = op
	}
}

func (p *Parser) unaryExpr() Expr {
	switch p.tok {
	case _Add, _Sub:
		op := &Operation{Op: p.tok}
		op.pos = p.pos
		p.next()
		op.X = p.unaryExpr()
		return op
	}
	return p.operand()
}

func (p *Parser) operand() Expr {
	switch p.tok {
	case _Name:
		n := p.name()
		if p.tok == _Lparen {
			return p.callExpr(n)
		}
		return n

	case _Literal:
		lit := &BasicLit{Value: p.lit, LitKind: p.scanner.LitKind(), Kind: p.scanner.Suffix()}
		lit.pos = p.pos
		p.next()
		return lit

	case _Lparen:
		pos := p.pos
		p.next()
		x := p.Expr()
		p.want(_Rparen)
		paren := &ParenExpr{X: x}
		paren.pos = pos
		return paren

	default:
		p.syntaxError("expected operand, found " + p.found())
		n := &Name{Value: "_"} // error recovery
		n.pos = p.pos
		if p.tok != _EOF {
			p.next()
		}
		return n
	}
}

// callExpr parses Fun(args...).
func (p *Parser) callExpr(fun *Name) Expr {
	call := &CallExpr{Fun: fun}
	call.pos = fun.Pos()
	p.want(_Lparen)
	if p.tok != _Rparen {
		call.Args = append(call.Args, p.Expr())
		for p.got(_Comma) {
			call.Args = append(call.Args, p.Expr())
		}
	}
	p.want(_Rparen)
	return call
}

// name parses an identifier.
func (p *Parser) name() *Name {
	n := &Name{Value: p.lit}
	n.pos = p.pos
	if p.tok != _Name {
		p.syntaxError("expected name, found " + p.found())
		n.Value = "_"
		return n
	}
	p.next()
	return n
}
