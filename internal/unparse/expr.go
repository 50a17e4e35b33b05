// Package unparse turns pyast expressions and parameter lists back into
// canonical Python source text.
//
// Output uses fixed spacing and inserts parentheses only where operator
// precedence requires them, so the text parses back to an equivalent
// expression.
package unparse

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/savente93/snakeoil/internal/pyast"
)

// ErrUnsupported is matched by every *UnsupportedError.
var ErrUnsupported = errors.New("unsupported expression")

// UnsupportedError reports an expression that has no canonical rendering.
type UnsupportedError struct {
	Kind   string
	Source string
}

func (e *UnsupportedError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("cannot unparse %s expression", e.Kind)
	}
	return fmt.Sprintf("cannot unparse %s expression %s", e.Kind, e.Source)
}

func (e *UnsupportedError) Unwrap() error {
	return ErrUnsupported
}

// precedence levels, loosest first.
type precedence int

const (
	precNamedExpr precedence = iota
	precTuple
	precYield
	precTest
	precOr
	precAnd
	precNot
	precCmp
	precBor
	precBxor
	precBand
	precShift
	precArith
	precTerm
	precFactor
	precPower
	precAwait
	precAtom
)

var binOpPrecedence = map[pyast.Operator]precedence{
	pyast.BitOr:    precBor,
	pyast.BitXor:   precBxor,
	pyast.BitAnd:   precBand,
	pyast.LShift:   precShift,
	pyast.RShift:   precShift,
	pyast.Add:      precArith,
	pyast.Sub:      precArith,
	pyast.Mult:     precTerm,
	pyast.MatMult:  precTerm,
	pyast.Div:      precTerm,
	pyast.Mod:      precTerm,
	pyast.FloorDiv: precTerm,
	pyast.Pow:      precPower,
}

// Expr renders e as Python source text.
func Expr(e pyast.Expr) (string, error) {
	var p printer
	p.expr(e, precNamedExpr)
	if p.err != nil {
		return "", p.err
	}
	return p.b.String(), nil
}

// printer accumulates output; the first error stops further writes from mattering.
type printer struct {
	b   strings.Builder
	err error
}

func (p *printer) write(s string) {
	p.b.WriteString(s)
}

func (p *printer) fail(kind, source string) {
	if p.err == nil {
		p.err = &UnsupportedError{Kind: kind, Source: source}
	}
}

// open writes "(" when an expression of precedence own is placed where need
// is required, and returns the matching closer.
func (p *printer) open(own, need precedence) func() {
	if own >= need {
		return func() {}
	}
	p.write("(")
	return func() { p.write(")") }
}

func (p *printer) join(elts []pyast.Expr, need precedence) {
	for i, e := range elts {
		if i > 0 {
			p.write(", ")
		}
		p.expr(e, need)
	}
}

func (p *printer) expr(e pyast.Expr, need precedence) {
	if p.err != nil {
		return
	}

	switch n := e.(type) {
	case nil:
		p.fail("missing", "")
	case *pyast.Name:
		p.write(n.ID)
	case *pyast.Constant:
		p.constant(n, need)

	case *pyast.BoolOp:
		own := precOr
		if n.Op == pyast.And {
			own = precAnd
		}
		defer p.open(own, need)()
		for i, v := range n.Values {
			if i > 0 {
				p.write(" " + string(n.Op) + " ")
			}
			p.expr(v, own+1)
		}
	case *pyast.NamedExpr:
		p.write("(")
		p.expr(n.Target, precAtom)
		p.write(" := ")
		p.expr(n.Value, precTest)
		p.write(")")
	case *pyast.BinOp:
		own, ok := binOpPrecedence[n.Op]
		if !ok {
			p.fail("operator", string(n.Op))
			return
		}
		left, right := own, own+1
		if n.Op == pyast.Pow {
			left, right = precAwait, precFactor
		}
		defer p.open(own, need)()
		p.expr(n.Left, left)
		p.write(" " + string(n.Op) + " ")
		p.expr(n.Right, right)
	case *pyast.UnaryOp:
		switch n.Op {
		case pyast.Not:
			defer p.open(precNot, need)()
			p.write("not ")
			p.expr(n.Operand, precNot)
		case pyast.Invert, pyast.UAdd, pyast.USub:
			defer p.open(precFactor, need)()
			p.write(string(n.Op))
			p.expr(n.Operand, precFactor)
		default:
			p.fail("unary operator", string(n.Op))
		}
	case *pyast.Lambda:
		defer p.open(precTest, need)()
		p.write("lambda")
		if !n.Args.Empty() {
			p.write(" ")
			p.arguments(&n.Args)
		}
		p.write(": ")
		p.expr(n.Body, precTest)
	case *pyast.IfExp:
		defer p.open(precTest, need)()
		p.expr(n.Body, precOr)
		p.write(" if ")
		p.expr(n.Test, precOr)
		p.write(" else ")
		p.expr(n.OrElse, precTest)

	case *pyast.Dict:
		if len(n.Keys) != len(n.Values) {
			p.fail("dict", "")
			return
		}
		p.write("{")
		for i := range n.Values {
			if i > 0 {
				p.write(", ")
			}
			if n.Keys[i] == nil {
				p.write("**")
				p.expr(n.Values[i], precBor)
				continue
			}
			p.expr(n.Keys[i], precTest)
			p.write(": ")
			p.expr(n.Values[i], precTest)
		}
		p.write("}")
	case *pyast.Set:
		if len(n.Elts) == 0 {
			p.write("{*()}")
			return
		}
		p.write("{")
		p.join(n.Elts, precTest)
		p.write("}")
	case *pyast.List:
		p.write("[")
		p.join(n.Elts, precTest)
		p.write("]")
	case *pyast.Tuple:
		p.write("(")
		p.join(n.Elts, precTest)
		if len(n.Elts) == 1 {
			p.write(",")
		}
		p.write(")")

	case *pyast.ListComp:
		p.write("[")
		p.expr(n.Elt, precTest)
		p.generators(n.Generators)
		p.write("]")
	case *pyast.SetComp:
		p.write("{")
		p.expr(n.Elt, precTest)
		p.generators(n.Generators)
		p.write("}")
	case *pyast.DictComp:
		p.write("{")
		p.expr(n.Key, precTest)
		p.write(": ")
		p.expr(n.Value, precTest)
		p.generators(n.Generators)
		p.write("}")
	case *pyast.GeneratorExp:
		p.write("(")
		p.genexpBody(n)
		p.write(")")

	case *pyast.Await:
		defer p.open(precAwait, need)()
		p.write("await ")
		p.expr(n.Value, precAtom)
	case *pyast.Yield:
		defer p.open(precYield, need)()
		p.write("yield")
		if n.Value != nil {
			p.write(" ")
			p.expr(n.Value, precTuple)
		}
	case *pyast.YieldFrom:
		defer p.open(precYield, need)()
		p.write("yield from ")
		p.expr(n.Value, precTest)
	case *pyast.Compare:
		if len(n.Ops) == 0 || len(n.Ops) != len(n.Comparators) {
			p.fail("comparison", "")
			return
		}
		defer p.open(precCmp, need)()
		p.expr(n.Left, precCmp+1)
		for i, op := range n.Ops {
			p.write(" " + string(op) + " ")
			p.expr(n.Comparators[i], precCmp+1)
		}

	case *pyast.Call:
		p.call(n)
	case *pyast.Attribute:
		p.expr(n.Value, precAtom)
		// 1.real would lex as a float.
		if c, ok := n.Value.(*pyast.Constant); ok && c.Kind == pyast.IntConst {
			p.write(" ")
		}
		p.write("." + n.Attr)
	case *pyast.Subscript:
		p.expr(n.Value, precAtom)
		p.write("[")
		p.bareTuple(n.Slice)
		p.write("]")
	case *pyast.Starred:
		p.write("*")
		p.expr(n.Value, precBor)
	case *pyast.Slice:
		if n.Lower != nil {
			p.expr(n.Lower, precTest)
		}
		p.write(":")
		if n.Upper != nil {
			p.expr(n.Upper, precTest)
		}
		if n.Step != nil {
			p.write(":")
			p.expr(n.Step, precTest)
		}

	case *pyast.JoinedStr:
		p.fail("f-string", n.Source)
	case *pyast.Unsupported:
		p.fail(n.Kind, n.Source)
	default:
		p.fail(fmt.Sprintf("%T", e), "")
	}
}

func (p *printer) genexpBody(n *pyast.GeneratorExp) {
	p.expr(n.Elt, precTest)
	p.generators(n.Generators)
}

func (p *printer) generators(gens []pyast.Comprehension) {
	if len(gens) == 0 {
		p.fail("comprehension", "")
		return
	}
	for _, g := range gens {
		if g.IsAsync {
			p.write(" async for ")
		} else {
			p.write(" for ")
		}
		p.bareTuple(g.Target)
		p.write(" in ")
		p.expr(g.Iter, precOr)
		for _, cond := range g.Ifs {
			p.write(" if ")
			p.expr(cond, precOr)
		}
	}
}

func (p *printer) call(n *pyast.Call) {
	p.expr(n.Func, precAtom)
	p.write("(")
	defer p.write(")")

	// f(x for x in y) needs no second pair of parentheses.
	if len(n.Args) == 1 && len(n.Keywords) == 0 {
		if gen, ok := n.Args[0].(*pyast.GeneratorExp); ok {
			p.genexpBody(gen)
			return
		}
	}

	p.join(n.Args, precTest)
	for i, kw := range n.Keywords {
		if i > 0 || len(n.Args) > 0 {
			p.write(", ")
		}
		if kw.Arg == "" {
			p.write("**")
			p.expr(kw.Value, precBor)
			continue
		}
		p.write(kw.Arg + "=")
		p.expr(kw.Value, precTest)
	}
}

// bareTuple renders e, dropping the outer parentheses of a non-empty tuple.
// Used for subscript indexes and comprehension targets.
func (p *printer) bareTuple(e pyast.Expr) {
	tup, ok := e.(*pyast.Tuple)
	if !ok || len(tup.Elts) == 0 {
		p.expr(e, precTuple)
		return
	}
	p.join(tup.Elts, precTest)
	if len(tup.Elts) == 1 {
		p.write(",")
	}
}

func (p *printer) constant(c *pyast.Constant, need precedence) {
	switch c.Kind {
	case pyast.NoneConst:
		p.write("None")
	case pyast.BoolConst:
		if c.Bool {
			p.write("True")
		} else {
			p.write("False")
		}
	case pyast.EllipsisConst:
		p.write("...")
	case pyast.StrConst:
		p.write(quoteStr(c.Str))
	case pyast.BytesConst:
		p.write(quoteBytes(c.Str))
	case pyast.IntConst:
		s := "0"
		if c.Int != nil {
			s = c.Int.String()
		}
		p.signed(s, need)
	case pyast.FloatConst:
		p.signed(formatFloat(c.Float), need)
	case pyast.ComplexConst:
		p.complex(c.Real, c.Imag, need)
	default:
		p.fail("constant", "")
	}
}

// signed writes a numeric literal, parenthesised when a leading minus sign
// would bind looser than the surrounding context.
func (p *printer) signed(s string, need precedence) {
	if strings.HasPrefix(s, "-") {
		defer p.open(precFactor, need)()
	}
	p.write(s)
}

func (p *printer) complex(re, im float64, need precedence) {
	const eps = 2.220446049250313e-16 // float64 machine epsilon

	switch {
	case math.Abs(re) < eps:
		p.signed(complexPart(im)+"j", need)
	case math.Abs(im) < eps:
		p.signed(complexPart(re), need)
	default:
		defer p.open(precArith, need)()
		p.write(complexPart(re))
		if im < 0 {
			p.write("-" + complexPart(-im) + "j")
		} else {
			p.write("+" + complexPart(im) + "j")
		}
	}
}

// complexPart formats one component the way Python's complex repr does:
// integral values lose their ".0".
func complexPart(f float64) string {
	return strings.TrimSuffix(formatFloat(f), ".0")
}

// formatFloat matches Python's float repr: shortest round-tripping digits,
// positional notation for 1e-4 <= |f| < 1e16.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "1e309"
	case math.IsInf(f, -1):
		return "-1e309"
	case math.IsNaN(f):
		return "(1e309 - 1e309)"
	}

	abs := math.Abs(f)
	if abs == 0 || (abs >= 1e-4 && abs < 1e16) {
		s := strconv.FormatFloat(f, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}
	return strconv.FormatFloat(f, 'e', -1, 64)
}

func quoteStr(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			switch {
			case unicode.IsPrint(r):
				b.WriteRune(r)
			case r < 0x100:
				fmt.Fprintf(&b, `\x%02x`, r)
			case r < 0x10000:
				fmt.Fprintf(&b, `\u%04x`, r)
			default:
				fmt.Fprintf(&b, `\U%08x`, r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

func quoteBytes(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 3)
	b.WriteString(`b"`)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\':
			b.WriteString(`\\`)
		case c == '"':
			b.WriteString(`\"`)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\r':
			b.WriteString(`\r`)
		case c == '\t':
			b.WriteString(`\t`)
		case c >= 0x20 && c < 0x7f:
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, `\x%02x`, c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
