package unparse

import (
	"github.com/savente93/snakeoil/internal/pyast"
)

// Arguments renders a parameter list without the surrounding parentheses:
// position-only parameters and "/", regular parameters, "*vararg" (or a bare
// "*" before keyword-only parameters), keyword-only parameters, "**kwarg".
func Arguments(a *pyast.Arguments) (string, error) {
	var p printer
	p.arguments(a)
	if p.err != nil {
		return "", p.err
	}
	return p.b.String(), nil
}

// Signature renders name(params) with " -> returns" when returns is non-nil.
func Signature(name string, a *pyast.Arguments, returns pyast.Expr) (string, error) {
	var p printer
	p.write(name + "(")
	p.arguments(a)
	p.write(")")
	if returns != nil {
		p.write(" -> ")
		p.expr(returns, precTest)
	}
	if p.err != nil {
		return "", p.err
	}
	return p.b.String(), nil
}

func (p *printer) arguments(a *pyast.Arguments) {
	first := true
	sep := func() {
		if !first {
			p.write(", ")
		}
		first = false
	}

	for i := range a.PosOnly {
		sep()
		p.arg(&a.PosOnly[i])
	}
	if len(a.PosOnly) > 0 {
		sep()
		p.write("/")
	}
	for i := range a.Args {
		sep()
		p.arg(&a.Args[i])
	}
	if a.Vararg != nil {
		sep()
		p.write("*")
		p.arg(a.Vararg)
	} else if len(a.KwOnly) > 0 {
		sep()
		p.write("*")
	}
	for i := range a.KwOnly {
		sep()
		p.arg(&a.KwOnly[i])
	}
	if a.Kwarg != nil {
		sep()
		p.write("**")
		p.arg(a.Kwarg)
	}
}

func (p *printer) arg(a *pyast.Arg) {
	p.write(a.Name)
	if a.Annotation != nil {
		p.write(": ")
		p.expr(a.Annotation, precTest)
	}
	if a.Default != nil {
		p.write(" = ")
		p.expr(a.Default, precTest)
	}
}
