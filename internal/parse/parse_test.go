package parse

import (
	"context"
	"errors"
	"math"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savente93/snakeoil/internal/pyast"
)

func parseModule(t *testing.T, source string) *pyast.Module {
	t.Helper()
	p := NewParser()
	defer p.Close()
	mod, err := p.Parse(context.Background(), []byte(source))
	require.NoError(t, err)
	return mod
}

func parseExpr(t *testing.T, source string) pyast.Expr {
	t.Helper()
	e, err := ParseExpr(context.Background(), source)
	require.NoError(t, err)
	return e
}

func TestParseFunction(t *testing.T) {
	t.Parallel()

	mod := parseModule(t, "def hello(name: str) -> None:\n    \"\"\"Say hi.\"\"\"\n    pass\n")
	require.Len(t, mod.Body, 1)

	fn, ok := mod.Body[0].(*pyast.FunctionDef)
	require.True(t, ok, "got %T", mod.Body[0])
	assert.Equal(t, "hello", fn.Name)
	assert.Equal(t, 1, fn.Line)
	assert.False(t, fn.IsAsync)
	require.Len(t, fn.Args.Args, 1)
	assert.Equal(t, "name", fn.Args.Args[0].Name)
	assert.Equal(t, &pyast.Name{ID: "str"}, fn.Args.Args[0].Annotation)
	assert.Equal(t, &pyast.Constant{Kind: pyast.NoneConst}, fn.Returns)

	doc, ok := pyast.Docstring(fn.Body)
	require.True(t, ok)
	assert.Equal(t, "Say hi.", doc)
}

func TestParseAsyncDecorated(t *testing.T) {
	t.Parallel()

	mod := parseModule(t, "@cache\n@app.route('/x')\nasync def fetch():\n    pass\n")
	require.Len(t, mod.Body, 1)

	fn, ok := mod.Body[0].(*pyast.FunctionDef)
	require.True(t, ok)
	assert.True(t, fn.IsAsync)
	assert.Len(t, fn.Decorators, 2)
	assert.True(t, fn.Args.Empty())
}

func TestParseParameters(t *testing.T) {
	t.Parallel()

	mod := parseModule(t, "def f(a, b=1, /, c: int = 2, *args: str, d, e=3, **kw): pass\n")
	fn := mod.Body[0].(*pyast.FunctionDef)
	a := fn.Args

	require.Len(t, a.PosOnly, 2)
	assert.Equal(t, "a", a.PosOnly[0].Name)
	assert.Equal(t, "b", a.PosOnly[1].Name)
	assert.Equal(t, pyast.Int(1), a.PosOnly[1].Default)

	require.Len(t, a.Args, 1)
	assert.Equal(t, "c", a.Args[0].Name)
	assert.Equal(t, &pyast.Name{ID: "int"}, a.Args[0].Annotation)

	require.NotNil(t, a.Vararg)
	assert.Equal(t, "args", a.Vararg.Name)
	assert.Equal(t, &pyast.Name{ID: "str"}, a.Vararg.Annotation)

	require.Len(t, a.KwOnly, 2)
	assert.Equal(t, "d", a.KwOnly[0].Name)
	assert.Nil(t, a.KwOnly[0].Default)
	assert.Equal(t, "e", a.KwOnly[1].Name)

	require.NotNil(t, a.Kwarg)
	assert.Equal(t, "kw", a.Kwarg.Name)
}

func TestParseBareStar(t *testing.T) {
	t.Parallel()

	fn := parseModule(t, "def f(a, *, b): pass\n").Body[0].(*pyast.FunctionDef)
	assert.Nil(t, fn.Args.Vararg)
	require.Len(t, fn.Args.Args, 1)
	require.Len(t, fn.Args.KwOnly, 1)
	assert.Equal(t, "b", fn.Args.KwOnly[0].Name)
}

func TestParseClass(t *testing.T) {
	t.Parallel()

	source := `class Foo(Base, metaclass=Meta):
    """A foo."""

    def method(self, x: int) -> str:
        return str(x)
`
	mod := parseModule(t, source)
	require.Len(t, mod.Body, 1)

	cls, ok := mod.Body[0].(*pyast.ClassDef)
	require.True(t, ok)
	assert.Equal(t, "Foo", cls.Name)
	assert.Equal(t, []pyast.Expr{&pyast.Name{ID: "Base"}}, cls.Bases)
	require.Len(t, cls.Keywords, 1)
	assert.Equal(t, "metaclass", cls.Keywords[0].Arg)

	doc, ok := pyast.Docstring(cls.Body)
	require.True(t, ok)
	assert.Equal(t, "A foo.", doc)

	var methods []*pyast.FunctionDef
	for _, s := range cls.Body {
		if fn, ok := s.(*pyast.FunctionDef); ok {
			methods = append(methods, fn)
		}
	}
	require.Len(t, methods, 1)
	assert.Equal(t, "method", methods[0].Name)
	assert.Equal(t, 4, methods[0].Line)
}

func TestParseAssignments(t *testing.T) {
	t.Parallel()

	source := `__all__ = ["a", "b"]
x: int = 3
y: str
a = b = []
`
	mod := parseModule(t, source)
	require.Len(t, mod.Body, 4)

	all := mod.Body[0].(*pyast.Assign)
	assert.Equal(t, []pyast.Expr{&pyast.Name{ID: "__all__"}}, all.Targets)
	assert.Equal(t, &pyast.List{Elts: []pyast.Expr{pyast.Str("a"), pyast.Str("b")}}, all.Value)

	ann := mod.Body[1].(*pyast.Assign)
	assert.Equal(t, &pyast.Name{ID: "int"}, ann.Annotation)
	assert.Equal(t, pyast.Int(3), ann.Value)

	bare := mod.Body[2].(*pyast.Assign)
	assert.Nil(t, bare.Value)

	chained := mod.Body[3].(*pyast.Assign)
	assert.Len(t, chained.Targets, 2)
	assert.Equal(t, &pyast.List{Elts: []pyast.Expr{}}, chained.Value)
}

func TestParseOtherStatements(t *testing.T) {
	t.Parallel()

	mod := parseModule(t, "import os\n# comment\nx += 1\nif x:\n    pass\n")
	require.Len(t, mod.Body, 3)
	for _, s := range mod.Body {
		_, ok := s.(*pyast.Other)
		assert.True(t, ok, "got %T", s)
	}
}

func TestParseEmpty(t *testing.T) {
	t.Parallel()

	mod := parseModule(t, "")
	assert.Empty(t, mod.Body)
}

func TestParseSyntaxError(t *testing.T) {
	t.Parallel()

	p := NewParser()
	defer p.Close()

	_, err := p.Parse(context.Background(), []byte("def broken(:\n    pass\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSyntax))

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 1, perr.Line)
}

func TestParseRejectsInvalidPython3(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
		line   int
		column int
		reason string
	}{
		{"print statement", "x = 1\nprint \"x\"\n", 2, 1, "print statement"},
		{"nested print", "def f():\n    if x:\n        print x\n", 3, 9, "print statement"},
		{"exec statement", "exec \"code\"\n", 1, 1, "exec statement"},
		{"backtick", "y = `1`\n", 1, 5, "backtick repr"},
		{"default order", "def f(x=1, y): pass\n", 1, 12, "non-default argument follows default argument"},
		{"default order across slash", "def f(x=1, /, y): pass\n", 1, 15, "non-default argument follows default argument"},
		{"bare star then kwargs", "def f(*, **kw): pass\n", 1, 7, "named arguments must follow bare *"},
		{"bare star last", "def f(a, *): pass\n", 1, 10, "named arguments must follow bare *"},
		{"lambda order", "g = lambda a=1, b: a\n", 1, 17, "non-default argument follows default argument"},
		{"tuple parameter", "def f((a, b)): pass\n", 1, 7, "tuple parameter unpacking"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := NewParser()
			defer p.Close()

			_, err := p.Parse(context.Background(), []byte(tt.source))
			require.ErrorIs(t, err, ErrSyntax)

			var perr *Error
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.line, perr.Line)
			assert.Equal(t, tt.column, perr.Column)
			assert.Equal(t, tt.reason, perr.Reason)
			assert.Contains(t, perr.Error(), tt.reason)
		})
	}
}

func TestParseAcceptsValidParameterLists(t *testing.T) {
	t.Parallel()

	sources := []string{
		"print(\"x\")\n",
		"exec(code)\n",
		"def f(a, b=1, *args, c, d=2, **kw): pass\n",
		"def f(a=1, *, b): pass\n",
		"def f(a=1, *args, b, **kw): pass\n",
		"def f(a, /, b=2, *, c=3): pass\n",
		"g = lambda *, k: k\n",
	}
	for _, src := range sources {
		parseModule(t, src)
	}
}

func TestParseFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := filepath.Join(dir, "good.py")
	bad := filepath.Join(dir, "bad.py")
	require.NoError(t, os.WriteFile(good, []byte("def f(): pass\n"), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("class (:\n"), 0o644))

	p := NewParser()
	defer p.Close()

	mod, err := p.ParseFile(context.Background(), good)
	require.NoError(t, err)
	assert.Len(t, mod.Body, 1)

	_, err = p.ParseFile(context.Background(), bad)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, bad, perr.Path)
	assert.Contains(t, err.Error(), bad)

	_, err = p.ParseFile(context.Background(), filepath.Join(dir, "missing.py"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestParseCRLF(t *testing.T) {
	t.Parallel()

	mod := parseModule(t, "def f():\r\n    \"\"\"Line one.\r\n    Line two.\"\"\"\r\n")
	doc, ok := pyast.Docstring(mod.Body[0].(*pyast.FunctionDef).Body)
	require.True(t, ok)
	assert.Equal(t, "Line one.\n    Line two.", doc)
}

func TestParseExprNumbers(t *testing.T) {
	t.Parallel()

	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)

	tests := []struct {
		source string
		want   pyast.Expr
	}{
		{"42", pyast.Int(42)},
		{"1_000", pyast.Int(1000)},
		{"0x1F", pyast.Int(31)},
		{"0o17", pyast.Int(15)},
		{"0b101", pyast.Int(5)},
		{"123456789012345678901234567890", &pyast.Constant{Kind: pyast.IntConst, Int: huge}},
		{"1.5", &pyast.Constant{Kind: pyast.FloatConst, Float: 1.5}},
		{"1e3", &pyast.Constant{Kind: pyast.FloatConst, Float: 1000}},
		{"5j", pyast.Complex(0, 5)},
		{"2.5j", pyast.Complex(0, 2.5)},
		{"1e400", &pyast.Constant{Kind: pyast.FloatConst, Float: math.Inf(1)}},
		{"1e400j", pyast.Complex(0, math.Inf(1))},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.source, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, parseExpr(t, tt.source))
		})
	}
}

func TestParseExprStrings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		source string
		want   pyast.Expr
	}{
		{`"plain"`, pyast.Str("plain")},
		{`'single'`, pyast.Str("single")},
		{`"tab\there"`, pyast.Str("tab\there")},
		{`r"raw\n"`, pyast.Str(`raw\n`)},
		{`"\x41\u00e9"`, pyast.Str("Aé")},
		{`"a" "b"`, pyast.Str("ab")},
		{`b"bytes"`, &pyast.Constant{Kind: pyast.BytesConst, Str: "bytes"}},
		{`f"{x}"`, &pyast.JoinedStr{Source: `f"{x}"`}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.source, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, parseExpr(t, tt.source))
		})
	}
}

func TestParseExprStructure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		source string
		want   pyast.Expr
	}{
		{
			"a or b or c",
			&pyast.BoolOp{Op: pyast.Or, Values: []pyast.Expr{
				&pyast.Name{ID: "a"}, &pyast.Name{ID: "b"}, &pyast.Name{ID: "c"},
			}},
		},
		{
			"a not in b",
			&pyast.Compare{
				Left:        &pyast.Name{ID: "a"},
				Ops:         []pyast.CmpOp{pyast.NotIn},
				Comparators: []pyast.Expr{&pyast.Name{ID: "b"}},
			},
		},
		{
			"a < b is not c",
			&pyast.Compare{
				Left:        &pyast.Name{ID: "a"},
				Ops:         []pyast.CmpOp{pyast.Lt, pyast.IsNot},
				Comparators: []pyast.Expr{&pyast.Name{ID: "b"}, &pyast.Name{ID: "c"}},
			},
		},
		{
			"x[1:2]",
			&pyast.Subscript{
				Value: &pyast.Name{ID: "x"},
				Slice: &pyast.Slice{Lower: pyast.Int(1), Upper: pyast.Int(2)},
			},
		},
		{
			"x[::2]",
			&pyast.Subscript{
				Value: &pyast.Name{ID: "x"},
				Slice: &pyast.Slice{Step: pyast.Int(2)},
			},
		},
		{
			"Dict[str, int]",
			&pyast.Subscript{
				Value: &pyast.Name{ID: "Dict"},
				Slice: &pyast.Tuple{Elts: []pyast.Expr{&pyast.Name{ID: "str"}, &pyast.Name{ID: "int"}}},
			},
		},
		{
			"f(a, *b, c=1, **d)",
			&pyast.Call{
				Func: &pyast.Name{ID: "f"},
				Args: []pyast.Expr{&pyast.Name{ID: "a"}, &pyast.Starred{Value: &pyast.Name{ID: "b"}}},
				Keywords: []pyast.Keyword{
					{Arg: "c", Value: pyast.Int(1)},
					{Value: &pyast.Name{ID: "d"}},
				},
			},
		},
		{
			"{**a, 'k': v}",
			&pyast.Dict{
				Keys:   []pyast.Expr{nil, pyast.Str("k")},
				Values: []pyast.Expr{&pyast.Name{ID: "a"}, &pyast.Name{ID: "v"}},
			},
		},
		{
			"[x for x in y if x]",
			&pyast.ListComp{
				Elt: &pyast.Name{ID: "x"},
				Generators: []pyast.Comprehension{{
					Target: &pyast.Name{ID: "x"},
					Iter:   &pyast.Name{ID: "y"},
					Ifs:    []pyast.Expr{&pyast.Name{ID: "x"}},
				}},
			},
		},
		{
			"a if b else c",
			&pyast.IfExp{Body: &pyast.Name{ID: "a"}, Test: &pyast.Name{ID: "b"}, OrElse: &pyast.Name{ID: "c"}},
		},
		{
			"(a, b)",
			&pyast.Tuple{Elts: []pyast.Expr{&pyast.Name{ID: "a"}, &pyast.Name{ID: "b"}}},
		},
		{
			"-x ** 2",
			&pyast.UnaryOp{Op: pyast.USub, Operand: &pyast.BinOp{
				Left: &pyast.Name{ID: "x"}, Op: pyast.Pow, Right: pyast.Int(2),
			}},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.source, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, parseExpr(t, tt.source))
		})
	}
}

func TestParseExprAwaitPower(t *testing.T) {
	t.Parallel()

	x := &pyast.Name{ID: "x"}
	assert.Equal(t,
		&pyast.BinOp{Left: &pyast.Await{Value: x}, Op: pyast.Pow, Right: pyast.Int(2)},
		parseExpr(t, "await x ** 2"))
	assert.Equal(t,
		&pyast.Await{Value: &pyast.BinOp{Left: x, Op: pyast.Pow, Right: pyast.Int(2)}},
		parseExpr(t, "await (x ** 2)"))
}

func TestParseExprRejectsStatements(t *testing.T) {
	t.Parallel()

	_, err := ParseExpr(context.Background(), "x = 1")
	assert.Error(t, err)

	_, err = ParseExpr(context.Background(), "a\nb")
	assert.Error(t, err)
}

func TestUnescape(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in    string
		bytes bool
		want  string
	}{
		{`no escapes`, false, "no escapes"},
		{`\n\t\\`, false, "\n\t\\"},
		{`\101`, false, "A"},
		{`\q`, false, `\q`},
		{`\u00e9`, true, `\u00e9`},
		{`\xff`, true, "\xff"},
		{"line\\\ncont", false, "linecont"},
		{`\N{EM DASH}`, false, "\u2014"},
		{`a\N{latin small letter e with acute}b`, false, "aéb"},
		{`\N{EM DASH}`, true, `\N{EM DASH}`},
	}
	for _, tt := range tests {
		got, err := unescape(tt.in, tt.bytes)
		require.NoError(t, err, "unescape(%q)", tt.in)
		assert.Equal(t, tt.want, got, "unescape(%q)", tt.in)
	}
}

func TestUnescapeErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want error
	}{
		{`\x4`, errBadLiteral},
		{`\N{EM DASH`, errBadLiteral},
		{`\N`, errBadLiteral},
		{`\N{NO SUCH CHARACTER}`, errUnrepresentable},
		{`\ud800`, errUnrepresentable},
		{`\U0000DFFF`, errUnrepresentable},
		{`\U00110000`, errUnrepresentable},
	}
	for _, tt := range tests {
		_, err := unescape(tt.in, false)
		assert.ErrorIs(t, err, tt.want, "unescape(%q)", tt.in)
	}
}

func TestParseExprUnrepresentableString(t *testing.T) {
	t.Parallel()

	for _, source := range []string{`"\N{DASH}"`, `'\ud800'`} {
		e := parseExpr(t, source)
		u, ok := e.(*pyast.Unsupported)
		require.True(t, ok, "%s lowered to %T", source, e)
		assert.Equal(t, source, u.Source)
	}
}
