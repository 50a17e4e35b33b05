// Package pyast defines a typed Python syntax tree covering the subset of the
// language needed to document modules: statements that carry documentation and
// the full expression grammar used in annotations and default values.
package pyast

import "math/big"

// Expr is any Python expression node.
type Expr interface {
	exprNode()
}

// Stmt is any Python statement node.
type Stmt interface {
	stmtNode()
}

// Module is a parsed source file.
type Module struct {
	Body []Stmt
}

// FunctionDef is a def or async def statement.
type FunctionDef struct {
	Name       string
	Args       Arguments
	Body       []Stmt
	Returns    Expr // nil when unannotated
	TypeParams []Expr
	Decorators []Expr
	IsAsync    bool
	Line       int
}

// ClassDef is a class statement.
type ClassDef struct {
	Name       string
	Bases      []Expr
	Keywords   []Keyword
	Body       []Stmt
	TypeParams []Expr
	Decorators []Expr
	Line       int
}

// ExprStmt is an expression used as a statement.
type ExprStmt struct {
	Value Expr
}

// Assign covers plain, chained and annotated assignments.
// Value is nil for a bare annotation (x: int).
type Assign struct {
	Targets    []Expr
	Value      Expr
	Annotation Expr
	Line       int
}

// Other is any statement the documentation model does not look into.
type Other struct {
	Kind string
}

func (*FunctionDef) stmtNode() {}
func (*ClassDef) stmtNode()    {}
func (*ExprStmt) stmtNode()    {}
func (*Assign) stmtNode()      {}
func (*Other) stmtNode()       {}

// Arg is a single parameter.
type Arg struct {
	Name       string
	Annotation Expr // nil when absent
	Default    Expr // nil when absent
}

// Arguments is a parameter list. Vararg and Kwarg are nil when absent.
type Arguments struct {
	PosOnly []Arg
	Args    []Arg
	Vararg  *Arg
	KwOnly  []Arg
	Kwarg   *Arg
}

// Empty reports whether the list declares no parameters at all.
func (a *Arguments) Empty() bool {
	return len(a.PosOnly) == 0 && len(a.Args) == 0 && a.Vararg == nil &&
		len(a.KwOnly) == 0 && a.Kwarg == nil
}

// Keyword is a keyword argument in a call; Arg is "" for **value.
type Keyword struct {
	Arg   string
	Value Expr
}

// Comprehension is one "for target in iter [if cond]..." clause.
type Comprehension struct {
	Target  Expr
	Iter    Expr
	Ifs     []Expr
	IsAsync bool
}

// BoolOperator is "and" or "or".
type BoolOperator string

const (
	And BoolOperator = "and"
	Or  BoolOperator = "or"
)

// Operator is a binary arithmetic or bitwise operator.
type Operator string

const (
	Add      Operator = "+"
	Sub      Operator = "-"
	Mult     Operator = "*"
	MatMult  Operator = "@"
	Div      Operator = "/"
	Mod      Operator = "%"
	Pow      Operator = "**"
	LShift   Operator = "<<"
	RShift   Operator = ">>"
	BitOr    Operator = "|"
	BitXor   Operator = "^"
	BitAnd   Operator = "&"
	FloorDiv Operator = "//"
)

// UnaryOperator is a prefix operator.
type UnaryOperator string

const (
	Invert UnaryOperator = "~"
	Not    UnaryOperator = "not"
	UAdd   UnaryOperator = "+"
	USub   UnaryOperator = "-"
)

// CmpOp is a comparison operator.
type CmpOp string

const (
	Eq    CmpOp = "=="
	NotEq CmpOp = "!="
	Lt    CmpOp = "<"
	LtE   CmpOp = "<="
	Gt    CmpOp = ">"
	GtE   CmpOp = ">="
	Is    CmpOp = "is"
	IsNot CmpOp = "is not"
	In    CmpOp = "in"
	NotIn CmpOp = "not in"
)

// ConstKind selects the populated field of a Constant.
type ConstKind int

const (
	NoneConst ConstKind = iota
	BoolConst
	StrConst
	BytesConst
	IntConst
	FloatConst
	ComplexConst
	EllipsisConst
)

// Constant is a literal value.
type Constant struct {
	Kind  ConstKind
	Bool  bool
	Str   string // str and bytes payload
	Int   *big.Int
	Float float64
	Real  float64
	Imag  float64
}

type (
	Name struct {
		ID string
	}
	BoolOp struct {
		Op     BoolOperator
		Values []Expr
	}
	NamedExpr struct {
		Target Expr
		Value  Expr
	}
	BinOp struct {
		Left  Expr
		Op    Operator
		Right Expr
	}
	UnaryOp struct {
		Op      UnaryOperator
		Operand Expr
	}
	Lambda struct {
		Args Arguments
		Body Expr
	}
	IfExp struct {
		Test   Expr
		Body   Expr
		OrElse Expr
	}
	// Dict keys are nil for **value entries.
	Dict struct {
		Keys   []Expr
		Values []Expr
	}
	Set struct {
		Elts []Expr
	}
	ListComp struct {
		Elt        Expr
		Generators []Comprehension
	}
	SetComp struct {
		Elt        Expr
		Generators []Comprehension
	}
	DictComp struct {
		Key        Expr
		Value      Expr
		Generators []Comprehension
	}
	GeneratorExp struct {
		Elt        Expr
		Generators []Comprehension
	}
	Await struct {
		Value Expr
	}
	// Yield Value is nil for a bare yield.
	Yield struct {
		Value Expr
	}
	YieldFrom struct {
		Value Expr
	}
	Compare struct {
		Left        Expr
		Ops         []CmpOp
		Comparators []Expr
	}
	Call struct {
		Func     Expr
		Args     []Expr
		Keywords []Keyword
	}
	// JoinedStr is an f-string; Source keeps its literal text.
	JoinedStr struct {
		Source string
	}
	Attribute struct {
		Value Expr
		Attr  string
	}
	Subscript struct {
		Value Expr
		Slice Expr
	}
	Starred struct {
		Value Expr
	}
	List struct {
		Elts []Expr
	}
	Tuple struct {
		Elts []Expr
	}
	// Slice bounds are nil when omitted.
	Slice struct {
		Lower Expr
		Upper Expr
		Step  Expr
	}
	// Unsupported is a syntax node with no expression equivalent here.
	Unsupported struct {
		Kind   string
		Source string
	}
)

func (*Name) exprNode()         {}
func (*Constant) exprNode()     {}
func (*BoolOp) exprNode()       {}
func (*NamedExpr) exprNode()    {}
func (*BinOp) exprNode()        {}
func (*UnaryOp) exprNode()      {}
func (*Lambda) exprNode()       {}
func (*IfExp) exprNode()        {}
func (*Dict) exprNode()         {}
func (*Set) exprNode()          {}
func (*ListComp) exprNode()     {}
func (*SetComp) exprNode()      {}
func (*DictComp) exprNode()     {}
func (*GeneratorExp) exprNode() {}
func (*Await) exprNode()        {}
func (*Yield) exprNode()        {}
func (*YieldFrom) exprNode()    {}
func (*Compare) exprNode()      {}
func (*Call) exprNode()         {}
func (*JoinedStr) exprNode()    {}
func (*Attribute) exprNode()    {}
func (*Subscript) exprNode()    {}
func (*Starred) exprNode()      {}
func (*List) exprNode()         {}
func (*Tuple) exprNode()        {}
func (*Slice) exprNode()        {}
func (*Unsupported) exprNode()  {}

// Str returns a str constant.
func Str(s string) *Constant {
	return &Constant{Kind: StrConst, Str: s}
}

// Int returns an int constant.
func Int(v int64) *Constant {
	return &Constant{Kind: IntConst, Int: big.NewInt(v)}
}

// Complex returns a complex constant.
func Complex(real, imag float64) *Constant {
	return &Constant{Kind: ComplexConst, Real: real, Imag: imag}
}

// StringValue returns the value of e if it is a str constant.
func StringValue(e Expr) (string, bool) {
	c, ok := e.(*Constant)
	if !ok || c.Kind != StrConst {
		return "", false
	}
	return c.Str, true
}

// Docstring returns the docstring of a body: the value of the first statement
// when that statement is a bare string literal.
func Docstring(body []Stmt) (string, bool) {
	if len(body) == 0 {
		return "", false
	}
	es, ok := body[0].(*ExprStmt)
	if !ok {
		return "", false
	}
	return StringValue(es.Value)
}
