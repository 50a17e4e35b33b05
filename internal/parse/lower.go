package parse

import (
	"errors"
	"math/big"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/savente93/snakeoil/internal/lang"
	"github.com/savente93/snakeoil/internal/pyast"
)

// lowerer converts tree-sitter-python nodes into pyast nodes.
type lowerer struct {
	src []byte
}

func (l *lowerer) text(n *sitter.Node) string {
	return lang.NodeText(n, l.src)
}

func (l *lowerer) unsupported(n *sitter.Node) *pyast.Unsupported {
	return &pyast.Unsupported{Kind: n.Type(), Source: l.text(n)}
}

// namedChildren returns the named children of n, skipping comments.
func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	var out []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c == nil || c.Type() == "comment" {
			continue
		}
		out = append(out, c)
	}
	return out
}

func line(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

// --- statements ---

func (l *lowerer) block(n *sitter.Node) []pyast.Stmt {
	var body []pyast.Stmt
	for _, c := range namedChildren(n) {
		body = append(body, l.stmt(c))
	}
	return body
}

func (l *lowerer) stmt(n *sitter.Node) pyast.Stmt {
	switch n.Type() {
	case "function_definition":
		return l.function(n, nil)
	case "class_definition":
		return l.class(n, nil)
	case "decorated_definition":
		return l.decorated(n)
	case "expression_statement":
		return l.exprStatement(n)
	default:
		return &pyast.Other{Kind: n.Type()}
	}
}

func (l *lowerer) decorated(n *sitter.Node) pyast.Stmt {
	var decorators []pyast.Expr
	for _, c := range namedChildren(n) {
		if c.Type() != "decorator" {
			continue
		}
		if kids := namedChildren(c); len(kids) > 0 {
			decorators = append(decorators, l.expr(kids[0]))
		}
	}
	def := n.ChildByFieldName("definition")
	if def == nil {
		return &pyast.Other{Kind: n.Type()}
	}
	switch def.Type() {
	case "function_definition":
		return l.function(def, decorators)
	case "class_definition":
		return l.class(def, decorators)
	default:
		return &pyast.Other{Kind: def.Type()}
	}
}

func (l *lowerer) function(n *sitter.Node, decorators []pyast.Expr) *pyast.FunctionDef {
	fn := &pyast.FunctionDef{
		Decorators: decorators,
		Line:       line(n),
	}
	if name := n.ChildByFieldName("name"); name != nil {
		fn.Name = l.text(name)
	}
	if first := n.Child(0); first != nil && first.Type() == "async" {
		fn.IsAsync = true
	}
	if params := n.ChildByFieldName("parameters"); params != nil {
		fn.Args = l.parameters(params)
	}
	if ret := n.ChildByFieldName("return_type"); ret != nil {
		fn.Returns = l.typeExpr(ret)
	}
	fn.TypeParams = l.typeParams(n.ChildByFieldName("type_parameters"))
	fn.Body = l.block(n.ChildByFieldName("body"))
	return fn
}

func (l *lowerer) class(n *sitter.Node, decorators []pyast.Expr) *pyast.ClassDef {
	cls := &pyast.ClassDef{
		Decorators: decorators,
		Line:       line(n),
	}
	if name := n.ChildByFieldName("name"); name != nil {
		cls.Name = l.text(name)
	}
	if supers := n.ChildByFieldName("superclasses"); supers != nil {
		cls.Bases, cls.Keywords = l.callArgs(supers)
	}
	cls.TypeParams = l.typeParams(n.ChildByFieldName("type_parameters"))
	cls.Body = l.block(n.ChildByFieldName("body"))
	return cls
}

func (l *lowerer) typeParams(n *sitter.Node) []pyast.Expr {
	var params []pyast.Expr
	for _, c := range namedChildren(n) {
		params = append(params, l.typeExpr(c))
	}
	return params
}

func (l *lowerer) exprStatement(n *sitter.Node) pyast.Stmt {
	kids := namedChildren(n)
	switch len(kids) {
	case 0:
		return &pyast.Other{Kind: n.Type()}
	case 1:
		switch kids[0].Type() {
		case "assignment":
			return l.assignment(kids[0])
		case "augmented_assignment":
			return &pyast.Other{Kind: kids[0].Type()}
		}
		return &pyast.ExprStmt{Value: l.expr(kids[0])}
	default:
		return &pyast.ExprStmt{Value: &pyast.Tuple{Elts: l.exprs(kids)}}
	}
}

// assignment flattens chained assignments (a = b = v) into one Assign.
func (l *lowerer) assignment(n *sitter.Node) *pyast.Assign {
	as := &pyast.Assign{Line: line(n)}
	cur := n
	for {
		if left := cur.ChildByFieldName("left"); left != nil {
			as.Targets = append(as.Targets, l.expr(left))
		}
		if typ := cur.ChildByFieldName("type"); typ != nil && as.Annotation == nil {
			as.Annotation = l.typeExpr(typ)
		}
		right := cur.ChildByFieldName("right")
		if right == nil {
			return as
		}
		if right.Type() == "assignment" {
			cur = right
			continue
		}
		as.Value = l.expr(right)
		return as
	}
}

// --- parameters ---

func (l *lowerer) parameters(n *sitter.Node) pyast.Arguments {
	var args pyast.Arguments
	seenStar := false

	add := func(a pyast.Arg) {
		if seenStar {
			args.KwOnly = append(args.KwOnly, a)
		} else {
			args.Args = append(args.Args, a)
		}
	}

	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "identifier":
			add(pyast.Arg{Name: l.text(c)})
		case "typed_parameter":
			target := namedChildren(c)
			if len(target) == 0 {
				continue
			}
			ann := l.typeExpr(c.ChildByFieldName("type"))
			switch target[0].Type() {
			case "list_splat_pattern":
				args.Vararg = &pyast.Arg{Name: l.splatName(target[0]), Annotation: ann}
				seenStar = true
			case "dictionary_splat_pattern":
				args.Kwarg = &pyast.Arg{Name: l.splatName(target[0]), Annotation: ann}
			default:
				add(pyast.Arg{Name: l.text(target[0]), Annotation: ann})
			}
		case "default_parameter":
			add(pyast.Arg{
				Name:    l.text(c.ChildByFieldName("name")),
				Default: l.expr(c.ChildByFieldName("value")),
			})
		case "typed_default_parameter":
			add(pyast.Arg{
				Name:       l.text(c.ChildByFieldName("name")),
				Annotation: l.typeExpr(c.ChildByFieldName("type")),
				Default:    l.expr(c.ChildByFieldName("value")),
			})
		case "list_splat_pattern":
			args.Vararg = &pyast.Arg{Name: l.splatName(c)}
			seenStar = true
		case "dictionary_splat_pattern":
			args.Kwarg = &pyast.Arg{Name: l.splatName(c)}
		case "keyword_separator":
			seenStar = true
		case "positional_separator":
			args.PosOnly = append(args.PosOnly, args.Args...)
			args.Args = nil
		}
	}
	return args
}

func (l *lowerer) splatName(n *sitter.Node) string {
	if kids := namedChildren(n); len(kids) > 0 {
		return l.text(kids[0])
	}
	return strings.TrimLeft(l.text(n), "*")
}

// --- type annotations ---

func (l *lowerer) typeExpr(n *sitter.Node) pyast.Expr {
	if n == nil {
		return nil
	}
	if n.Type() != "type" {
		return l.typeInner(n)
	}
	kids := namedChildren(n)
	if len(kids) != 1 {
		return l.unsupported(n)
	}
	return l.typeInner(kids[0])
}

func (l *lowerer) typeInner(n *sitter.Node) pyast.Expr {
	kids := namedChildren(n)
	switch n.Type() {
	case "type":
		return l.typeExpr(n)
	case "generic_type":
		if len(kids) != 2 {
			return l.unsupported(n)
		}
		params := l.typeParams(kids[1])
		var slice pyast.Expr
		if len(params) == 1 {
			slice = params[0]
		} else {
			slice = &pyast.Tuple{Elts: params}
		}
		return &pyast.Subscript{Value: l.typeInner(kids[0]), Slice: slice}
	case "union_type":
		if len(kids) != 2 {
			return l.unsupported(n)
		}
		return &pyast.BinOp{Left: l.typeExpr(kids[0]), Op: pyast.BitOr, Right: l.typeExpr(kids[1])}
	case "member_type":
		if len(kids) != 2 {
			return l.unsupported(n)
		}
		return &pyast.Attribute{Value: l.typeExpr(kids[0]), Attr: l.text(kids[1])}
	case "splat_type":
		if first := n.Child(0); first != nil && first.Type() == "*" && len(kids) == 1 {
			return &pyast.Starred{Value: l.expr(kids[0])}
		}
		return l.unsupported(n)
	case "constrained_type":
		return l.unsupported(n)
	default:
		return l.expr(n)
	}
}

// --- expressions ---

func (l *lowerer) exprs(nodes []*sitter.Node) []pyast.Expr {
	out := make([]pyast.Expr, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, l.expr(n))
	}
	return out
}

func (l *lowerer) expr(n *sitter.Node) pyast.Expr {
	if n == nil {
		return nil
	}
	kids := namedChildren(n)

	switch n.Type() {
	case "identifier", "keyword_identifier":
		return &pyast.Name{ID: l.text(n)}
	case "true":
		return &pyast.Constant{Kind: pyast.BoolConst, Bool: true}
	case "false":
		return &pyast.Constant{Kind: pyast.BoolConst, Bool: false}
	case "none":
		return &pyast.Constant{Kind: pyast.NoneConst}
	case "ellipsis":
		return &pyast.Constant{Kind: pyast.EllipsisConst}
	case "integer":
		return l.integer(n)
	case "float":
		return l.float(n)
	case "string":
		return l.str(n)
	case "concatenated_string":
		return l.concatenated(n)

	case "attribute":
		return &pyast.Attribute{
			Value: l.expr(n.ChildByFieldName("object")),
			Attr:  l.text(n.ChildByFieldName("attribute")),
		}
	case "subscript":
		return l.subscript(n, kids)
	case "slice":
		return l.slice(n)
	case "call":
		return l.call(n)

	case "binary_operator":
		return &pyast.BinOp{
			Left:  l.expr(n.ChildByFieldName("left")),
			Op:    pyast.Operator(l.text(n.ChildByFieldName("operator"))),
			Right: l.expr(n.ChildByFieldName("right")),
		}
	case "unary_operator":
		return &pyast.UnaryOp{
			Op:      pyast.UnaryOperator(l.text(n.ChildByFieldName("operator"))),
			Operand: l.expr(n.ChildByFieldName("argument")),
		}
	case "not_operator":
		return &pyast.UnaryOp{Op: pyast.Not, Operand: l.expr(n.ChildByFieldName("argument"))}
	case "boolean_operator":
		return l.boolean(n)
	case "comparison_operator":
		return l.comparison(n)
	case "conditional_expression":
		if len(kids) != 3 {
			return l.unsupported(n)
		}
		return &pyast.IfExp{Body: l.expr(kids[0]), Test: l.expr(kids[1]), OrElse: l.expr(kids[2])}
	case "named_expression":
		return &pyast.NamedExpr{
			Target: l.expr(n.ChildByFieldName("name")),
			Value:  l.expr(n.ChildByFieldName("value")),
		}
	case "lambda":
		lam := &pyast.Lambda{Body: l.expr(n.ChildByFieldName("body"))}
		if params := n.ChildByFieldName("parameters"); params != nil {
			lam.Args = l.parameters(params)
		}
		return lam
	case "await":
		if len(kids) != 1 {
			return l.unsupported(n)
		}
		return l.await(kids[0])
	case "yield":
		return l.yield(n, kids)

	case "parenthesized_expression":
		if len(kids) != 1 {
			return l.unsupported(n)
		}
		return l.expr(kids[0])
	case "list", "list_pattern":
		return &pyast.List{Elts: l.exprs(kids)}
	case "tuple", "expression_list", "pattern_list", "tuple_pattern":
		return &pyast.Tuple{Elts: l.exprs(kids)}
	case "set":
		return &pyast.Set{Elts: l.exprs(kids)}
	case "dictionary":
		return l.dictionary(n, kids)
	case "list_comprehension":
		return &pyast.ListComp{Elt: l.expr(n.ChildByFieldName("body")), Generators: l.generators(kids)}
	case "set_comprehension":
		return &pyast.SetComp{Elt: l.expr(n.ChildByFieldName("body")), Generators: l.generators(kids)}
	case "generator_expression":
		return &pyast.GeneratorExp{Elt: l.expr(n.ChildByFieldName("body")), Generators: l.generators(kids)}
	case "dictionary_comprehension":
		body := n.ChildByFieldName("body")
		if body == nil || body.Type() != "pair" {
			return l.unsupported(n)
		}
		return &pyast.DictComp{
			Key:        l.expr(body.ChildByFieldName("key")),
			Value:      l.expr(body.ChildByFieldName("value")),
			Generators: l.generators(kids),
		}
	case "list_splat", "list_splat_pattern":
		if len(kids) != 1 {
			return l.unsupported(n)
		}
		return &pyast.Starred{Value: l.expr(kids[0])}

	case "type", "generic_type", "union_type", "member_type":
		return l.typeExpr(n)
	default:
		return l.unsupported(n)
	}
}

// await lowers the operand of an await node. The grammar binds await looser
// than **, while Python binds it tighter: await x ** 2 is (await x) ** 2.
func (l *lowerer) await(operand *sitter.Node) pyast.Expr {
	if operand.Type() == "binary_operator" {
		if op := operand.ChildByFieldName("operator"); op != nil && l.text(op) == "**" {
			return &pyast.BinOp{
				Left:  l.await(operand.ChildByFieldName("left")),
				Op:    pyast.Pow,
				Right: l.expr(operand.ChildByFieldName("right")),
			}
		}
	}
	return &pyast.Await{Value: l.expr(operand)}
}

func (l *lowerer) boolean(n *sitter.Node) pyast.Expr {
	op := pyast.BoolOperator(l.text(n.ChildByFieldName("operator")))
	left := l.expr(n.ChildByFieldName("left"))
	right := l.expr(n.ChildByFieldName("right"))

	// The grammar is left-associative, so a or b or c nests on the left.
	if inner, ok := left.(*pyast.BoolOp); ok && inner.Op == op && n.ChildByFieldName("left").Type() == "boolean_operator" {
		inner.Values = append(inner.Values, right)
		return inner
	}
	return &pyast.BoolOp{Op: op, Values: []pyast.Expr{left, right}}
}

func (l *lowerer) comparison(n *sitter.Node) pyast.Expr {
	cmp := &pyast.Compare{}
	var pending string
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil || c.Type() == "comment" {
			continue
		}
		if c.IsNamed() {
			operand := l.expr(c)
			if cmp.Left == nil {
				cmp.Left = operand
				continue
			}
			cmp.Ops = append(cmp.Ops, compareOp(pending))
			cmp.Comparators = append(cmp.Comparators, operand)
			pending = ""
			continue
		}
		tok := strings.Join(strings.Fields(l.text(c)), " ")
		if pending == "" {
			pending = tok
		} else {
			pending += " " + tok
		}
	}
	if cmp.Left == nil || len(cmp.Ops) == 0 {
		return l.unsupported(n)
	}
	return cmp
}

func compareOp(tok string) pyast.CmpOp {
	if tok == "<>" {
		return pyast.NotEq
	}
	return pyast.CmpOp(tok)
}

func (l *lowerer) yield(n *sitter.Node, kids []*sitter.Node) pyast.Expr {
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c != nil && c.Type() == "from" {
			if len(kids) != 1 {
				return l.unsupported(n)
			}
			return &pyast.YieldFrom{Value: l.expr(kids[0])}
		}
	}
	switch len(kids) {
	case 0:
		return &pyast.Yield{}
	case 1:
		return &pyast.Yield{Value: l.expr(kids[0])}
	default:
		return &pyast.Yield{Value: &pyast.Tuple{Elts: l.exprs(kids)}}
	}
}

func (l *lowerer) dictionary(n *sitter.Node, kids []*sitter.Node) pyast.Expr {
	d := &pyast.Dict{}
	for _, c := range kids {
		switch c.Type() {
		case "pair":
			d.Keys = append(d.Keys, l.expr(c.ChildByFieldName("key")))
			d.Values = append(d.Values, l.expr(c.ChildByFieldName("value")))
		case "dictionary_splat":
			inner := namedChildren(c)
			if len(inner) != 1 {
				return l.unsupported(n)
			}
			d.Keys = append(d.Keys, nil)
			d.Values = append(d.Values, l.expr(inner[0]))
		default:
			return l.unsupported(n)
		}
	}
	return d
}

func (l *lowerer) generators(kids []*sitter.Node) []pyast.Comprehension {
	var gens []pyast.Comprehension
	for _, c := range kids {
		switch c.Type() {
		case "for_in_clause":
			parts := namedChildren(c)
			if len(parts) < 2 {
				continue
			}
			gen := pyast.Comprehension{Target: l.expr(parts[0])}
			if first := c.Child(0); first != nil && first.Type() == "async" {
				gen.IsAsync = true
			}
			if rest := parts[1:]; len(rest) == 1 {
				gen.Iter = l.expr(rest[0])
			} else {
				gen.Iter = &pyast.Tuple{Elts: l.exprs(rest)}
			}
			gens = append(gens, gen)
		case "if_clause":
			cond := namedChildren(c)
			if len(cond) != 1 || len(gens) == 0 {
				continue
			}
			last := &gens[len(gens)-1]
			last.Ifs = append(last.Ifs, l.expr(cond[0]))
		}
	}
	return gens
}

func (l *lowerer) call(n *sitter.Node) pyast.Expr {
	c := &pyast.Call{Func: l.expr(n.ChildByFieldName("function"))}
	args := n.ChildByFieldName("arguments")
	if args == nil {
		return c
	}
	if args.Type() == "generator_expression" {
		c.Args = []pyast.Expr{l.expr(args)}
		return c
	}
	c.Args, c.Keywords = l.callArgs(args)
	return c
}

func (l *lowerer) callArgs(n *sitter.Node) ([]pyast.Expr, []pyast.Keyword) {
	var (
		args     []pyast.Expr
		keywords []pyast.Keyword
	)
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "keyword_argument":
			keywords = append(keywords, pyast.Keyword{
				Arg:   l.text(c.ChildByFieldName("name")),
				Value: l.expr(c.ChildByFieldName("value")),
			})
		case "dictionary_splat":
			if inner := namedChildren(c); len(inner) == 1 {
				keywords = append(keywords, pyast.Keyword{Value: l.expr(inner[0])})
			}
		default:
			args = append(args, l.expr(c))
		}
	}
	return args, keywords
}

func (l *lowerer) subscript(n *sitter.Node, kids []*sitter.Node) pyast.Expr {
	if len(kids) < 2 {
		return l.unsupported(n)
	}
	sub := &pyast.Subscript{Value: l.expr(kids[0])}
	idx := kids[1:]
	if len(idx) == 1 && !trailingComma(n) {
		sub.Slice = l.expr(idx[0])
	} else {
		sub.Slice = &pyast.Tuple{Elts: l.exprs(idx)}
	}
	return sub
}

// trailingComma reports whether the last token before the closing bracket is a comma.
func trailingComma(n *sitter.Node) bool {
	count := int(n.ChildCount())
	if count < 2 {
		return false
	}
	last := n.Child(count - 1)
	if last == nil || last.IsNamed() {
		return false
	}
	prev := n.Child(count - 2)
	return prev != nil && prev.Type() == ","
}

func (l *lowerer) slice(n *sitter.Node) pyast.Expr {
	var parts [3]pyast.Expr
	section := 0
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil || c.Type() == "comment" {
			continue
		}
		if c.Type() == ":" {
			section++
			continue
		}
		if c.IsNamed() && section < len(parts) {
			parts[section] = l.expr(c)
		}
	}
	return &pyast.Slice{Lower: parts[0], Upper: parts[1], Step: parts[2]}
}

// --- literals ---

func normalizeNumber(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "_", ""))
}

// parseFloat accepts literals that overflow to infinity, as Python does.
func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return f, true
}

func (l *lowerer) imaginary(n *sitter.Node, s string) pyast.Expr {
	f, ok := parseFloat(strings.TrimSuffix(s, "j"))
	if !ok {
		return l.unsupported(n)
	}
	return pyast.Complex(0, f)
}

func (l *lowerer) integer(n *sitter.Node) pyast.Expr {
	s := normalizeNumber(l.text(n))
	if strings.HasSuffix(s, "j") {
		return l.imaginary(n, s)
	}
	s = strings.TrimSuffix(s, "l")
	v, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return l.unsupported(n)
	}
	return &pyast.Constant{Kind: pyast.IntConst, Int: v}
}

func (l *lowerer) float(n *sitter.Node) pyast.Expr {
	s := normalizeNumber(l.text(n))
	if strings.HasSuffix(s, "j") {
		return l.imaginary(n, s)
	}
	f, ok := parseFloat(s)
	if !ok {
		return l.unsupported(n)
	}
	return &pyast.Constant{Kind: pyast.FloatConst, Float: f}
}

func (l *lowerer) str(n *sitter.Node) pyast.Expr {
	lit, err := decodeString(l.text(n))
	if err != nil {
		return l.unsupported(n)
	}
	switch {
	case lit.formatted:
		return &pyast.JoinedStr{Source: l.text(n)}
	case lit.bytes:
		return &pyast.Constant{Kind: pyast.BytesConst, Str: lit.value}
	default:
		return pyast.Str(lit.value)
	}
}

func (l *lowerer) concatenated(n *sitter.Node) pyast.Expr {
	var (
		b                strings.Builder
		sawStr, sawBytes bool
	)
	for _, c := range namedChildren(n) {
		if c.Type() != "string" {
			return l.unsupported(n)
		}
		lit, err := decodeString(l.text(c))
		if err != nil {
			return l.unsupported(n)
		}
		if lit.formatted {
			return &pyast.JoinedStr{Source: l.text(n)}
		}
		if lit.bytes {
			sawBytes = true
		} else {
			sawStr = true
		}
		b.WriteString(lit.value)
	}
	if sawStr && sawBytes {
		return l.unsupported(n)
	}
	if sawBytes {
		return &pyast.Constant{Kind: pyast.BytesConst, Str: b.String()}
	}
	return pyast.Str(b.String())
}
