package parse

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/savente93/snakeoil/internal/lang"
)

// validate reports the first construct the grammar accepts but Python 3
// rejects: Python 2 statements, backtick repr and malformed parameter lists.
func validate(n *sitter.Node, source []byte) *Error {
	switch n.Type() {
	case "print_statement":
		return nodeError(n, source, "print statement")
	case "exec_statement":
		return nodeError(n, source, "exec statement")
	case "string":
		text := strings.TrimLeft(lang.NodeText(n, source), "rRbBuUfFtT")
		if strings.HasPrefix(text, "`") {
			return nodeError(n, source, "backtick repr")
		}
	case "parameters", "lambda_parameters":
		if err := checkParameters(n, source); err != nil {
			return err
		}
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c != nil {
			if err := validate(c, source); err != nil {
				return err
			}
		}
	}
	return nil
}

type paramKind int

const (
	paramOther paramKind = iota
	paramPlain
	paramDefault
	paramVararg
	paramKwarg
	paramBareStar
	paramTuple
)

func classifyParam(n *sitter.Node) paramKind {
	switch n.Type() {
	case "identifier":
		return paramPlain
	case "typed_parameter":
		if kids := namedChildren(n); len(kids) > 0 {
			switch kids[0].Type() {
			case "list_splat_pattern":
				return paramVararg
			case "dictionary_splat_pattern":
				return paramKwarg
			}
		}
		return paramPlain
	case "default_parameter", "typed_default_parameter":
		return paramDefault
	case "list_splat_pattern":
		return paramVararg
	case "dictionary_splat_pattern":
		return paramKwarg
	case "keyword_separator":
		return paramBareStar
	case "tuple_pattern":
		return paramTuple
	}
	return paramOther
}

// checkParameters enforces parameter order: no positional parameter without
// a default after one with a default, and a bare * followed by at least one
// keyword-only parameter.
func checkParameters(n *sitter.Node, source []byte) *Error {
	var (
		star      bool
		bare      *sitter.Node
		defaulted bool
	)
	for _, c := range namedChildren(n) {
		switch classifyParam(c) {
		case paramPlain:
			if star {
				bare = nil
			} else if defaulted {
				return nodeError(c, source, "non-default argument follows default argument")
			}
		case paramDefault:
			if star {
				bare = nil
			} else {
				defaulted = true
			}
		case paramVararg:
			star = true
		case paramBareStar:
			star = true
			bare = c
		case paramKwarg:
			if bare != nil {
				return nodeError(bare, source, "named arguments must follow bare *")
			}
		case paramTuple:
			return nodeError(c, source, "tuple parameter unpacking")
		}
	}
	if bare != nil {
		return nodeError(bare, source, "named arguments must follow bare *")
	}
	return nil
}
