// Package parse turns Python source into the typed syntax tree of package
// pyast, using tree-sitter for the concrete syntax.
package parse

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/savente93/snakeoil/internal/lang"
	"github.com/savente93/snakeoil/internal/pyast"
)

// ErrSyntax is matched by every *Error.
var ErrSyntax = errors.New("syntax error")

// Error is a syntax error in a source file.
type Error struct {
	Path    string
	Line    int
	Column  int
	Snippet string
	// Reason describes errors the grammar accepts but Python 3 rejects.
	Reason string
}

func (e *Error) Error() string {
	loc := fmt.Sprintf("%d:%d", e.Line, e.Column)
	if e.Path != "" {
		loc = e.Path + ":" + loc
	}
	msg := "syntax error"
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Snippet == "" {
		return loc + ": " + msg
	}
	return fmt.Sprintf("%s: %s near %q", loc, msg, e.Snippet)
}

func (e *Error) Unwrap() error {
	return ErrSyntax
}

const maxSnippet = 40

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parser parses Python modules. It is not safe for concurrent use.
type Parser struct {
	inner *sitter.Parser
}

// NewParser creates a Parser for the Python grammar.
func NewParser() *Parser {
	return &Parser{inner: lang.Python.NewParser()}
}

// Close releases the underlying tree-sitter parser.
func (p *Parser) Close() {
	p.inner.Close()
}

// Parse parses a whole module. Source containing syntax errors yields an *Error.
func (p *Parser) Parse(ctx context.Context, source []byte) (*pyast.Module, error) {
	source = bytes.TrimPrefix(source, utf8BOM)
	source = bytes.ReplaceAll(source, []byte("\r\n"), []byte("\n"))

	tree, err := p.inner.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		n := firstError(root)
		if n == nil {
			n = root
		}
		return nil, nodeError(n, source, "")
	}
	if err := validate(root, source); err != nil {
		return nil, err
	}

	l := &lowerer{src: source}
	return &pyast.Module{Body: l.block(root)}, nil
}

// ParseFile reads and parses the module at path. Read failures are returned
// as they are; syntax errors carry the path.
func (p *Parser) ParseFile(ctx context.Context, path string) (*pyast.Module, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	mod, err := p.Parse(ctx, source)
	var perr *Error
	if errors.As(err, &perr) {
		perr.Path = path
	}
	return mod, err
}

// ParseExpr parses source consisting of exactly one expression.
func ParseExpr(ctx context.Context, source string) (pyast.Expr, error) {
	p := NewParser()
	defer p.Close()

	mod, err := p.Parse(ctx, []byte(source))
	if err != nil {
		return nil, err
	}
	if len(mod.Body) != 1 {
		return nil, fmt.Errorf("expected one expression, got %d statements", len(mod.Body))
	}
	es, ok := mod.Body[0].(*pyast.ExprStmt)
	if !ok {
		return nil, fmt.Errorf("expected an expression statement, got %T", mod.Body[0])
	}
	return es.Value, nil
}

func nodeError(n *sitter.Node, source []byte, reason string) *Error {
	snippet := lang.NodeText(n, source)
	if i := strings.IndexByte(snippet, '\n'); i >= 0 {
		snippet = snippet[:i]
	}
	if len(snippet) > maxSnippet {
		snippet = snippet[:maxSnippet]
	}
	return &Error{
		Line:    int(n.StartPoint().Row) + 1,
		Column:  int(n.StartPoint().Column) + 1,
		Snippet: strings.TrimSpace(snippet),
		Reason:  reason,
	}
}

func firstError(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil || !(child.HasError() || child.IsMissing()) {
			continue
		}
		if found := firstError(child); found != nil {
			return found
		}
	}
	return nil
}
