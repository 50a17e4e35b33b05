// Package render turns documentation records into output pages.
package render

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/savente93/snakeoil/internal/lang"
	"github.com/savente93/snakeoil/internal/model"
	"github.com/savente93/snakeoil/internal/pyast"
	"github.com/savente93/snakeoil/internal/unparse"
)

// ErrUnknownFormat is returned by ForFormat for an unrecognized format name.
var ErrUnknownFormat = errors.New("unknown output format")

// Renderer formats the building blocks of a page for one output flavor.
type Renderer interface {
	// FrontMatter renders the page preamble; title may be empty.
	FrontMatter(title string) string
	Header(content string, level int) string
	// Text escapes a literal name for the flavor's markup.
	Text(s string) string
	Signature(sig string) string
	ExternalRef(text, url string) string
	// InternalRef links from one page to another. Both paths are output
	// paths relative to the output root, using forward slashes.
	InternalRef(text, from, to string) string
	Extension() string
	IndexFile() string
	// Finalize post-processes a fully rendered page.
	Finalize(title string, doc []byte) ([]byte, error)
}

// Options configures renderer construction.
type Options struct {
	UseShortcodes bool
}

// Formats lists the names accepted by ForFormat.
var Formats = []string{"markdown", "zola", "hugo", "html"}

// ForFormat returns the renderer for a format name.
func ForFormat(format string, opts Options) (Renderer, error) {
	switch strings.ToLower(format) {
	case "markdown", "md":
		return Markdown{}, nil
	case "zola":
		return Zola{UseShortcodes: opts.UseShortcodes}, nil
	case "hugo":
		return Hugo{UseShortcodes: opts.UseShortcodes}, nil
	case "html":
		return HTML{}, nil
	default:
		return nil, fmt.Errorf("%q: %w", format, ErrUnknownFormat)
	}
}

// Resolver maps a dotted Python name to an external documentation URL.
type Resolver interface {
	Resolve(name string) (string, bool)
}

// Page carries per-page context for Module.
type Page struct {
	// Path is the page's output path relative to the output root.
	Path string
	// Resolver links class bases to external documentation; may be nil.
	Resolver Resolver
}

// Module renders a module page. Signatures that cannot be unparsed fail the
// whole page.
func Module(r Renderer, doc model.ModuleDocumentation, page Page) (string, error) {
	var b strings.Builder
	qualifier := doc.QualifiedName()

	b.WriteString(r.FrontMatter(qualifier))
	if doc.Docstring != nil {
		b.WriteString("\n" + strings.TrimSpace(*doc.Docstring) + "\n")
	}

	for _, fn := range doc.Functions {
		if err := function(&b, r, fn, qualify(qualifier, fn.Name), 2); err != nil {
			return "", err
		}
	}

	for _, cls := range doc.Classes {
		name := qualify(qualifier, cls.Name)
		b.WriteString("\n" + r.Header(name, 2))
		if err := bases(&b, r, cls.Bases, page.Resolver); err != nil {
			return "", fmt.Errorf("class %s: %w", name, err)
		}
		if cls.Docstring != nil {
			b.WriteString("\n" + Dedent(*cls.Docstring) + "\n")
		}
		for _, m := range cls.Methods {
			if err := function(&b, r, m, qualify(name, m.Name), 3); err != nil {
				return "", err
			}
		}
	}

	if len(doc.Exports) > 0 {
		b.WriteString("\n" + r.Header("Exports", 2) + "\n")
		for _, name := range doc.Exports {
			b.WriteString("- " + r.Text(name) + "\n")
		}
	}

	if len(doc.References) > 0 {
		b.WriteString("\n" + r.Header("Modules", 2) + "\n")
		for _, ref := range doc.References {
			to := filepath.ToSlash(OutputPath(ref.Path, r))
			b.WriteString("- " + r.InternalRef(ref.Name, filepath.ToSlash(page.Path), to) + "\n")
		}
	}

	return b.String(), nil
}

func function(b *strings.Builder, r Renderer, fn model.FunctionDocumentation, name string, level int) error {
	sig, err := unparse.Signature(fn.Name, &fn.Args, fn.Returns)
	if err != nil {
		return fmt.Errorf("signature of %s: %w", name, err)
	}
	b.WriteString("\n" + r.Header(name, level))
	b.WriteString("\n" + r.Signature(sig) + "\n")
	if fn.Docstring != nil {
		b.WriteString("\n" + Dedent(*fn.Docstring) + "\n")
	}
	return nil
}

func bases(b *strings.Builder, r Renderer, exprs []pyast.Expr, resolver Resolver) error {
	if len(exprs) == 0 {
		return nil
	}
	parts := make([]string, 0, len(exprs))
	for _, e := range exprs {
		text, err := unparse.Expr(e)
		if err != nil {
			return err
		}
		if resolver != nil {
			if url, ok := resolver.Resolve(text); ok {
				parts = append(parts, r.ExternalRef(text, url))
				continue
			}
		}
		parts = append(parts, r.Text(text))
	}
	b.WriteString("\nBases: " + strings.Join(parts, ", ") + "\n")
	return nil
}

func qualify(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// Dedent removes the shortest leading-whitespace run found on any non-empty
// line from every line, then trims the result.
func Dedent(doc string) string {
	lines := strings.Split(doc, "\n")

	indent := ""
	found := false
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lead := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if !found || len(lead) < len(indent) {
			indent, found = lead, true
		}
	}

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = ""
			continue
		}
		lines[i] = strings.TrimPrefix(line, indent)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// OutputPath translates a source path into the output path for r: the
// extension is replaced and a package marker becomes the index file.
func OutputPath(rel string, r Renderer) string {
	dir, base := filepath.Split(rel)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == lang.Python.MarkerStem() {
		return filepath.Join(dir, r.IndexFile())
	}
	return filepath.Join(dir, stem+r.Extension())
}

// relativeLink returns the path of to relative to the directory of from.
// Both are slash-separated paths below the same root.
func relativeLink(from, to string) string {
	fromDir := path.Dir(from)
	if fromDir == "." {
		return to
	}
	rel, err := filepath.Rel(filepath.FromSlash(fromDir), filepath.FromSlash(to))
	if err != nil {
		return to
	}
	return filepath.ToSlash(rel)
}
