// Package lang binds tree-sitter grammars to the on-disk conventions of a
// language's module system.
package lang

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Language holds tree-sitter configuration for a supported language.
type Language struct {
	Name       string
	Extensions []string

	// PackageMarker is the file whose presence turns a directory into a
	// package, e.g. "__init__.py".
	PackageMarker string

	lang *sitter.Language
}

// GetLanguage returns the tree-sitter Language pointer.
func (l *Language) GetLanguage() *sitter.Language {
	return l.lang
}

// NewParser creates a fresh tree-sitter parser for this language.
// Parsers are not safe for concurrent use.
func (l *Language) NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(l.lang)
	return p
}

// MarkerStem returns the package marker file name without its extension.
func (l *Language) MarkerStem() string {
	for _, ext := range l.Extensions {
		if strings.HasSuffix(l.PackageMarker, ext) {
			return strings.TrimSuffix(l.PackageMarker, ext)
		}
	}
	return l.PackageMarker
}

// IsModule reports whether name carries one of the language's source extensions.
func (l *Language) IsModule(name string) bool {
	for _, ext := range l.Extensions {
		if strings.HasSuffix(name, ext) && len(name) > len(ext) {
			return true
		}
	}
	return false
}

// NodeText returns the source text of a tree-sitter node.
func NodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}
