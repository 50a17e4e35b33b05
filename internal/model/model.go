// Package model defines the documentation records extracted from Python
// sources and the package index they are rendered from.
package model

import (
	"github.com/savente93/snakeoil/internal/pyast"
)

// FunctionDocumentation describes a function or method.
type FunctionDocumentation struct {
	Name       string
	Docstring  *string // raw, nil when absent
	Args       pyast.Arguments
	Returns    pyast.Expr // nil when unannotated
	TypeParams []pyast.Expr
}

// ClassDocumentation describes a class and its direct methods.
type ClassDocumentation struct {
	Name      string
	Docstring *string
	Bases     []pyast.Expr
	Methods   []FunctionDocumentation
}

// ModuleReference links a package index page to one of its children.
type ModuleReference struct {
	Name string // display name, e.g. "sub" or "mod"
	Path string // documenting source file, relative to Base of the index
}

// ModuleDocumentation is everything rendered for one source file.
type ModuleDocumentation struct {
	Name       *string
	Prefix     *string
	Docstring  *string
	Functions  []FunctionDocumentation
	Classes    []ClassDocumentation
	References []ModuleReference // set for package marker files only
	Exports    []string          // nil when the module declares no __all__
}

// NewModuleDocumentation returns an empty record for a module. Empty name or
// prefix strings are stored as nil.
func NewModuleDocumentation(name, prefix string) ModuleDocumentation {
	return ModuleDocumentation{
		Name:   StringPtr(name),
		Prefix: StringPtr(prefix),
	}
}

// QualifiedName is "prefix.name", "prefix", "name" or "" in that order of
// preference.
func (m *ModuleDocumentation) QualifiedName() string {
	switch {
	case m.Prefix != nil && m.Name != nil:
		return *m.Prefix + "." + *m.Name
	case m.Prefix != nil:
		return *m.Prefix
	case m.Name != nil:
		return *m.Name
	default:
		return ""
	}
}

// PackageIndex is the classified package tree. Paths are relative to Base,
// the parent directory of the root package, so every path starts with the
// root package's name.
type PackageIndex struct {
	Base     string
	Root     string // root package directory, relative to Base
	Packages []string
	Modules  []string
	Children map[string][]ModuleReference // keyed by package directory
}

// StringPtr returns a pointer to s, or nil for "".
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
