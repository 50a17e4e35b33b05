// Package extract builds documentation records from parsed Python modules.
package extract

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/savente93/snakeoil/internal/lang"
	"github.com/savente93/snakeoil/internal/model"
	"github.com/savente93/snakeoil/internal/pyast"
	"github.com/savente93/snakeoil/internal/unparse"
)

// exportsName is the module attribute listing re-exported names.
const exportsName = "__all__"

// Options controls which definitions are kept.
type Options struct {
	SkipPrivate      bool
	SkipUndocumented bool
	Logger           *slog.Logger // nil discards
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

// skip reports whether a definition is filtered out by the options.
func (o Options) skip(name string, doc *string) bool {
	if o.SkipUndocumented && doc == nil {
		return true
	}
	return o.SkipPrivate && IsPrivate(name)
}

// IsPrivate reports whether a function or class name is private: it starts
// with an underscore and is not __init__.
func IsPrivate(name string) bool {
	return strings.HasPrefix(name, "_") && name != "__init__"
}

// Module extracts the documentation of a parsed module.
func Module(mod *pyast.Module, name, prefix string, opts Options) model.ModuleDocumentation {
	doc := model.NewModuleDocumentation(name, prefix)
	doc.Docstring = docstring(mod.Body)

	for _, stmt := range mod.Body {
		switch s := stmt.(type) {
		case *pyast.FunctionDef:
			fn := Function(s)
			if opts.skip(fn.Name, fn.Docstring) {
				continue
			}
			doc.Functions = append(doc.Functions, fn)
		case *pyast.ClassDef:
			cls := Class(s, opts)
			if opts.skip(cls.Name, cls.Docstring) {
				continue
			}
			doc.Classes = append(doc.Classes, cls)
		}
	}

	doc.Exports = Exports(mod.Body, opts.logger())
	return doc
}

// Function extracts a function or method.
func Function(fn *pyast.FunctionDef) model.FunctionDocumentation {
	return model.FunctionDocumentation{
		Name:       fn.Name,
		Docstring:  docstring(fn.Body),
		Args:       fn.Args,
		Returns:    fn.Returns,
		TypeParams: fn.TypeParams,
	}
}

// Class extracts a class with the methods defined directly in its body.
// Methods are filtered with the same rules as module-level functions.
func Class(cls *pyast.ClassDef, opts Options) model.ClassDocumentation {
	out := model.ClassDocumentation{
		Name:      cls.Name,
		Docstring: docstring(cls.Body),
		Bases:     cls.Bases,
	}
	for _, stmt := range cls.Body {
		def, ok := stmt.(*pyast.FunctionDef)
		if !ok {
			continue
		}
		m := Function(def)
		if opts.skip(m.Name, m.Docstring) {
			continue
		}
		out.Methods = append(out.Methods, m)
	}
	return out
}

func docstring(body []pyast.Stmt) *string {
	s, ok := pyast.Docstring(body)
	if !ok {
		return nil
	}
	return &s
}

// Exports returns the names listed in the module's __all__ list. Several
// declarations resolve to the last one with a warning. A declaration whose
// value is not a list literal yields nil.
func Exports(body []pyast.Stmt, log *slog.Logger) []string {
	var (
		last  *pyast.Assign
		count int
	)
	for _, stmt := range body {
		as, ok := stmt.(*pyast.Assign)
		if !ok || !assignsExports(as) {
			continue
		}
		count++
		last = as
	}
	if last == nil {
		return nil
	}
	if count > 1 {
		log.Warn("multiple __all__ declarations, using the last one", "count", count, "line", last.Line)
	}

	list, ok := last.Value.(*pyast.List)
	if !ok {
		log.Warn("__all__ is not a list literal, ignoring it", "line", last.Line)
		return nil
	}

	exports := make([]string, 0, len(list.Elts))
	for _, elt := range list.Elts {
		if s, ok := pyast.StringValue(elt); ok {
			exports = append(exports, s)
			continue
		}
		if _, ok := elt.(*pyast.Constant); !ok {
			log.Warn("skipping non-literal __all__ entry", "line", last.Line)
			continue
		}
		text, err := unparse.Expr(elt)
		if err != nil {
			log.Warn("skipping __all__ entry", "line", last.Line, "error", err)
			continue
		}
		exports = append(exports, text)
	}
	return exports
}

func assignsExports(as *pyast.Assign) bool {
	for _, target := range as.Targets {
		if name, ok := target.(*pyast.Name); ok && name.ID == exportsName {
			return true
		}
	}
	return false
}

// QualifiedPrefix returns the dotted prefix of the module at rel, a path
// relative to the parent of the root package. A package marker documents its
// own directory, so its prefix is the directory's parent.
func QualifiedPrefix(rel string) string {
	dir := filepath.Dir(rel)
	if filepath.Base(rel) == lang.Python.PackageMarker {
		dir = filepath.Dir(dir)
	}
	return dotted(dir)
}

// ModuleName returns the short name of the module at rel: the directory name
// for a package marker, otherwise the file stem.
func ModuleName(rel string) string {
	base := filepath.Base(rel)
	if base == lang.Python.PackageMarker {
		return dotted(filepath.Base(filepath.Dir(rel)))
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func dotted(dir string) string {
	dir = filepath.Clean(dir)
	if dir == "." || dir == string(filepath.Separator) {
		return ""
	}
	return strings.ReplaceAll(filepath.ToSlash(dir), "/", ".")
}
