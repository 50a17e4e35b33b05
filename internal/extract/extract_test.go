package extract

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savente93/snakeoil/internal/model"
	"github.com/savente93/snakeoil/internal/parse"
	"github.com/savente93/snakeoil/internal/pyast"
)

func parseModule(t *testing.T, source string) *pyast.Module {
	t.Helper()
	p := parse.NewParser()
	defer p.Close()
	mod, err := p.Parse(context.Background(), []byte(source))
	require.NoError(t, err)
	return mod
}

func names(fns []model.FunctionDocumentation) []string {
	out := make([]string, len(fns))
	for i, fn := range fns {
		out[i] = fn.Name
	}
	return out
}

const sample = `"""Module doc."""

__all__ = ["public", "Widget"]


def public(x: int) -> bool:
    """Public function."""
    return True


def undocumented():
    pass


def _private():
    """Private helper."""


class Widget:
    """A widget."""

    def __init__(self, size):
        """Build it."""

    def _hidden(self):
        """Hidden."""

    def bare(self):
        pass

    async def fetch(self):
        """Fetch."""

        def closure():
            """Not a method."""


class _Internal:
    """Internal."""


class Bare:
    pass
`

func TestModuleDefaults(t *testing.T) {
	t.Parallel()

	doc := Module(parseModule(t, sample), "mod", "pkg", Options{})

	require.NotNil(t, doc.Docstring)
	assert.Equal(t, "Module doc.", *doc.Docstring)
	assert.Equal(t, "pkg.mod", doc.QualifiedName())
	assert.Equal(t, []string{"public", "undocumented", "_private"}, names(doc.Functions))
	require.Len(t, doc.Classes, 3)
	assert.Equal(t, []string{"__init__", "_hidden", "bare", "fetch"}, names(doc.Classes[0].Methods))
	assert.Equal(t, []string{"public", "Widget"}, doc.Exports)
}

func TestModuleSkipUndocumented(t *testing.T) {
	t.Parallel()

	doc := Module(parseModule(t, sample), "mod", "", Options{SkipUndocumented: true})

	assert.Equal(t, []string{"public", "_private"}, names(doc.Functions))
	require.Len(t, doc.Classes, 2)
	assert.Equal(t, "Widget", doc.Classes[0].Name)
	assert.Equal(t, "_Internal", doc.Classes[1].Name)
	assert.Equal(t, []string{"__init__", "_hidden", "fetch"}, names(doc.Classes[0].Methods))
}

func TestModuleSkipPrivate(t *testing.T) {
	t.Parallel()

	doc := Module(parseModule(t, sample), "mod", "", Options{SkipPrivate: true})

	assert.Equal(t, []string{"public", "undocumented"}, names(doc.Functions))
	require.Len(t, doc.Classes, 2)
	assert.Equal(t, "Widget", doc.Classes[0].Name)
	assert.Equal(t, "Bare", doc.Classes[1].Name)
	assert.Equal(t, []string{"__init__", "bare", "fetch"}, names(doc.Classes[0].Methods))
}

func TestDocstringOnlyFromFirstStatement(t *testing.T) {
	t.Parallel()

	doc := Module(parseModule(t, "import os\n\"\"\"Not a docstring.\"\"\"\n"), "m", "", Options{})
	assert.Nil(t, doc.Docstring)

	fn := Function(parseModule(t, "def f():\n    x = 1\n    \"\"\"Late.\"\"\"\n").Body[0].(*pyast.FunctionDef))
	assert.Nil(t, fn.Docstring)

	fn = Function(parseModule(t, "def f():\n    b\"bytes\"\n").Body[0].(*pyast.FunctionDef))
	assert.Nil(t, fn.Docstring)

	fn = Function(parseModule(t, "def f():\n    \"one\" \"two\"\n").Body[0].(*pyast.FunctionDef))
	require.NotNil(t, fn.Docstring)
	assert.Equal(t, "onetwo", *fn.Docstring)
}

func TestFunctionFields(t *testing.T) {
	t.Parallel()

	fn := Function(parseModule(t, "def f(x: T, *, y=1) -> T:\n    \"\"\"Doc.\"\"\"\n").Body[0].(*pyast.FunctionDef))
	assert.Equal(t, "f", fn.Name)
	assert.Len(t, fn.Args.Args, 1)
	assert.Len(t, fn.Args.KwOnly, 1)
	assert.Equal(t, &pyast.Name{ID: "T"}, fn.Returns)
	require.NotNil(t, fn.Docstring)
	assert.Equal(t, "Doc.", *fn.Docstring)
}

func TestExports(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
		want   []string
		warns  bool
	}{
		{"none", "x = 1\n", nil, false},
		{"list", "__all__ = ['a', 'b']\n", []string{"a", "b"}, false},
		{"annotated", "__all__: list[str] = ['a']\n", []string{"a"}, false},
		{"last wins", "__all__ = ['a']\n__all__ = ['b', 'c']\n", []string{"b", "c"}, true},
		{"not a list", "__all__ = ('a', 'b')\n", nil, true},
		{"computed", "__all__ = other + ['a']\n", nil, true},
		{"constants", "__all__ = ['a', 1]\n", []string{"a", "1"}, false},
		{"names skipped", "__all__ = ['a', b]\n", []string{"a"}, true},
		{"empty", "__all__ = []\n", []string{}, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			log := slog.New(slog.NewTextHandler(&buf, nil))

			got := Exports(parseModule(t, tt.source).Body, log)
			assert.Equal(t, tt.want, got)
			if tt.warns {
				assert.Contains(t, buf.String(), "level=WARN")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestIsPrivate(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"public":   false,
		"_private": true,
		"__dunder": true,
		"__init__": false,
		"__call__": true,
	}
	for name, want := range cases {
		assert.Equal(t, want, IsPrivate(name), name)
	}
}

func TestQualifiedPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rel  string
		want string
	}{
		{"pkg/__init__.py", ""},
		{"pkg/mod.py", "pkg"},
		{"pkg/sub/__init__.py", "pkg"},
		{"pkg/sub/mod.py", "pkg.sub"},
		{"pkg/a/b/__init__.py", "pkg.a"},
		{"mod.py", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, QualifiedPrefix(filepath.FromSlash(tt.rel)), tt.rel)
	}
}

func TestModuleName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rel  string
		want string
	}{
		{"pkg/__init__.py", "pkg"},
		{"pkg/mod.py", "mod"},
		{"pkg/sub/__init__.py", "sub"},
		{"__init__.py", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ModuleName(filepath.FromSlash(tt.rel)), tt.rel)
	}
}

// A marker one level below the root is named after the root package.
func TestMarkerBelowRoot(t *testing.T) {
	t.Parallel()

	rel := filepath.FromSlash("pkg/sub/__init__.py")
	doc := Module(&pyast.Module{}, ModuleName(rel), QualifiedPrefix(rel), Options{})
	assert.Equal(t, "pkg.sub", doc.QualifiedName())
	require.NotNil(t, doc.Prefix)
	assert.Equal(t, "pkg", *doc.Prefix)
}
