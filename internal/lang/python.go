package lang

import (
	"github.com/smacker/go-tree-sitter/python"
)

// Python is the only language snakeoil documents.
var Python = &Language{
	Name:          "python",
	Extensions:    []string{".py"},
	PackageMarker: "__init__.py",
	lang:          python.GetLanguage(),
}
