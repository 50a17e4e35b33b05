// Package discover classifies a Python package tree into packages and modules.
package discover

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/savente93/snakeoil/internal/lang"
	"github.com/savente93/snakeoil/internal/model"
)

// ErrNotPackage is returned when the root is not a package directory.
var ErrNotPackage = errors.New("not a python package")

// toolDirs hold generated or third-party trees that are never documented,
// even when a stray marker file makes them look like packages.
var toolDirs = map[string]struct{}{
	"__pycache__":   {},
	"node_modules":  {},
	"site-packages": {},
}

var toolDirSuffixes = []string{".egg-info", ".dist-info"}

func isToolDir(name string) bool {
	if _, ok := toolDirs[name]; ok {
		return true
	}
	for _, suffix := range toolDirSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// Options filters the walk.
type Options struct {
	// Exclude lists paths to leave out, relative to the parent of the root
	// (pkg/sub/file.py), relative to the root itself, or absolute.
	Exclude          []string
	SkipPrivate      bool
	RespectGitignore bool
	Logger           *slog.Logger
}

type kind int

const (
	kindNone kind = iota
	kindModule
	kindPackage
)

type walker struct {
	base     string // parent of the root package
	root     string
	excluded map[string]struct{}
	gi       *ignore.GitIgnore
	opts     Options
	log      *slog.Logger
}

// Packages walks the package rooted at root and returns its index. Every
// package directory's children are recorded before the walk descends into it.
// A missing root or unreadable entry aborts the walk.
func Packages(root string, opts Options) (*model.PackageIndex, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("reading package root: %w", err)
	}
	if !info.IsDir() || !hasMarker(abs) {
		return nil, fmt.Errorf("%s: %w", root, ErrNotPackage)
	}

	w := &walker{
		base: filepath.Dir(abs),
		root: abs,
		opts: opts,
		log:  opts.Logger,
	}
	if w.log == nil {
		w.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	w.excluded = w.exclusions(opts.Exclude)
	if opts.RespectGitignore {
		w.gi = loadGitignore(abs)
	}

	idx := &model.PackageIndex{
		Base:     w.base,
		Root:     filepath.Base(abs),
		Children: make(map[string][]model.ModuleReference),
	}

	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(w.base, path)
		if err != nil {
			return err
		}

		k := kindPackage
		if path != abs {
			k = w.classify(path, rel, d)
		}

		switch k {
		case kindPackage:
			children, err := w.children(path)
			if err != nil {
				return err
			}
			idx.Packages = append(idx.Packages, rel)
			idx.Children[rel] = children
		case kindModule:
			idx.Modules = append(idx.Modules, rel)
		default:
			if d.IsDir() {
				return filepath.SkipDir
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return idx, nil
}

// children lists the classified direct children of a package directory,
// excluding its marker file.
func (w *walker) children(dir string) ([]model.ModuleReference, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var refs []model.ModuleReference
	for _, e := range entries {
		if e.Name() == lang.Python.PackageMarker {
			continue
		}
		path := filepath.Join(dir, e.Name())
		rel, err := filepath.Rel(w.base, path)
		if err != nil {
			return nil, err
		}
		switch w.classify(path, rel, e) {
		case kindModule:
			refs = append(refs, model.ModuleReference{
				Name: strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())),
				Path: rel,
			})
		case kindPackage:
			refs = append(refs, model.ModuleReference{
				Name: e.Name(),
				Path: filepath.Join(rel, lang.Python.PackageMarker),
			})
		}
	}
	return refs, nil
}

func (w *walker) classify(path, rel string, d fs.DirEntry) kind {
	name := d.Name()

	if _, ok := w.excluded[rel]; ok {
		w.log.Debug("excluded", "path", rel)
		return kindNone
	}
	if strings.HasPrefix(name, ".") || d.Type()&fs.ModeSymlink != 0 {
		return kindNone
	}
	if w.opts.SkipPrivate && strings.HasPrefix(name, "_") && name != lang.Python.PackageMarker {
		w.log.Debug("skipping private entry", "path", rel)
		return kindNone
	}
	if w.ignored(path, d.IsDir()) {
		w.log.Debug("ignored by .gitignore", "path", rel)
		return kindNone
	}

	if d.IsDir() {
		// The marker decides; build/ or env/ may be real sub-packages.
		if !hasMarker(path) {
			return kindNone
		}
		if isToolDir(name) {
			w.log.Debug("skipping tool directory", "path", rel)
			return kindNone
		}
		return kindPackage
	}
	if d.Type().IsRegular() && lang.Python.IsModule(name) {
		return kindModule
	}
	return kindNone
}

func (w *walker) ignored(path string, dir bool) bool {
	if w.gi == nil {
		return false
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if w.gi.MatchesPath(rel) {
		return true
	}
	return dir && w.gi.MatchesPath(rel+"/")
}

// exclusions normalizes exclusion entries to paths relative to the base.
func (w *walker) exclusions(entries []string) map[string]struct{} {
	set := make(map[string]struct{}, 2*len(entries))
	rootName := filepath.Base(w.root)
	for _, e := range entries {
		if e == "" {
			continue
		}
		if filepath.IsAbs(e) {
			if rel, err := filepath.Rel(w.base, e); err == nil {
				set[rel] = struct{}{}
			}
			continue
		}
		clean := filepath.Clean(filepath.FromSlash(e))
		set[clean] = struct{}{}
		set[filepath.Join(rootName, clean)] = struct{}{}
	}
	return set
}

func hasMarker(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, lang.Python.PackageMarker))
	return err == nil && info.Mode().IsRegular()
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
