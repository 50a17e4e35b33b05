// Package pipeline runs a documentation build: index the package, then parse,
// extract, render and write every module in turn.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/savente93/snakeoil/internal/config"
	"github.com/savente93/snakeoil/internal/discover"
	"github.com/savente93/snakeoil/internal/extract"
	"github.com/savente93/snakeoil/internal/inventory"
	"github.com/savente93/snakeoil/internal/lang"
	"github.com/savente93/snakeoil/internal/model"
	"github.com/savente93/snakeoil/internal/parse"
	"github.com/savente93/snakeoil/internal/render"
	"github.com/savente93/snakeoil/internal/unparse"
)

// Failure is a source file that produced no page.
type Failure struct {
	Path string // relative to the parent of the package root
	Err  error
}

// Result summarizes a run.
type Result struct {
	Failed  []Failure
	Written []string // output files, relative to the output directory
}

// FailedPaths returns the source paths of all failures.
func (r *Result) FailedPaths() []string {
	paths := make([]string, len(r.Failed))
	for i, f := range r.Failed {
		paths[i] = f.Path
	}
	return paths
}

// Run documents the package at cfg.PkgPath into cfg.OutputDir. Files that do
// not parse, or whose signatures cannot be rendered, are recorded in the
// result and skipped. Filesystem errors abort the run.
func Run(ctx context.Context, cfg config.Config, r render.Renderer, log *slog.Logger) (*Result, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	idx, err := discover.Packages(cfg.PkgPath, discover.Options{
		Exclude:          cfg.Exclude,
		SkipPrivate:      cfg.SkipPrivate,
		RespectGitignore: cfg.RespectGitignore,
		Logger:           log,
	})
	if err != nil {
		return nil, err
	}
	log.Info("indexed package", "root", idx.Root, "packages", len(idx.Packages), "modules", len(idx.Modules))

	for _, pkg := range idx.Packages {
		if err := os.MkdirAll(filepath.Join(cfg.OutputDir, pkg), 0o755); err != nil {
			return nil, fmt.Errorf("creating output directory: %w", err)
		}
	}

	resolver := loadInventories(cfg, log)

	p := parse.NewParser()
	defer p.Close()

	opts := extract.Options{
		SkipPrivate:      cfg.SkipPrivate,
		SkipUndocumented: cfg.SkipUndoc,
	}

	res := &Result{}
	for _, rel := range idx.Modules {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		out, err := document(ctx, p, idx, rel, r, resolver, opts, log, cfg.OutputDir)
		switch {
		case err == nil:
			res.Written = append(res.Written, out)
			log.Debug("wrote page", "path", out)
		case errors.Is(err, parse.ErrSyntax), errors.Is(err, unparse.ErrUnsupported):
			log.Warn("skipping file", "path", rel, "error", err)
			res.Failed = append(res.Failed, Failure{Path: rel, Err: err})
		default:
			return res, err
		}
	}
	return res, nil
}

// document handles a single module and returns its output path.
func document(
	ctx context.Context,
	p *parse.Parser,
	idx *model.PackageIndex,
	rel string,
	r render.Renderer,
	resolver render.Resolver,
	opts extract.Options,
	log *slog.Logger,
	outDir string,
) (string, error) {
	mod, err := p.ParseFile(ctx, filepath.Join(idx.Base, rel))
	if err != nil {
		var perr *parse.Error
		if errors.As(err, &perr) {
			perr.Path = rel
			return "", perr
		}
		return "", fmt.Errorf("reading %s: %w", rel, err)
	}

	opts.Logger = log.With("path", rel)
	doc := extract.Module(mod, extract.ModuleName(rel), extract.QualifiedPrefix(rel), opts)
	if filepath.Base(rel) == lang.Python.PackageMarker {
		doc.References = idx.Children[filepath.Dir(rel)]
	}

	outRel := render.OutputPath(rel, r)
	page, err := render.Module(r, doc, render.Page{Path: filepath.ToSlash(outRel), Resolver: resolver})
	if err != nil {
		return "", err
	}
	data, err := r.Finalize(doc.QualifiedName(), []byte(page))
	if err != nil {
		return "", fmt.Errorf("finalizing %s: %w", outRel, err)
	}

	if err := write(filepath.Join(outDir, outRel), data); err != nil {
		return "", err
	}
	return outRel, nil
}

func write(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

// loadInventories reads every configured inventory from the cache. Missing
// or unreadable ones are reported and left out.
func loadInventories(cfg config.Config, log *slog.Logger) render.Resolver {
	if len(cfg.Inventories) == 0 {
		return nil
	}
	projects := make([]string, 0, len(cfg.Inventories))
	for project := range cfg.Inventories {
		projects = append(projects, project)
	}
	sort.Strings(projects)

	cache := inventory.NewCache(cfg.CacheDir)
	var set inventory.Set
	for _, project := range projects {
		inv, err := cache.Load(project, cfg.Inventories[project])
		if err != nil {
			log.Warn("inventory unavailable, run `snakeoil inventory fetch`", "project", project, "error", err)
			continue
		}
		set = append(set, inv)
	}
	if len(set) == 0 {
		return nil
	}
	return set
}
