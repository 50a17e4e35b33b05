// Package config holds the settings of a documentation run and reads them
// from a TOML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = "snakeoil.toml"

// Defaults applied by Build for unset fields.
const (
	DefaultOutputDir = "_build"
	DefaultPkgPath   = "."
	DefaultFormat    = "markdown"
)

// Config is a fully resolved configuration.
type Config struct {
	PkgPath          string
	OutputDir        string
	SkipUndoc        bool
	SkipPrivate      bool
	Exclude          []string
	Format           string
	UseShortcodes    bool
	RespectGitignore bool
	Strict           bool
	CacheDir         string
	// Inventories maps a project name to the documentation root its
	// objects.inv was fetched from.
	Inventories map[string]string
}

// Builder collects settings from several sources. Unset fields are nil and
// take their default in Build.
type Builder struct {
	PkgPath          *string           `toml:"pkg_path"`
	OutputDir        *string           `toml:"output_dir"`
	SkipUndoc        *bool             `toml:"skip_undoc"`
	SkipPrivate      *bool             `toml:"skip_private"`
	Exclude          []string          `toml:"exclude,omitempty"`
	Format           *string           `toml:"format"`
	UseShortcodes    *bool             `toml:"use_shortcodes"`
	RespectGitignore *bool             `toml:"respect_gitignore"`
	Strict           *bool             `toml:"strict"`
	CacheDir         *string           `toml:"cache_dir"`
	Inventories      map[string]string `toml:"inventories,omitempty"`
}

// Default returns a builder with every scalar field set to its default, for
// writing out a starting configuration.
func Default(cacheDir string) *Builder {
	return new(Builder).
		WithPkgPath(DefaultPkgPath).
		WithOutputDir(DefaultOutputDir).
		WithSkipUndoc(true).
		WithSkipPrivate(false).
		WithFormat(DefaultFormat).
		WithShortcodes(false).
		WithRespectGitignore(true).
		WithStrict(false).
		WithCacheDir(cacheDir)
}

// The With methods set a single field and return b for chaining.

func (b *Builder) WithPkgPath(p string) *Builder {
	b.PkgPath = &p
	return b
}

func (b *Builder) WithOutputDir(p string) *Builder {
	b.OutputDir = &p
	return b
}

func (b *Builder) WithSkipUndoc(v bool) *Builder {
	b.SkipUndoc = &v
	return b
}

func (b *Builder) WithSkipPrivate(v bool) *Builder {
	b.SkipPrivate = &v
	return b
}

func (b *Builder) WithFormat(f string) *Builder {
	b.Format = &f
	return b
}

func (b *Builder) WithShortcodes(v bool) *Builder {
	b.UseShortcodes = &v
	return b
}

func (b *Builder) WithRespectGitignore(v bool) *Builder {
	b.RespectGitignore = &v
	return b
}

func (b *Builder) WithStrict(v bool) *Builder {
	b.Strict = &v
	return b
}

func (b *Builder) WithCacheDir(p string) *Builder {
	b.CacheDir = &p
	return b
}

// WithExclude replaces the exclusion list.
func (b *Builder) WithExclude(paths []string) *Builder {
	b.Exclude = append([]string(nil), paths...)
	return b
}

// ExcludePaths appends to the exclusion list.
func (b *Builder) ExcludePaths(paths ...string) *Builder {
	b.Exclude = append(b.Exclude, paths...)
	return b
}

// WithInventory records the documentation root of a project.
func (b *Builder) WithInventory(project, baseURL string) *Builder {
	if b.Inventories == nil {
		b.Inventories = make(map[string]string)
	}
	b.Inventories[project] = baseURL
	return b
}

// Merge overlays every field set in other onto b. Exclusions and
// inventories accumulate.
func (b *Builder) Merge(other *Builder) *Builder {
	if other == nil {
		return b
	}
	setString(&b.PkgPath, other.PkgPath)
	setString(&b.OutputDir, other.OutputDir)
	setBool(&b.SkipUndoc, other.SkipUndoc)
	setBool(&b.SkipPrivate, other.SkipPrivate)
	setString(&b.Format, other.Format)
	setBool(&b.UseShortcodes, other.UseShortcodes)
	setBool(&b.RespectGitignore, other.RespectGitignore)
	setBool(&b.Strict, other.Strict)
	setString(&b.CacheDir, other.CacheDir)
	b.Exclude = append(b.Exclude, other.Exclude...)
	for project, url := range other.Inventories {
		b.WithInventory(project, url)
	}
	return b
}

func setString(dst **string, src *string) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

func setBool(dst **bool, src *bool) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

// Build resolves defaults.
func (b *Builder) Build() Config {
	cfg := Config{
		PkgPath:          stringOr(b.PkgPath, DefaultPkgPath),
		OutputDir:        stringOr(b.OutputDir, DefaultOutputDir),
		SkipUndoc:        boolOr(b.SkipUndoc, true),
		SkipPrivate:      boolOr(b.SkipPrivate, false),
		Exclude:          append([]string(nil), b.Exclude...),
		Format:           stringOr(b.Format, DefaultFormat),
		UseShortcodes:    boolOr(b.UseShortcodes, false),
		RespectGitignore: boolOr(b.RespectGitignore, true),
		Strict:           boolOr(b.Strict, false),
		CacheDir:         stringOr(b.CacheDir, ""),
		Inventories:      make(map[string]string, len(b.Inventories)),
	}
	for project, url := range b.Inventories {
		cfg.Inventories[project] = url
	}
	return cfg
}

func stringOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// FromPath decodes a builder from a TOML file. Unknown keys are rejected.
func FromPath(path string) (*Builder, error) {
	var b Builder
	md, err := toml.DecodeFile(path, &b)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}
	return &b, nil
}

// Load reads path into a builder. A missing file yields an empty builder
// unless required is set.
func Load(path string, required bool) (*Builder, error) {
	b, err := FromPath(path)
	if err == nil {
		return b, nil
	}
	if !required && errors.Is(err, fs.ErrNotExist) {
		return &Builder{}, nil
	}
	return nil, err
}

// ToFile writes the set fields of b as TOML.
func (b *Builder) ToFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(b); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return f.Close()
}
