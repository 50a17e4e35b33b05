package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDefaults(t *testing.T) {
	t.Parallel()

	cfg := (&Builder{}).Build()
	assert.Equal(t, ".", cfg.PkgPath)
	assert.Equal(t, "_build", cfg.OutputDir)
	assert.True(t, cfg.SkipUndoc)
	assert.False(t, cfg.SkipPrivate)
	assert.Equal(t, "markdown", cfg.Format)
	assert.True(t, cfg.RespectGitignore)
	assert.False(t, cfg.Strict)
	assert.Empty(t, cfg.Exclude)
	assert.NotNil(t, cfg.Inventories)
}

func TestBuilderChaining(t *testing.T) {
	t.Parallel()

	cfg := new(Builder).
		WithPkgPath("src/pkg").
		WithOutputDir("site/content").
		WithSkipUndoc(false).
		WithSkipPrivate(true).
		WithFormat("zola").
		WithShortcodes(true).
		WithRespectGitignore(false).
		WithStrict(true).
		WithCacheDir("/tmp/cache").
		WithExclude([]string{"a.py"}).
		ExcludePaths("b.py", "c.py").
		WithInventory("numpy", "https://numpy.org/doc/stable").
		Build()

	assert.Equal(t, Config{
		PkgPath:          "src/pkg",
		OutputDir:        "site/content",
		SkipUndoc:        false,
		SkipPrivate:      true,
		Exclude:          []string{"a.py", "b.py", "c.py"},
		Format:           "zola",
		UseShortcodes:    true,
		RespectGitignore: false,
		Strict:           true,
		CacheDir:         "/tmp/cache",
		Inventories:      map[string]string{"numpy": "https://numpy.org/doc/stable"},
	}, cfg)
}

func TestMerge(t *testing.T) {
	t.Parallel()

	file := new(Builder).WithOutputDir("docs").WithSkipPrivate(true).ExcludePaths("x.py")
	flags := new(Builder).WithOutputDir("out").ExcludePaths("y.py")

	cfg := file.Merge(flags).Merge(nil).Build()
	assert.Equal(t, "out", cfg.OutputDir)
	assert.True(t, cfg.SkipPrivate, "unset fields keep the file value")
	assert.Equal(t, []string{"x.py", "y.py"}, cfg.Exclude)
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	b := new(Builder).
		WithSkipUndoc(false).
		WithSkipPrivate(true).
		WithFormat("hugo").
		ExcludePaths("pkg/gen.py").
		WithInventory("python", "https://docs.python.org/3")

	path := filepath.Join(t.TempDir(), "snakeoil.toml")
	require.NoError(t, b.ToFile(path))

	got, err := FromPath(path)
	require.NoError(t, err)
	assert.Equal(t, b, got)
	assert.Equal(t, b.Build(), got.Build())
}

func TestFromPathUnknownKey(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "snakeoil.toml")
	require.NoError(t, os.WriteFile(path, []byte("minify = true\n"), 0o644))

	_, err := FromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "minify")
}

func TestFromPathSyntaxError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "snakeoil.toml")
	require.NoError(t, os.WriteFile(path, []byte("format = \n"), 0o644))

	_, err := FromPath(path)
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "none.toml")

	b, err := Load(missing, false)
	require.NoError(t, err)
	assert.Equal(t, &Builder{}, b)

	_, err = Load(missing, true)
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "snakeoil.toml")
	require.NoError(t, os.WriteFile(path, []byte("output_dir = \"site\"\nexclude = [\"a.py\"]\n"), 0o644))
	b, err = Load(path, true)
	require.NoError(t, err)
	cfg := b.Build()
	assert.Equal(t, "site", cfg.OutputDir)
	assert.Equal(t, []string{"a.py"}, cfg.Exclude)
}
