// snakeoil generates API reference pages for a Python package.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/savente93/snakeoil/internal/config"
	"github.com/savente93/snakeoil/internal/pipeline"
	"github.com/savente93/snakeoil/internal/render"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	cacheDir   string
	verbose    int
	quiet      bool
}

func run(args []string, stdout, stderr io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var (
		g           globalFlags
		outputDir   string
		skipUndoc   bool
		skipPrivate bool
		exclude     []string
		format      string
		shortcodes  bool
		noGitignore bool
		strict      bool
	)

	cmd := &cobra.Command{
		Use:   "snakeoil [flags] [package-path]",
		Short: "Generate API reference pages for a Python package",
		Long: `snakeoil walks a Python package, extracts the docstrings and signatures of its
modules, classes and functions, and writes one page per module to an output
tree that mirrors the package layout.

Settings are read from snakeoil.toml in the working directory (or --config) and
overridden by flags.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(stderr, g.verbose, g.quiet)

			b, err := g.builder()
			if err != nil {
				return err
			}
			flags := new(config.Builder)
			if len(args) > 0 {
				flags.WithPkgPath(args[0])
			}
			set := cmd.Flags().Changed
			if set("output") {
				flags.WithOutputDir(outputDir)
			}
			if set("skip-undoc") {
				flags.WithSkipUndoc(skipUndoc)
			}
			if set("skip-private") {
				flags.WithSkipPrivate(skipPrivate)
			}
			if set("exclude") {
				flags.ExcludePaths(exclude...)
			}
			if set("format") {
				flags.WithFormat(format)
			}
			if set("shortcodes") {
				flags.WithShortcodes(shortcodes)
			}
			if set("no-gitignore") {
				flags.WithRespectGitignore(!noGitignore)
			}
			if set("strict") {
				flags.WithStrict(strict)
			}
			cfg := b.Merge(flags).Build()

			r, err := render.ForFormat(cfg.Format, render.Options{UseShortcodes: cfg.UseShortcodes})
			if err != nil {
				return err
			}

			res, err := pipeline.Run(cmd.Context(), cfg, r, log)
			if err != nil {
				return err
			}
			return report(stdout, stderr, res, cfg, g.quiet)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "configuration file (default ./"+config.DefaultFile+")")
	pf.StringVar(&g.cacheDir, "cache-dir", "", "inventory cache directory")
	pf.CountVarP(&g.verbose, "verbose", "v", "increase logging verbosity (repeatable)")
	pf.BoolVarP(&g.quiet, "quiet", "q", false, "suppress all logging output")

	f := cmd.Flags()
	f.StringVarP(&outputDir, "output", "o", config.DefaultOutputDir, "output directory")
	f.BoolVar(&skipUndoc, "skip-undoc", true, "leave out undocumented functions and classes")
	f.BoolVar(&skipPrivate, "skip-private", false, "leave out private modules, functions and classes")
	f.StringSliceVarP(&exclude, "exclude", "e", nil, "path to exclude, relative to the package's parent (repeatable)")
	f.StringVarP(&format, "format", "f", config.DefaultFormat, "output format: markdown, zola, hugo or html")
	f.BoolVar(&shortcodes, "shortcodes", false, "link pages with site generator shortcodes")
	f.BoolVar(&noGitignore, "no-gitignore", false, "document files ignored by the package's .gitignore")
	f.BoolVar(&strict, "strict", false, "exit with an error when any file fails")

	cmd.AddCommand(newInitCmd(stdout, stderr, &g), newInventoryCmd(stdout, stderr, &g))
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd
}

// builder loads the configuration file and applies the global overrides.
func (g *globalFlags) builder() (*config.Builder, error) {
	path, required := config.DefaultFile, false
	if g.configPath != "" {
		path, required = g.configPath, true
	}
	b, err := config.Load(path, required)
	if err != nil {
		return nil, err
	}
	if g.cacheDir != "" {
		b.WithCacheDir(g.cacheDir)
	}
	return b, nil
}

// report prints the failed files and decides the exit status.
func report(stdout, stderr io.Writer, res *pipeline.Result, cfg config.Config, quiet bool) error {
	if !quiet {
		for _, f := range res.Failed {
			_, _ = fmt.Fprintf(stderr, "Warning: %s: %v\n", f.Path, f.Err)
		}
		_, _ = fmt.Fprintf(stdout, "wrote %d pages to %s\n", len(res.Written), cfg.OutputDir)
	}
	if cfg.Strict && len(res.Failed) > 0 {
		return fmt.Errorf("%d files could not be documented", len(res.Failed))
	}
	return nil
}

// newLogger maps the verbosity count to a level: errors only by default,
// then warn, info and debug.
func newLogger(w io.Writer, verbose int, quiet bool) *slog.Logger {
	if quiet {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	level := slog.LevelError
	switch {
	case verbose >= 3:
		level = slog.LevelDebug
	case verbose == 2:
		level = slog.LevelInfo
	case verbose == 1:
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
