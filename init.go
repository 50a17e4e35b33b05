package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/savente93/snakeoil/internal/config"
	"github.com/savente93/snakeoil/internal/inventory"
)

const (
	sentinelStart = "# snakeoil:start"
	sentinelEnd   = "# snakeoil:end"
)

// newInitCmd implements `snakeoil init`, which writes (or updates) a block of
// default settings in a snakeoil.toml file.
func newInitCmd(stdout, stderr io.Writer, g *globalFlags) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "init [path-to-snakeoil.toml]",
		Short: "Write a default configuration file",
		Long: `Write the default snakeoil settings to a configuration file. The settings are
wrapped in sentinel comments so they can be regenerated in place on subsequent
runs without touching surrounding content. Creates the file if it does not
exist.

path-to-snakeoil.toml defaults to ./` + config.DefaultFile + `.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cacheDir := g.cacheDir
			if cacheDir == "" {
				cacheDir = inventory.DefaultCacheDir
			}
			section, err := generateSection(config.Default(cacheDir))
			if err != nil {
				return err
			}

			// --dry-run with no path: just print the section itself.
			if dryRun && len(args) == 0 {
				_, _ = fmt.Fprintln(stdout, section)
				return nil
			}

			path := config.DefaultFile
			if len(args) > 0 {
				path = args[0]
			}

			existing, _ := os.ReadFile(path)
			updated := applySection(string(existing), section)

			if dryRun {
				_, _ = fmt.Fprint(stdout, updated)
				return nil
			}

			if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}

			_, _ = fmt.Fprintf(stderr, "wrote snakeoil settings to %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying the file")
	return cmd
}

// generateSection returns the sentinel-wrapped TOML encoding of b.
func generateSection(b *config.Builder) (string, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(b); err != nil {
		return "", fmt.Errorf("encoding settings: %w", err)
	}
	return sentinelStart + "\n" + buf.String() + sentinelEnd, nil
}

// applySection inserts section into content, replacing an existing sentinel
// block if present. Otherwise the section goes first so its keys stay outside
// any table the file declares.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	if content == "" {
		return section + "\n"
	}
	return section + "\n\n" + content
}
