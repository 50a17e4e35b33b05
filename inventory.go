package main

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/savente93/snakeoil/internal/config"
	"github.com/savente93/snakeoil/internal/inventory"
)

const fetchTimeout = 30 * time.Second

var httpClient = &http.Client{Timeout: fetchTimeout}

func newInventoryCmd(stdout, stderr io.Writer, g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Manage the Sphinx inventories used to link external names",
	}
	cmd.AddCommand(newInventoryFetchCmd(stdout, stderr, g), newInventoryLookupCmd(stdout, g))
	return cmd
}

func newInventoryFetchCmd(stdout, stderr io.Writer, g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch [project base-url]",
		Short: "Download objects.inv files into the cache",
		Long: `Download the objects.inv of a documentation site into the inventory cache.
Without arguments every inventory listed under [inventories] in the
configuration file is fetched.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("expected no arguments or a project and base URL, got %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := g.builder()
			if err != nil {
				return err
			}
			if len(args) == 2 {
				b.Inventories = map[string]string{args[0]: args[1]}
			}
			cfg := b.Build()
			if len(cfg.Inventories) == 0 {
				return fmt.Errorf("no inventories configured")
			}

			cache := inventory.NewCache(cfg.CacheDir)
			for _, project := range sortedKeys(cfg.Inventories) {
				if err := inventory.FetchInto(cmd.Context(), httpClient, cache, project, cfg.Inventories[project]); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(stdout, "cached %s in %s\n", project, cache.Path(project))
			}
			if !g.quiet && len(args) == 2 {
				_, _ = fmt.Fprintf(stderr, "add %s = %q under [inventories] in %s to link against it\n",
					args[0], args[1], config.DefaultFile)
			}
			return nil
		},
	}
}

func newInventoryLookupCmd(stdout io.Writer, g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup name...",
		Short: "Print the documentation URL of Python names",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := g.builder()
			if err != nil {
				return err
			}
			cfg := b.Build()

			cache := inventory.NewCache(cfg.CacheDir)
			var set inventory.Set
			for _, project := range sortedKeys(cfg.Inventories) {
				inv, err := cache.Load(project, cfg.Inventories[project])
				if err != nil {
					return err
				}
				set = append(set, inv)
			}

			var missing int
			for _, name := range args {
				url, ok := set.Resolve(name)
				if !ok {
					missing++
					_, _ = fmt.Fprintf(stdout, "%s\tnot found\n", name)
					continue
				}
				_, _ = fmt.Fprintf(stdout, "%s\t%s\n", name, url)
			}
			if missing > 0 {
				return fmt.Errorf("%d of %d names not found", missing, len(args))
			}
			return nil
		},
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
