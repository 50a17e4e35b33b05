package inventory

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultCacheDir is used when no cache directory is configured.
const DefaultCacheDir = ".snakeoil/cache"

const sphinxDir = "sphinx"

// Cache stores downloaded inventories on disk, one file per project.
type Cache struct {
	Dir string
}

// NewCache returns a cache rooted at dir, or DefaultCacheDir when dir is
// empty.
func NewCache(dir string) Cache {
	if dir == "" {
		dir = DefaultCacheDir
	}
	return Cache{Dir: dir}
}

// Init creates the cache directories. Existing contents are left alone.
func (c Cache) Init() error {
	if err := os.MkdirAll(filepath.Join(c.Dir, sphinxDir), 0o755); err != nil {
		return fmt.Errorf("creating cache: %w", err)
	}
	return nil
}

// Path returns the file holding a project's inventory.
func (c Cache) Path(project string) string {
	return filepath.Join(c.Dir, sphinxDir, strings.ToLower(project)+".inv")
}

// Store validates data as an inventory and writes it under project.
func (c Cache) Store(project string, data []byte) error {
	if _, err := Parse(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("inventory for %s: %w", project, err)
	}
	if err := c.Init(); err != nil {
		return err
	}
	if err := os.WriteFile(c.Path(project), data, 0o644); err != nil {
		return fmt.Errorf("writing inventory: %w", err)
	}
	return nil
}

// Load reads a cached inventory and sets its base URL.
func (c Cache) Load(project, baseURL string) (*Inventory, error) {
	f, err := os.Open(c.Path(project))
	if err != nil {
		return nil, fmt.Errorf("opening inventory for %s: %w", project, err)
	}
	defer f.Close()

	inv, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("inventory for %s: %w", project, err)
	}
	inv.BaseURL = baseURL
	return inv, nil
}
