package inventory

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxInventorySize bounds a downloaded objects.inv.
const maxInventorySize = 32 << 20

// ObjectsURL returns the conventional inventory location below a
// documentation root.
func ObjectsURL(baseURL string) string {
	if strings.HasSuffix(baseURL, ".inv") {
		return baseURL
	}
	return strings.TrimSuffix(baseURL, "/") + "/objects.inv"
}

// Fetch downloads the raw inventory at url.
func Fetch(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: %s", url, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxInventorySize))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	return data, nil
}

// FetchInto downloads the inventory documented at baseURL and stores it in
// the cache under project.
func FetchInto(ctx context.Context, client *http.Client, c Cache, project, baseURL string) error {
	data, err := Fetch(ctx, client, ObjectsURL(baseURL))
	if err != nil {
		return err
	}
	return c.Store(project, data)
}
