// Package inventory reads Sphinx objects.inv files and resolves Python names
// to external documentation URLs.
package inventory

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zlib"
)

// ErrFormat is returned for data that is not a version 2 Sphinx inventory.
var ErrFormat = errors.New("invalid sphinx inventory")

// Domain roles known to Sphinx. Entries outside this table are skipped.
var roles = map[string]map[string]struct{}{
	"std":  set("doc", "label", "term"),
	"c":    set("enum", "enumerator", "function", "functionParam", "macro", "member", "type", "var", "struct", "union"),
	"cpp":  set("class", "function", "functionParam", "member", "templateParam"),
	"js":   set("module", "function", "method", "class", "data"),
	"math": set("numref"),
	"py":   set("attribute", "data", "exception", "function", "method", "module", "property", "class"),
	"rst":  set(),
}

func set(names ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

var linePattern = regexp.MustCompile(`^(.+?)\s+(\S+)\s+(-?\d+)\s+?(\S*)\s+(.*)$`)

// Entry is one object listed in an inventory.
type Entry struct {
	Name     string
	Domain   string
	Role     string
	Priority int
	// Location is relative to the documentation root, with "$" expanded.
	Location string
	DispName string
}

// Inventory is a parsed objects.inv file.
type Inventory struct {
	Project string
	Version string
	// BaseURL is prefixed to entry locations by Resolve.
	BaseURL string
	Entries []Entry
	// Skipped counts well-formed lines with an unknown domain, role or
	// priority.
	Skipped int

	byName map[string]int
}

// Parse reads a version 2 inventory: four header lines followed by a zlib
// stream of entry lines.
func Parse(r io.Reader) (*Inventory, error) {
	br := bufio.NewReader(r)

	header := make([]string, 4)
	for i := range header {
		line, err := br.ReadString('\n')
		if err != nil && (err != io.EOF || i < 3 || line == "") {
			return nil, fmt.Errorf("%w: truncated header", ErrFormat)
		}
		header[i] = line
	}

	if v := strings.TrimSpace(after(header[0], 27)); v != "2" {
		return nil, fmt.Errorf("%w: unsupported version %q", ErrFormat, v)
	}
	if !strings.Contains(header[3], "zlib") {
		return nil, fmt.Errorf("%w: body is not zlib compressed", ErrFormat)
	}
	inv := &Inventory{
		Project: strings.TrimSpace(after(header[1], 11)),
		Version: strings.TrimSpace(after(header[2], 11)),
	}

	zr, err := zlib.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	defer zr.Close()
	body, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: decompressing: %v", ErrFormat, err)
	}

	sc := bufio.NewScanner(bytes.NewReader(body))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		e, ok, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrFormat, n, err)
		}
		if !ok {
			inv.Skipped++
			continue
		}
		inv.Entries = append(inv.Entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	inv.index()
	return inv, nil
}

func after(s string, n int) string {
	if len(s) < n {
		return ""
	}
	return s[n:]
}

// parseLine parses "name domain:role priority location dispname". A line
// that matches but names an unknown role or priority reports ok == false.
func parseLine(line string) (Entry, bool, error) {
	m := linePattern.FindStringSubmatch(line)
	if m == nil {
		return Entry{}, false, fmt.Errorf("malformed entry %q", line)
	}
	name, kind, prio, loc, disp := m[1], m[2], m[3], m[4], m[5]

	domain, role, found := strings.Cut(kind, ":")
	if !found {
		return Entry{}, false, nil
	}
	known, ok := roles[domain]
	if !ok {
		return Entry{}, false, nil
	}
	if _, ok := known[role]; !ok {
		return Entry{}, false, nil
	}

	priority, err := strconv.Atoi(prio)
	if err != nil || priority < -1 || priority > 2 {
		return Entry{}, false, nil
	}

	if strings.HasSuffix(loc, "$") {
		loc = strings.TrimSuffix(loc, "$") + name
	}
	if disp == "-" {
		disp = name
	}
	return Entry{
		Name:     name,
		Domain:   domain,
		Role:     role,
		Priority: priority,
		Location: loc,
		DispName: disp,
	}, true, nil
}

// index keeps the first py-domain entry per name.
func (inv *Inventory) index() {
	inv.byName = make(map[string]int)
	for i, e := range inv.Entries {
		if e.Domain != "py" {
			continue
		}
		if _, dup := inv.byName[e.Name]; !dup {
			inv.byName[e.Name] = i
		}
	}
}

// Lookup returns the Python entry for a dotted name.
func (inv *Inventory) Lookup(name string) (Entry, bool) {
	if inv.byName == nil {
		inv.index()
	}
	i, ok := inv.byName[name]
	if !ok {
		return Entry{}, false
	}
	return inv.Entries[i], true
}

// Resolve returns the absolute URL documenting name.
func (inv *Inventory) Resolve(name string) (string, bool) {
	e, ok := inv.Lookup(name)
	if !ok {
		return "", false
	}
	return joinURL(inv.BaseURL, e.Location), true
}

func joinURL(base, loc string) string {
	if base == "" {
		return loc
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(loc, "/")
}

// Set resolves names against several inventories in order.
type Set []*Inventory

// Resolve returns the first match.
func (s Set) Resolve(name string) (string, bool) {
	for _, inv := range s {
		if url, ok := inv.Resolve(name); ok {
			return url, true
		}
	}
	return "", false
}
