package render

import (
	"bytes"
	"fmt"

	"github.com/BurntSushi/toml"
)

// Zola renders Markdown pages for the Zola static site generator: TOML front
// matter and @/ content links.
type Zola struct {
	UseShortcodes bool
}

type zolaFrontMatter struct {
	Title string `toml:"title"`
}

// FrontMatter renders a +++ delimited TOML block; an empty title leaves it empty.
func (Zola) FrontMatter(title string) string {
	var b bytes.Buffer
	b.WriteString("+++\n")
	if title != "" {
		// Encoding a single string field into a buffer cannot fail.
		_ = toml.NewEncoder(&b).Encode(zolaFrontMatter{Title: title})
	}
	b.WriteString("+++\n")
	return b.String()
}

func (Zola) Header(content string, level int) string {
	return markdownHeader(content, level)
}

func (Zola) Text(s string) string { return s }

func (Zola) Signature(sig string) string { return sig }

func (Zola) ExternalRef(text, url string) string {
	return markdownLink(text, url)
}

// InternalRef links by content path. With shortcodes enabled it invokes a
// ref shortcode instead.
func (z Zola) InternalRef(text, _, to string) string {
	if z.UseShortcodes {
		return fmt.Sprintf(`{{ ref(text=%q, path="@/%s") }}`, text, to)
	}
	return markdownLink(text, "@/"+to)
}

func (Zola) Extension() string { return ".md" }

func (Zola) IndexFile() string { return "_index.md" }

func (Zola) Finalize(_ string, doc []byte) ([]byte, error) { return doc, nil }
