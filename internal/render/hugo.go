package render

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Hugo renders Markdown pages for the Hugo static site generator.
type Hugo struct {
	UseShortcodes bool
}

type hugoFrontMatter struct {
	Title string `yaml:"title,omitempty"`
}

// FrontMatter renders a --- delimited YAML block.
func (Hugo) FrontMatter(title string) string {
	if title == "" {
		return "---\n---\n"
	}
	// Marshalling a single string field cannot fail.
	out, _ := yaml.Marshal(hugoFrontMatter{Title: title})
	return "---\n" + string(out) + "---\n"
}

func (Hugo) Header(content string, level int) string {
	return markdownHeader(content, level)
}

func (Hugo) Text(s string) string { return s }

func (Hugo) Signature(sig string) string { return sig }

func (Hugo) ExternalRef(text, url string) string {
	return markdownLink(text, url)
}

func (h Hugo) InternalRef(text, from, to string) string {
	if h.UseShortcodes {
		return markdownLink(text, fmt.Sprintf(`{{< ref "/%s" >}}`, to))
	}
	return markdownLink(text, relativeLink(from, to))
}

func (Hugo) Extension() string { return ".md" }

func (Hugo) IndexFile() string { return "_index.md" }

func (Hugo) Finalize(_ string, doc []byte) ([]byte, error) { return doc, nil }
