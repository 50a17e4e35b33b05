package render

import "strings"

// Markdown renders plain Markdown pages.
type Markdown struct{}

// FrontMatter renders the title as a level-1 header.
func (Markdown) FrontMatter(title string) string {
	if title == "" {
		return ""
	}
	return markdownHeader(title, 1)
}

func (Markdown) Header(content string, level int) string {
	return markdownHeader(content, level)
}

func (Markdown) Text(s string) string { return s }

func (Markdown) Signature(sig string) string { return sig }

func (Markdown) ExternalRef(text, url string) string {
	return markdownLink(text, url)
}

func (Markdown) InternalRef(text, from, to string) string {
	return markdownLink(text, relativeLink(from, to))
}

func (Markdown) Extension() string { return ".md" }

func (Markdown) IndexFile() string { return "index.md" }

func (Markdown) Finalize(_ string, doc []byte) ([]byte, error) { return doc, nil }

func markdownHeader(content string, level int) string {
	if level < 1 {
		level = 1
	}
	return strings.Repeat("#", level) + " " + content + "\n"
}

func markdownLink(text, target string) string {
	return "[" + text + "](" + target + ")"
}
