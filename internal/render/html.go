package render

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// HTML renders standalone HTML pages. Pages are assembled as Markdown and
// converted in Finalize.
type HTML struct{}

var htmlMarkdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// markdownEscaper backslash-escapes the punctuation goldmark would read as
// emphasis, code, links, raw HTML or table cells.
var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	">", `\>`,
	"|", `\|`,
)

const htmlShell = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
%s</body>
</html>
`

// FrontMatter renders the title as a level-1 header; the page title itself
// is set in Finalize.
func (HTML) FrontMatter(title string) string {
	if title == "" {
		return ""
	}
	return markdownHeader(markdownEscaper.Replace(title), 1)
}

func (HTML) Header(content string, level int) string {
	return markdownHeader(markdownEscaper.Replace(content), level)
}

// Text escapes Markdown punctuation so names like __init__ stay literal.
func (HTML) Text(s string) string {
	return markdownEscaper.Replace(s)
}

// Signature renders sig as a code span so that * and _ survive conversion.
func (HTML) Signature(sig string) string {
	fence := "`"
	for strings.Contains(sig, fence) {
		fence += "`"
	}
	return fence + " " + sig + " " + fence
}

func (HTML) ExternalRef(text, url string) string {
	return markdownLink(markdownEscaper.Replace(text), url)
}

func (HTML) InternalRef(text, from, to string) string {
	return markdownLink(markdownEscaper.Replace(text), relativeLink(from, to))
}

func (HTML) Extension() string { return ".html" }

func (HTML) IndexFile() string { return "index.html" }

// Finalize converts the Markdown page to HTML and wraps it in a document.
func (HTML) Finalize(title string, doc []byte) ([]byte, error) {
	var body bytes.Buffer
	if err := htmlMarkdown.Convert(doc, &body); err != nil {
		return nil, fmt.Errorf("converting markdown: %w", err)
	}
	return []byte(fmt.Sprintf(htmlShell, html.EscapeString(title), body.String())), nil
}
