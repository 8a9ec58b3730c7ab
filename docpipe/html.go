package docpipe

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// extractHTML converts an HTML upload to plain text. The markup is
// sanitized first so scripts, styles and event handlers never reach
// the converter, then turned into Markdown and flattened by the
// Markdown extractor. If conversion yields nothing, a plain DOM text
// walk is the fallback.
func (p *Pipeline) extractHTML(data []byte) (string, error) {
	sanitized := p.sanitizer.SanitizeBytes(data)

	md, err := p.mdConverter.ConvertString(string(sanitized))
	if err == nil && strings.TrimSpace(md) != "" {
		return extractMarkdown([]byte(md))
	}

	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	text := collectHTMLText(doc)
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

// collectHTMLText extracts all visible text from a node subtree.
func collectHTMLText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				if sb.Len() > 0 {
					sb.WriteByte('\n')
				}
				sb.WriteString(text)
			}
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
