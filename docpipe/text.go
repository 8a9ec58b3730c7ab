package docpipe

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// extractText handles plain text uploads.
func extractText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("not valid UTF-8")
	}
	return string(data), nil
}

// extractMarkdown strips Markdown structure down to plain lines:
// heading markers, list bullets, emphasis and link syntax go away, the
// text stays. Good enough for converted HTML and .md uploads; the
// ordinances themselves never carry nested Markdown.
func extractMarkdown(data []byte) (string, error) {
	text, err := extractText(data)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		trimmed = strings.TrimLeft(trimmed, "#>")
		trimmed = strings.TrimSpace(trimmed)
		if after, ok := cutListMarker(trimmed); ok {
			trimmed = after
		}
		trimmed = strings.ReplaceAll(trimmed, "**", "")
		trimmed = strings.ReplaceAll(trimmed, "__", "")
		if trimmed == "" || isMarkdownRule(trimmed) {
			sb.WriteByte('\n')
			continue
		}
		sb.WriteString(trimmed)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

func cutListMarker(line string) (string, bool) {
	for _, marker := range []string{"- ", "* ", "+ "} {
		if after, ok := strings.CutPrefix(line, marker); ok {
			return strings.TrimSpace(after), true
		}
	}
	return line, false
}

func isMarkdownRule(line string) bool {
	if len(line) < 3 {
		return false
	}
	for _, r := range line {
		if r != '-' && r != '*' && r != '_' && r != '|' {
			return false
		}
	}
	return true
}
