package docpipe

import (
	"regexp"
	"strings"
)

// Ordinances come out of word processors and court scanners with the
// same recurring noise: stray filename lines, register numbers
// ("N° 2022/124 SIUS") that identify the proceeding, and the canonical
// section headings spaced out letter by letter. NormalizeOrdinance
// repairs the headings to their canonical uppercase form, scrubs the
// register numbers, drops filename lines and collapses whitespace,
// one output line per input line.
var (
	filenameLineRe = regexp.MustCompile(`(?im)^[\w,\t -]+\.[a-z]{2,4}$`)
	registerNumRe  = regexp.MustCompile(`(?i)n\s*[.°]?\s*\d+/\d+\s*s(?:ius|iep|\d+)`)

	headingRes = []struct {
		re        *regexp.Regexp
		canonical string
	}{
		{regexp.MustCompile(`(?im)^[\t ]*o[\t ]*r[\t ]*d[\t ]*i[\t ]*n[\t ]*a[\t ]*n[\t ]*z[\t ]*a[\t ]*$`), "ORDINANZA"},
		{regexp.MustCompile(`(?im)^[\t ]*d[\t ]*i[\t ]*s[\t ]*p[\t ]*o[\t ]*n[\t ]*e[\t ]*$`), "DISPONE"},
		{regexp.MustCompile(`(?im)^[\t ]*o[\t ]*s[\t ]*s[\t ]*e[\t ]*r[\t ]*v[\t ]*a[\t ]*$`), "OSSERVA"},
		{regexp.MustCompile(`(?im)^[\t ]*(?:p\.?[\t ]*q\.?[\t ]*m\.?|per[\t ]+questi[\t ]+motivi)[\t ]*$`), "PER QUESTI MOTIVI"},
	}
)

// NormalizeOrdinance applies the ordinance cleanup pass to extracted
// text.
func NormalizeOrdinance(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	text = filenameLineRe.ReplaceAllString(text, "")
	text = registerNumRe.ReplaceAllString(text, "")
	for _, h := range headingRes {
		text = h.re.ReplaceAllString(text, h.canonical)
	}

	var sb strings.Builder
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n")
}
