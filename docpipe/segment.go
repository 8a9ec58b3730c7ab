package docpipe

import (
	"strings"
	"unicode"
)

// Abbreviations common in Italian judicial text. A period after one of
// these does not end a sentence.
var abbreviations = map[string]bool{
	"art":  true,
	"artt": true,
	"avv":  true,
	"c":    true,
	"cfr":  true,
	"co":   true,
	"dott": true,
	"lett": true,
	"n":    true,
	"pag":  true,
	"par":  true,
	"prof": true,
	"sig":  true,
	"ss":   true,
	"v":    true,
}

// SegmentSentences splits normalized text into sentences in document
// order. Line breaks always end a sentence (the normalizer emits one
// paragraph or heading per line); within a line, a period, question
// mark or exclamation mark followed by whitespace ends one, unless the
// period closes a known abbreviation, a single initial, or a number
// ("art. 41-bis", "n. 7", "M. Rossi").
func SegmentSentences(text string) []string {
	var sentences []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		sentences = append(sentences, splitLine(line)...)
	}
	return sentences
}

func splitLine(line string) []string {
	runes := []rune(line)
	var out []string
	start := 0

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if r == '.' && !endsSentence(runes[start:i]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			out = append(out, s)
		}
		start = i + 1
	}

	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

// endsSentence reports whether a period after prefix is a real
// sentence boundary, judged by the final word before the period.
func endsSentence(prefix []rune) bool {
	end := len(prefix)
	begin := end
	for begin > 0 && !unicode.IsSpace(prefix[begin-1]) {
		begin--
	}
	word := strings.ToLower(strings.Trim(string(prefix[begin:end]), ".,;:()[]"))
	if word == "" {
		return false
	}
	if abbreviations[word] {
		return false
	}
	// Dotted forms like "c.p" or "d.lgs" are abbreviations too.
	if strings.Contains(word, ".") {
		return false
	}
	// Single letters are initials, digits are enumeration labels.
	if len([]rune(word)) == 1 {
		return false
	}
	if strings.IndexFunc(word, unicode.IsLetter) == -1 {
		return false
	}
	return true
}
