// Package keywords matches anonymized ordinance text against a
// controlled dictionary of juridic terms. The dictionary is loaded
// once at startup and read-only afterwards; matching is
// case-insensitive on whole tokens, longest match first, so
// "responsabilità civile" suppresses a separate hit on
// "responsabilità".
package keywords

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"
)

// Dictionary is the immutable juridic term set. Terms are stored
// lowercased and tokenized, ordered longest first so extraction can
// stop at the first term containing a shorter one.
type Dictionary struct {
	terms []term
}

type term struct {
	text   string // lowercased, single-spaced
	tokens []string
}

// Load reads a dictionary file, one term per line. Blank lines are
// skipped. An unreadable file is an error the caller must treat as
// fatal: serving without the dictionary would silently publish
// ordinances with no keywords.
func Load(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dictionary: %w", err)
	}
	defer f.Close()

	var terms []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			terms = append(terms, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	return New(terms), nil
}

// New builds a Dictionary from a term list. Duplicates collapse.
func New(entries []string) *Dictionary {
	seen := make(map[string]bool, len(entries))
	terms := make([]term, 0, len(entries))
	for _, e := range entries {
		tokens := tokenize(e)
		if len(tokens) == 0 {
			continue
		}
		text := strings.Join(tokens, " ")
		if seen[text] {
			continue
		}
		seen[text] = true
		terms = append(terms, term{text: text, tokens: tokens})
	}
	// Longest first; equal lengths alphabetical so extraction order is
	// deterministic regardless of input order.
	sort.Slice(terms, func(i, j int) bool {
		if len(terms[i].text) != len(terms[j].text) {
			return len(terms[i].text) > len(terms[j].text)
		}
		return terms[i].text < terms[j].text
	})
	return &Dictionary{terms: terms}
}

// Len returns the number of distinct terms.
func (d *Dictionary) Len() int {
	return len(d.terms)
}

// Options tune extraction. The zero value means MinFrequency 1 and no
// TopK cut.
type Options struct {
	// MinFrequency is the minimum number of occurrences for a term to
	// be reported. Values below 1 are treated as 1.
	MinFrequency int `json:"min_frequency" yaml:"min_frequency"`

	// TopK caps the number of reported terms, most frequent first.
	// 0 reports all.
	TopK int `json:"top_k" yaml:"top_k"`
}

// Extract returns the juridic keywords found in text, lowercased,
// ordered by frequency (ties alphabetical). A term whose text is
// contained in an already-matched longer term is suppressed even when
// it also occurs on its own.
func (d *Dictionary) Extract(text string, opts Options) []string {
	minFreq := opts.MinFrequency
	if minFreq < 1 {
		minFreq = 1
	}

	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil
	}

	type match struct {
		text  string
		count int
	}
	var matches []match
	for _, t := range d.terms {
		n := countOccurrences(tokens, t.tokens)
		if n < minFreq {
			continue
		}
		suppressed := false
		for _, m := range matches {
			if strings.Contains(" "+m.text+" ", " "+t.text+" ") {
				suppressed = true
				break
			}
		}
		if suppressed {
			continue
		}
		matches = append(matches, match{text: t.text, count: n})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].count != matches[j].count {
			return matches[i].count > matches[j].count
		}
		return matches[i].text < matches[j].text
	})
	if opts.TopK > 0 && len(matches) > opts.TopK {
		matches = matches[:opts.TopK]
	}

	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.text
	}
	return out
}

// countOccurrences counts contiguous occurrences of needle in haystack.
func countOccurrences(haystack, needle []string) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return 0
	}
	count := 0
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j, tok := range needle {
			if haystack[i+j] != tok {
				continue outer
			}
		}
		count++
	}
	return count
}

// tokenize lowercases and splits on anything that is not a letter or
// digit, so punctuation never blocks a match.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
