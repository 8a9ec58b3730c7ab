// Package anonymize rewrites sentences by replacing recognized entity
// spans with numbered pseudonyms. Replacement is driven by a
// per-document Registry, so every mention of the same surface form
// gets the same pseudonym within a document and a fresh one in the
// next. The rewritten text is checked before it leaves the package:
// if any redacted surface form still appears in the output, the
// document is rejected rather than published with a leak.
package anonymize

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/karjudev/dbgm/ner"
)

// ErrLeak is returned when a redacted surface form is still present in
// the anonymized text. Fatal for the whole document.
var ErrLeak = errors.New("anonymize: redacted surface form present in output")

// Policy selects which entity types are redacted. Person, location and
// organization spans are always redacted regardless of policy; dates
// and miscellaneous spans are optional because some deployments keep
// hearing dates readable. The zero value redacts nothing optional;
// DefaultPolicy redacts everything.
type Policy struct {
	RedactDates bool `yaml:"redact_dates" json:"redact_dates"`
	RedactMisc  bool `yaml:"redact_misc" json:"redact_misc"`
}

// DefaultPolicy redacts every entity type.
func DefaultPolicy() Policy {
	return Policy{RedactDates: true, RedactMisc: true}
}

func (p Policy) redacts(t ner.EntityType) bool {
	switch t {
	case ner.EntityPerson, ner.EntityLocation, ner.EntityOrganization:
		return true
	case ner.EntityDate:
		return p.RedactDates
	case ner.EntityMisc:
		return p.RedactMisc
	}
	return false
}

// Sentence rewrites one sentence, replacing each policy-selected span
// with its pseudonym from reg. It returns the rewritten text and a
// copy of the annotations with Redacted set on the spans that were
// replaced. Overlapping spans are resolved before rewriting: the span
// with the higher confidence wins, ties go to the longer span.
//
// After rewriting, every surface form consumed so far by reg must be
// absent from the output (case-folded substring check). A hit returns
// ErrLeak and the caller must abort the document.
func Sentence(text string, anns []ner.Annotation, policy Policy, reg *Registry) (string, []ner.Annotation, error) {
	out := make([]ner.Annotation, len(anns))
	copy(out, anns)

	if text == "" {
		return text, out, nil
	}

	runes := []rune(text)
	keep := selectSpans(out, policy, len(runes))

	// Resolve in reading order so ordinals follow first appearance:
	// the leftmost new surface form of a type gets the next ordinal.
	pseudonyms := make([]string, len(keep))
	for i, idx := range keep {
		a := out[idx]
		surface := string(runes[a.Start:a.End])
		pseudonyms[i] = reg.Resolve(NormalizeSurface(surface), a.Type)
	}

	// Splice right to left so earlier offsets stay valid while later
	// spans are replaced.
	rewritten := runes
	for i := len(keep) - 1; i >= 0; i-- {
		idx := keep[i]
		a := out[idx]
		rewritten = splice(rewritten, a.Start, a.End, pseudonyms[i])
		out[idx].Redacted = true
	}

	result := string(rewritten)
	if err := checkLeak(result, reg); err != nil {
		return "", nil, err
	}
	return result, out, nil
}

// selectSpans filters annotations by policy and resolves overlaps,
// returning indices into anns ordered by start offset. On overlap the
// higher-confidence span survives; equal confidence keeps the longer
// span.
func selectSpans(anns []ner.Annotation, policy Policy, sentenceLen int) []int {
	candidates := make([]int, 0, len(anns))
	for i, a := range anns {
		if a.Start < 0 || a.End > sentenceLen || a.End <= a.Start {
			continue
		}
		if policy.redacts(a.Type) {
			candidates = append(candidates, i)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return anns[candidates[i]].Start < anns[candidates[j]].Start
	})

	keep := candidates[:0]
	for _, idx := range candidates {
		a := anns[idx]
		if len(keep) > 0 {
			prev := anns[keep[len(keep)-1]]
			if a.Start < prev.End {
				if wins(a, prev) {
					keep[len(keep)-1] = idx
				}
				continue
			}
		}
		keep = append(keep, idx)
	}
	return keep
}

// wins reports whether challenger displaces incumbent in an overlap.
func wins(challenger, incumbent ner.Annotation) bool {
	if challenger.Confidence != incumbent.Confidence {
		return challenger.Confidence > incumbent.Confidence
	}
	return (challenger.End - challenger.Start) > (incumbent.End - incumbent.Start)
}

// splice replaces runes[start:end] with the replacement string.
func splice(runes []rune, start, end int, replacement string) []rune {
	out := make([]rune, 0, len(runes)-(end-start)+len(replacement))
	out = append(out, runes[:start]...)
	out = append(out, []rune(replacement)...)
	out = append(out, runes[end:]...)
	return out
}

// checkLeak verifies no registered surface form survives in the
// rewritten text. The check is a case-folded substring scan over every
// form the registry has seen so far in the document, which also
// catches a form redacted in one sentence leaking through an
// unannotated mention in another.
func checkLeak(text string, reg *Registry) error {
	folded := strings.ToLower(text)
	for _, form := range reg.Forms() {
		if form == "" {
			continue
		}
		if strings.Contains(folded, form) {
			return fmt.Errorf("%w: %q", ErrLeak, form)
		}
	}
	return nil
}
