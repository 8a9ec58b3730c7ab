package anonymize

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/karjudev/dbgm/ner"
)

// Registry maps normalized entity surface forms to pseudonym tokens
// within one document. A Registry lives exactly as long as one
// document's pipeline run and is discarded after commit: pseudonym
// ordinals never carry across documents, so "PERSON_1" in two
// ordinances can never be linked back to the same person.
type Registry struct {
	entries map[registryKey]string
	counts  map[ner.EntityType]int
}

type registryKey struct {
	form string
	typ  ner.EntityType
}

// NewRegistry creates an empty per-document registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[registryKey]string),
		counts:  make(map[ner.EntityType]int),
	}
}

// Resolve returns the pseudonym for a normalized surface form, allocating
// "<TYPE>_<ordinal>" on first sight. Ordinals are 1-based and count the
// distinct forms of that type seen so far in the document, so identical
// (form, type) pairs always resolve to the identical pseudonym and
// distinct forms never collide.
func (r *Registry) Resolve(form string, typ ner.EntityType) string {
	k := registryKey{form: form, typ: typ}
	if p, ok := r.entries[k]; ok {
		return p
	}
	r.counts[typ]++
	p := fmt.Sprintf("%s_%d", typ, r.counts[typ])
	r.entries[k] = p
	return p
}

// Len returns the number of distinct forms registered.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Forms returns every registered surface form. Used by the anonymizer's
// leak check after the whole document has been rewritten.
func (r *Registry) Forms() []string {
	forms := make([]string, 0, len(r.entries))
	for k := range r.entries {
		forms = append(forms, k.form)
	}
	return forms
}

// NormalizeSurface canonicalizes an entity surface form for registry
// lookup: case-fold, strip surrounding punctuation and whitespace,
// collapse inner runs of whitespace. "Rossi," and "rossi" are the same
// person.
func NormalizeSurface(s string) string {
	s = strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}
