package keywords

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestExtractLongestMatchWins(t *testing.T) {
	// WHAT: When "responsabilità civile" matches, the sub-term
	// "responsabilità" is not reported separately.
	// WHY: Sub-terms of a matched multi-word term carry no extra signal.
	d := New([]string{"responsabilità", "responsabilità civile"})
	got := d.Extract("Si discute di responsabilità civile del custode.", Options{})
	want := []string{"responsabilità civile"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("keywords: got %q, want %q", got, want)
	}
}

func TestExtractCaseAndPunctuationInsensitive(t *testing.T) {
	// WHAT: Matching ignores case and surrounding punctuation; output is
	// lowercased.
	d := New([]string{"misura alternativa"})
	got := d.Extract("La Misura Alternativa, ove concessa, decorre subito.", Options{})
	if !reflect.DeepEqual(got, []string{"misura alternativa"}) {
		t.Errorf("keywords: %q", got)
	}
}

func TestExtractNoPartialTokenMatch(t *testing.T) {
	// WHAT: "pena" does not match inside "penale".
	// WHY: Matching is whole-token, not substring.
	d := New([]string{"pena"})
	if got := d.Extract("Il processo penale continua.", Options{}); len(got) != 0 {
		t.Errorf("keywords: %q", got)
	}
}

func TestExtractMinFrequency(t *testing.T) {
	// WHAT: A term occurring once is reported at MinFrequency 1 and
	// dropped at MinFrequency 2.
	// WHY: One occurrence already counts; the threshold is inclusive.
	d := New([]string{"reclamo"})
	text := "Il reclamo è ammissibile."

	if got := d.Extract(text, Options{MinFrequency: 1}); len(got) != 1 {
		t.Errorf("min_frequency 1: %q", got)
	}
	if got := d.Extract(text, Options{MinFrequency: 2}); len(got) != 0 {
		t.Errorf("min_frequency 2: %q", got)
	}
}

func TestExtractTopKByFrequency(t *testing.T) {
	// WHAT: TopK keeps the most frequent terms; ties break alphabetically.
	d := New([]string{"reclamo", "permesso", "affidamento"})
	text := "reclamo reclamo reclamo permesso permesso affidamento"

	got := d.Extract(text, Options{TopK: 2})
	want := []string{"reclamo", "permesso"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("keywords: got %q, want %q", got, want)
	}
}

func TestExtractDeterministic(t *testing.T) {
	// WHAT: The same text yields the same keyword list on every run.
	// WHY: Keyword rows feed the search index; order must not depend on
	// map iteration.
	d := New([]string{"ordinamento penitenziario", "reclamo", "permesso premio"})
	text := "Il reclamo sul permesso premio ai sensi dell'ordinamento penitenziario. Il reclamo è fondato."

	first := d.Extract(text, Options{})
	for i := 0; i < 10; i++ {
		if got := d.Extract(text, Options{}); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d: got %q, want %q", i, got, first)
		}
	}
	if first[0] != "reclamo" {
		t.Errorf("most frequent first: %q", first)
	}
}

func TestLoad(t *testing.T) {
	// WHAT: One term per line, blank lines skipped, duplicates collapse.
	path := filepath.Join(t.TempDir(), "juridic.txt")
	content := "responsabilità civile\n\nreclamo\nreclamo\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write dictionary: %v", err)
	}

	d, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if d.Len() != 2 {
		t.Errorf("terms: got %d, want 2", d.Len())
	}
}

func TestLoadMissingFile(t *testing.T) {
	// WHAT: A missing dictionary file is an error.
	// WHY: Startup must fail loudly instead of indexing without keywords.
	if _, err := Load(filepath.Join(t.TempDir(), "absent.txt")); err == nil {
		t.Fatal("expected error")
	}
}
