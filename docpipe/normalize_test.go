package docpipe

import (
	"reflect"
	"testing"
)

func TestNormalizeOrdinanceHeadings(t *testing.T) {
	// WHAT: Spaced-out and lowercase heading lines repair to canonical form.
	// WHY: The headings anchor section boundaries for readers and keywords.
	cases := []struct{ in, want string }{
		{"o r d i n a n z a", "ORDINANZA"},
		{"  Dispone  ", "DISPONE"},
		{"OSSERVA", "OSSERVA"},
		{"P.Q.M.", "PER QUESTI MOTIVI"},
		{"per questi motivi", "PER QUESTI MOTIVI"},
	}
	for _, tc := range cases {
		if got := NormalizeOrdinance(tc.in); got != tc.want {
			t.Errorf("NormalizeOrdinance(%q): got %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeOrdinanceScrubsRegisterNumbers(t *testing.T) {
	// WHAT: Register numbers like "N° 2022/124 SIUS" disappear.
	// WHY: The number identifies the proceeding, so it is personal data.
	cases := []struct{ in, want string }{
		{"Ordinanza N° 2022/124 SIUS del tribunale", "Ordinanza del tribunale"},
		{"proc. n. 11/2022 siep in epigrafe", "proc. in epigrafe"},
	}
	for _, tc := range cases {
		if got := NormalizeOrdinance(tc.in); got != tc.want {
			t.Errorf("NormalizeOrdinance(%q): got %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeOrdinanceDropsFilenameLines(t *testing.T) {
	// WHAT: A line that is just a filename is removed.
	got := NormalizeOrdinance("ordinanza-2022.docx\nIl tribunale dispone.")
	if got != "Il tribunale dispone." {
		t.Errorf("got %q", got)
	}
}

func TestNormalizeOrdinanceCollapsesWhitespace(t *testing.T) {
	// WHAT: Space runs collapse, empty lines disappear, line structure stays.
	got := NormalizeOrdinance("Il   tribunale\n\n\n  dispone   la misura  ")
	if got != "Il tribunale\ndispone la misura" {
		t.Errorf("got %q", got)
	}
}

func TestSegmentSentences(t *testing.T) {
	// WHAT: Abbreviations, initials and numbers do not end sentences;
	// real terminators do.
	text := "Il ricorso ex art. 41-bis c.p. del sig. M. Rossi è accolto. La misura decorre dal deposito.\nPER QUESTI MOTIVI"
	want := []string{
		"Il ricorso ex art. 41-bis c.p. del sig. M. Rossi è accolto.",
		"La misura decorre dal deposito.",
		"PER QUESTI MOTIVI",
	}
	got := SegmentSentences(text)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("segments:\n got %q\nwant %q", got, want)
	}
}

func TestSegmentSentencesEmpty(t *testing.T) {
	// WHAT: Blank input yields no sentences.
	if got := SegmentSentences("  \n \n"); len(got) != 0 {
		t.Errorf("got %q", got)
	}
}
