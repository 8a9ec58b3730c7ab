package ner

import "fmt"

// EntityType classifies a detected span. The set is closed: anything
// the model emits outside of it is rejected at the client boundary.
type EntityType string

const (
	EntityPerson       EntityType = "PERSON"
	EntityLocation     EntityType = "LOCATION"
	EntityOrganization EntityType = "ORGANIZATION"
	EntityDate         EntityType = "DATE"
	EntityMisc         EntityType = "MISC"
)

// Annotation is one recognized span within a sentence. Start and End
// are rune offsets into the original sentence (half-open interval).
// Redacted is set by the anonymizer once the span has been replaced.
type Annotation struct {
	Start      int        `json:"start"`
	End        int        `json:"end"`
	Type       EntityType `json:"type"`
	Confidence float64    `json:"confidence"`
	Redacted   bool       `json:"redacted"`
}

// wireLabels maps the model's span labels onto the closed entity set.
// The annotation model is trained on PER/LOC/ORG/TIME/MISC; the spaCy
// fallback emits the long forms.
var wireLabels = map[string]EntityType{
	"PER":          EntityPerson,
	"PERSON":       EntityPerson,
	"LOC":          EntityLocation,
	"LOCATION":     EntityLocation,
	"GPE":          EntityLocation,
	"ORG":          EntityOrganization,
	"ORGANIZATION": EntityOrganization,
	"TIME":         EntityDate,
	"DATE":         EntityDate,
	"MISC":         EntityMisc,
}

// mapLabel converts a wire label to an EntityType.
func mapLabel(label string) (EntityType, error) {
	t, ok := wireLabels[label]
	if !ok {
		return "", fmt.Errorf("%w: label %q", ErrInvalidSpan, label)
	}
	return t, nil
}

// validate checks an annotation against the sentence it annotates.
// sentenceLen is the rune length of the sentence.
func (a Annotation) validate(sentenceLen int) error {
	if a.Start < 0 || a.End <= a.Start || a.End > sentenceLen {
		return fmt.Errorf("%w: offsets [%d,%d) outside sentence of length %d",
			ErrInvalidSpan, a.Start, a.End, sentenceLen)
	}
	if a.Confidence < 0 || a.Confidence > 1 {
		return fmt.Errorf("%w: confidence %g outside [0,1]", ErrInvalidSpan, a.Confidence)
	}
	return nil
}
