package ner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestService(t *testing.T, spans []predictSpan) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/hello", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode("HELLO")
	})
	mux.HandleFunc("/predictions", func(w http.ResponseWriter, r *http.Request) {
		var req predictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), 400)
			return
		}
		json.NewEncoder(w).Encode(spans)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRecognizeMapsWireLabels(t *testing.T) {
	// WHAT: Model labels (PER, LOC, TIME) map onto the closed entity set.
	// WHY: The anonymizer's policy switches on EntityType, never on wire labels.
	score := 0.95
	srv := newTestService(t, []predictSpan{
		{Start: 0, End: 11, Label: "PER", Score: &score},
		{Start: 20, End: 24, Label: "LOC"},
	})
	rec := New(Config{Endpoint: srv.URL})

	anns, err := rec.Recognize(context.Background(), "Mario Rossi abita a Pisa.")
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if len(anns) != 2 {
		t.Fatalf("count: got %d, want 2", len(anns))
	}
	if anns[0].Type != EntityPerson {
		t.Errorf("type: got %s, want PERSON", anns[0].Type)
	}
	if anns[0].Confidence != 0.95 {
		t.Errorf("confidence: got %g", anns[0].Confidence)
	}
	// Score absent on the wire counts as certain.
	if anns[1].Type != EntityLocation || anns[1].Confidence != 1.0 {
		t.Errorf("second span: %+v", anns[1])
	}
}

func TestRecognizeEmptySentence(t *testing.T) {
	// WHAT: Empty input yields an empty sequence without calling the model.
	// WHY: Empty sentences are valid input, not errors.
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(500)
	}))
	t.Cleanup(srv.Close)
	rec := New(Config{Endpoint: srv.URL})

	anns, err := rec.Recognize(context.Background(), "   ")
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if len(anns) != 0 {
		t.Errorf("annotations: got %d, want 0", len(anns))
	}
	if called {
		t.Error("model should not be called for empty input")
	}
}

func TestRecognizeRejectsInvalidSpans(t *testing.T) {
	// WHAT: Out-of-range offsets and unknown labels are per-sentence errors.
	// WHY: A corrupt model payload must never be published as an empty result.
	cases := []struct {
		name string
		span predictSpan
	}{
		{"offsets beyond sentence", predictSpan{Start: 0, End: 999, Label: "PER"}},
		{"negative start", predictSpan{Start: -1, End: 4, Label: "PER"}},
		{"unknown label", predictSpan{Start: 0, End: 4, Label: "BANANA"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestService(t, []predictSpan{tc.span})
			rec := New(Config{Endpoint: srv.URL})
			_, err := rec.Recognize(context.Background(), "Mario Rossi abita a Pisa.")
			if err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestRecognizeSortsByStart(t *testing.T) {
	// WHAT: Annotations come back ordered by start offset.
	// WHY: The anonymizer rebuilds the sentence left to right.
	srv := newTestService(t, []predictSpan{
		{Start: 20, End: 24, Label: "LOC"},
		{Start: 0, End: 11, Label: "PER"},
	})
	rec := New(Config{Endpoint: srv.URL})

	anns, err := rec.Recognize(context.Background(), "Mario Rossi abita a Pisa.")
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if anns[0].Start != 0 || anns[1].Start != 20 {
		t.Errorf("order: %+v", anns)
	}
}

func TestCheck(t *testing.T) {
	// WHAT: Check succeeds against a live service and fails against a dead one.
	// WHY: Model load failure is fatal at startup, not at first request.
	srv := newTestService(t, nil)
	rec := New(Config{Endpoint: srv.URL})
	if err := rec.Check(context.Background()); err != nil {
		t.Errorf("check live service: %v", err)
	}

	srv.Close()
	if err := rec.Check(context.Background()); err == nil {
		t.Error("expected error for unreachable service")
	}
}
