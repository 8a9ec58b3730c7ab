package ner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"unicode/utf8"
)

// Client implements Recognizer against the remote annotation service.
type Client struct {
	endpoint string
	client   *http.Client
	cfg      Config
}

func newClient(cfg Config) *Client {
	return &Client{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		client:   &http.Client{Timeout: cfg.Timeout},
		cfg:      cfg,
	}
}

// predictRequest is the JSON body sent to /predictions.
type predictRequest struct {
	Content string `json:"content"`
}

// predictSpan is one Prodigy-style span in the response. Score is
// optional on the wire; absent means the model does not expose
// per-span confidence and the span counts as certain.
type predictSpan struct {
	Start int      `json:"start"`
	End   int      `json:"end"`
	Label string   `json:"label"`
	Score *float64 `json:"score,omitempty"`
}

// Recognize calls the annotation service for one sentence.
func (c *Client) Recognize(ctx context.Context, sentence string) ([]Annotation, error) {
	if strings.TrimSpace(sentence) == "" {
		return []Annotation{}, nil
	}

	body, err := json.Marshal(predictRequest{Content: sentence})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := c.endpoint + "/predictions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP POST %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("HTTP %d from %s: %s", resp.StatusCode, url, string(respBody))
	}

	var spans []predictSpan
	if err := json.NewDecoder(resp.Body).Decode(&spans); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	sentenceLen := utf8.RuneCountInString(sentence)
	anns := make([]Annotation, 0, len(spans))
	for _, s := range spans {
		t, err := mapLabel(s.Label)
		if err != nil {
			return nil, err
		}
		conf := 1.0
		if s.Score != nil {
			conf = *s.Score
		}
		a := Annotation{Start: s.Start, End: s.End, Type: t, Confidence: conf}
		if err := a.validate(sentenceLen); err != nil {
			return nil, err
		}
		anns = append(anns, a)
	}

	sort.SliceStable(anns, func(i, j int) bool { return anns[i].Start < anns[j].Start })
	return anns, nil
}

// Check verifies the annotation service is reachable. The service
// exposes GET /hello as its liveness probe; anything but 200 means the
// model failed to load and the pipeline cannot serve.
func (c *Client) Check(ctx context.Context) error {
	url := c.endpoint + "/hello"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 128))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: HTTP %d from %s", ErrUnavailable, resp.StatusCode, url)
	}
	return nil
}
