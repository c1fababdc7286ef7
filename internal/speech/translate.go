package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxTranslateChars caps the input sent to the translation endpoint.
const maxTranslateChars = 5000

const defaultTranslateBaseURL = "https://translate.googleapis.com"

// GoogleTranslator translates text through the free Google Translate web
// endpoint (the same one the gtx web client uses).
type GoogleTranslator struct {
	baseURL string
	client  *http.Client
}

// GoogleTranslatorOption configures the translator.
type GoogleTranslatorOption func(*GoogleTranslator)

// WithTranslateBaseURL sets a custom base URL (used by tests).
func WithTranslateBaseURL(url string) GoogleTranslatorOption {
	return func(t *GoogleTranslator) { t.baseURL = strings.TrimRight(url, "/") }
}

// WithTranslateHTTPClient sets a custom HTTP client.
func WithTranslateHTTPClient(client *http.Client) GoogleTranslatorOption {
	return func(t *GoogleTranslator) { t.client = client }
}

// NewGoogleTranslator creates a translator.
func NewGoogleTranslator(opts ...GoogleTranslatorOption) *GoogleTranslator {
	t := &GoogleTranslator{
		baseURL: defaultTranslateBaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Translate translates text into targetLang, auto-detecting the source
// language. Long inputs are truncated before sending.
func (t *GoogleTranslator) Translate(ctx context.Context, text, targetLang string) (string, error) {
	if len(text) > maxTranslateChars {
		text = text[:maxTranslateChars] + "..."
	}

	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", "auto")
	q.Set("tl", targetLang)
	q.Set("dt", "t")
	q.Set("q", text)

	reqURL := t.baseURL + "/translate_a/single?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translate: HTTP %d", resp.StatusCode)
	}

	var raw []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", fmt.Errorf("translate: decode response: %w", err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("translate: empty response")
	}

	// The first element is a list of segments; each segment's first element
	// is the translated text.
	var segments [][]json.RawMessage
	if err := json.Unmarshal(raw[0], &segments); err != nil {
		return "", fmt.Errorf("translate: decode segments: %w", err)
	}

	var b strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		var part string
		if err := json.Unmarshal(seg[0], &part); err != nil {
			continue
		}
		b.WriteString(part)
	}

	translated := b.String()
	if translated == "" {
		return "", fmt.Errorf("translate: no text in response")
	}
	return translated, nil
}
