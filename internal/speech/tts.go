package speech

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// maxChunkChars is the per-request text limit of the TTS endpoint. Longer
// inputs are synthesized in chunks and the MP3 frames concatenated.
const maxChunkChars = 200

const defaultTTSBaseURL = "https://translate.google.com"

// GoogleSynthesizer renders speech through the Google Translate TTS endpoint.
type GoogleSynthesizer struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

// GoogleSynthesizerOption configures the synthesizer.
type GoogleSynthesizerOption func(*GoogleSynthesizer)

// WithTTSBaseURL sets a custom base URL (used by tests).
func WithTTSBaseURL(url string) GoogleSynthesizerOption {
	return func(s *GoogleSynthesizer) { s.baseURL = strings.TrimRight(url, "/") }
}

// WithTTSHTTPClient sets a custom HTTP client.
func WithTTSHTTPClient(client *http.Client) GoogleSynthesizerOption {
	return func(s *GoogleSynthesizer) { s.client = client }
}

// NewGoogleSynthesizer creates a synthesizer.
func NewGoogleSynthesizer(userAgent string, opts ...GoogleSynthesizerOption) *GoogleSynthesizer {
	s := &GoogleSynthesizer{
		baseURL:   defaultTTSBaseURL,
		userAgent: userAgent,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize renders text as an MP3 named speech.mp3 inside a fresh
// temporary directory. The caller must remove the directory.
func (s *GoogleSynthesizer) Synthesize(ctx context.Context, text, lang string) (string, string, error) {
	chunks := chunkText(text, maxChunkChars)
	if len(chunks) == 0 {
		return "", "", fmt.Errorf("tts: empty text")
	}

	tempDir, err := os.MkdirTemp("", "newslens-tts-")
	if err != nil {
		return "", "", fmt.Errorf("tts: create temp dir: %w", err)
	}

	audioPath := filepath.Join(tempDir, "speech.mp3")
	out, err := os.Create(audioPath)
	if err != nil {
		os.RemoveAll(tempDir)
		return "", "", fmt.Errorf("tts: create audio file: %w", err)
	}
	defer out.Close()

	for _, chunk := range chunks {
		if err := s.fetchChunk(ctx, chunk, lang, out); err != nil {
			os.RemoveAll(tempDir)
			return "", "", err
		}
	}

	return audioPath, tempDir, nil
}

// fetchChunk downloads the audio for one chunk and appends it to out.
// Concatenated MPEG frames play back as one continuous stream.
func (s *GoogleSynthesizer) fetchChunk(ctx context.Context, chunk, lang string, out io.Writer) error {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", lang)
	q.Set("q", chunk)
	q.Set("textlen", strconv.Itoa(len([]rune(chunk))))

	reqURL := s.baseURL + "/translate_tts?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tts: HTTP %d", resp.StatusCode)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("tts: write audio: %w", err)
	}
	return nil
}

// chunkText splits text into rune-safe pieces of at most max runes,
// preferring to break at word boundaries.
func chunkText(text string, max int) []string {
	words := strings.Fields(text)
	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, word := range words {
		runes := []rune(word)

		// A single word longer than max gets hard-split.
		for len(runes) > max {
			flush()
			chunks = append(chunks, string(runes[:max]))
			runes = runes[max:]
		}
		word = string(runes)

		sep := 0
		if current.Len() > 0 {
			sep = 1
		}
		if len([]rune(current.String()))+sep+len(runes) > max {
			flush()
			sep = 0
		}
		if sep == 1 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}
	flush()

	return chunks
}
