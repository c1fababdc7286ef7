package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rahulsidpara/newslens/internal/config"
)

// ════════════════════════════════════════════════════════════════════
// Gemini provider
// ════════════════════════════════════════════════════════════════════

func TestGeminiChatParsesResponse(t *testing.T) {
	var gotPath string
	var gotBody geminiRequest

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		resp := map[string]any{
			"candidates": []map[string]any{
				{
					"content":      map[string]any{"parts": []map[string]any{{"text": "hello "}, {"text": "world"}}},
					"finishReason": "STOP",
				},
			},
			"usageMetadata": map[string]int{
				"promptTokenCount":     10,
				"candidatesTokenCount": 2,
				"totalTokenCount":      12,
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer ts.Close()

	p, err := NewGeminiProvider("test-key", WithGeminiBaseURL(ts.URL), WithGeminiModel("gemini-1.5-pro"))
	if err != nil {
		t.Fatalf("NewGeminiProvider: %v", err)
	}

	resp, err := p.Chat(context.Background(), []Message{
		SystemMessage("You are a JSON generator."),
		UserMessage("Analyze this."),
	}, &ChatOptions{Temperature: 0.2, MaxTokens: 100})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if resp.Content != "hello world" {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 12 {
		t.Errorf("TotalTokens = %d, want 12", resp.Usage.TotalTokens)
	}
	if resp.Provider != ProviderGemini {
		t.Errorf("Provider = %q", resp.Provider)
	}
	if !strings.Contains(gotPath, "gemini-1.5-pro:generateContent") {
		t.Errorf("request path = %q", gotPath)
	}
	if gotBody.SystemInstruction == nil || gotBody.SystemInstruction.Parts[0].Text != "You are a JSON generator." {
		t.Errorf("system instruction not sent: %+v", gotBody.SystemInstruction)
	}
	if len(gotBody.Contents) != 1 || gotBody.Contents[0].Role != "user" {
		t.Errorf("contents = %+v", gotBody.Contents)
	}
	if gotBody.GenerationConfig == nil || gotBody.GenerationConfig.MaxOutputTokens != 100 {
		t.Errorf("generation config = %+v", gotBody.GenerationConfig)
	}
}

func TestGeminiChatErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		message string
		wantErr error
	}{
		{"unauthorized", http.StatusForbidden, "API key not valid", ErrNoAPIKey},
		{"rate limited", http.StatusTooManyRequests, "quota exceeded", ErrRateLimit},
		{"bad model", http.StatusBadRequest, "model not found", ErrInvalidModel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]any{"code": tt.status, "message": tt.message},
				})
			}))
			defer ts.Close()

			p, _ := NewGeminiProvider("test-key", WithGeminiBaseURL(ts.URL))
			_, err := p.Chat(context.Background(), []Message{UserMessage("x")}, nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.message) {
				t.Errorf("error %v does not carry API message %q", err, tt.message)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error %v, want wrapped %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewGeminiProviderRequiresKey(t *testing.T) {
	if _, err := NewGeminiProvider(""); err != ErrNoAPIKey {
		t.Errorf("err = %v, want ErrNoAPIKey", err)
	}
}

// ════════════════════════════════════════════════════════════════════
// OpenAI provider
// ════════════════════════════════════════════════════════════════════

func TestOpenAIChatParsesResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization = %q", auth)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "{\"ok\":true}"}, "finish_reason": "stop"},
			},
			"usage": map[string]int{"prompt_tokens": 5, "completion_tokens": 3, "total_tokens": 8},
		})
	}))
	defer ts.Close()

	p, err := NewOpenAIProvider("test-key", WithOpenAIBaseURL(ts.URL))
	if err != nil {
		t.Fatalf("NewOpenAIProvider: %v", err)
	}

	resp, err := p.Chat(context.Background(), []Message{UserMessage("hi")}, nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content != `{"ok":true}` {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 8 {
		t.Errorf("TotalTokens = %d", resp.Usage.TotalTokens)
	}
}

// ════════════════════════════════════════════════════════════════════
// Factory
// ════════════════════════════════════════════════════════════════════

func TestNewFromConfig(t *testing.T) {
	tests := []struct {
		name     string
		primary  string
		gemini   string
		openai   string
		wantName string
		wantErr  bool
	}{
		{"gemini default", "", "gkey", "", ProviderGemini, false},
		{"gemini explicit", "gemini", "gkey", "", ProviderGemini, false},
		{"openai", "openai", "", "okey", ProviderOpenAI, false},
		{"gemini missing key", "gemini", "", "", "", true},
		{"unknown provider", "mistral", "gkey", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{}
			cfg.LLM.Primary = tt.primary
			cfg.LLM.GeminiKey = tt.gemini
			cfg.LLM.OpenAIKey = tt.openai

			p, err := NewFromConfig(cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewFromConfig: %v", err)
			}
			if p.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", p.Name(), tt.wantName)
			}
		})
	}
}
