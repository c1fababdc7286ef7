package llm

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rahulsidpara/newslens/internal/config"
)

// NewFromConfig builds the configured text-generation provider.
func NewFromConfig(cfg *config.Config) (Provider, error) {
	timeout := 120 * time.Second
	if cfg.LLM.TimeoutSec > 0 {
		timeout = time.Duration(cfg.LLM.TimeoutSec) * time.Second
	}
	client := &http.Client{Timeout: timeout}

	switch cfg.LLM.Primary {
	case ProviderGemini, "":
		opts := []GeminiOption{WithGeminiHTTPClient(client)}
		if cfg.LLM.Model != "" {
			opts = append(opts, WithGeminiModel(cfg.LLM.Model))
		}
		return NewGeminiProvider(cfg.LLM.GeminiKey, opts...)

	case ProviderOpenAI:
		opts := []OpenAIOption{WithOpenAIHTTPClient(client)}
		if cfg.LLM.Model != "" {
			opts = append(opts, WithOpenAIModel(cfg.LLM.Model))
		}
		if cfg.LLM.BaseURL != "" {
			opts = append(opts, WithOpenAIBaseURL(cfg.LLM.BaseURL))
		}
		return NewOpenAIProvider(cfg.LLM.OpenAIKey, opts...)

	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.LLM.Primary)
	}
}
