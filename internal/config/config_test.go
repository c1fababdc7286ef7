package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yaml := `
llm:
  primary: openai
  model: gpt-4o-mini
scraper:
  max_articles: 5
  blocked_domains:
    - example.com
store:
  dir: /tmp/reports
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.LLM.Primary != "openai" {
		t.Errorf("LLM.Primary = %q, want openai", cfg.LLM.Primary)
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("LLM.Model = %q", cfg.LLM.Model)
	}
	if cfg.Scraper.MaxArticles != 5 {
		t.Errorf("Scraper.MaxArticles = %d, want 5", cfg.Scraper.MaxArticles)
	}
	if len(cfg.Scraper.BlockedDomains) != 1 || cfg.Scraper.BlockedDomains[0] != "example.com" {
		t.Errorf("Scraper.BlockedDomains = %v", cfg.Scraper.BlockedDomains)
	}
	if cfg.Store.Dir != "/tmp/reports" {
		t.Errorf("Store.Dir = %q", cfg.Store.Dir)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}

	// Defaults fill in what the file omits.
	if cfg.Scraper.FetchTimeout != 10 {
		t.Errorf("Scraper.FetchTimeout default = %d, want 10", cfg.Scraper.FetchTimeout)
	}
	if cfg.Speech.TargetLang != "hi" {
		t.Errorf("Speech.TargetLang default = %q, want hi", cfg.Speech.TargetLang)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port default = %d, want 8080", cfg.API.Port)
	}
}

func TestGeminiKeyEnvFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("llm:\n  model: gemini-1.5-pro\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("NEWSLENS_LLM_GEMINI_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "legacy-key")

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.LLM.GeminiKey != "legacy-key" {
		t.Errorf("GeminiKey = %q, want legacy-key fallback", cfg.LLM.GeminiKey)
	}

	// The prefixed variable wins over the bare fallback.
	t.Setenv("NEWSLENS_LLM_GEMINI_KEY", "prefixed-key")
	cfg, err = LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.LLM.GeminiKey != "prefixed-key" {
		t.Errorf("GeminiKey = %q, want prefixed-key", cfg.LLM.GeminiKey)
	}
}

func TestCheckAPIKeys(t *testing.T) {
	t.Setenv("NEWSLENS_LLM_GEMINI_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("NEWSLENS_LLM_OPENAI_KEY", "")

	cfg := &Config{}
	cfg.LLM.GeminiKey = "AIzaSyExampleExampleKey"

	statuses := CheckAPIKeys(cfg)
	if len(statuses) != 2 {
		t.Fatalf("expected 2 key statuses, got %d", len(statuses))
	}

	gemini := statuses[0]
	if !gemini.IsSet || gemini.Source != KeySourceConfig {
		t.Errorf("gemini status = %+v, want set from config", gemini)
	}
	if gemini.Masked == cfg.LLM.GeminiKey {
		t.Error("masked key must not expose the full key")
	}

	openai := statuses[1]
	if openai.IsSet || openai.Source != KeySourceNone {
		t.Errorf("openai status = %+v, want unset", openai)
	}
}

func TestMaskKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"short", "***"},
		{"12345678", "***"},
		{"AIzaSyLongEnoughKey", "AIz...Key"},
	}
	for _, tt := range tests {
		if got := maskKey(tt.key); got != tt.want {
			t.Errorf("maskKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
