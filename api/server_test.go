package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rahulsidpara/newslens/internal/config"
	"github.com/rahulsidpara/newslens/internal/logging"
	"github.com/rahulsidpara/newslens/internal/store"
	"github.com/rahulsidpara/newslens/pkg/models"
)

type fakeReports struct {
	reports map[string]*models.CompanyReport
}

func (f *fakeReports) Get(name string) (*models.CompanyReport, error) {
	if r, ok := f.reports[store.NormalizeKey(name)]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("%w: %s", store.ErrNotFound, name)
}

func (f *fakeReports) List() ([]string, error) {
	var names []string
	for _, r := range f.reports {
		names = append(names, r.Company)
	}
	return names, nil
}

type fakeRunner struct {
	called int
}

func (f *fakeRunner) Run(_ context.Context, company string) (*models.CompanyReport, error) {
	f.called++
	return &models.CompanyReport{
		Company:                company,
		Articles:               []models.ArticleAnalysis{},
		FinalSentimentAnalysis: "Freshly analyzed.",
	}, nil
}

// fakeNarrator writes a real audio file per call so ServeFile has something
// to stream.
type fakeNarrator struct {
	baseDir string
	called  int
}

func (f *fakeNarrator) Narrate(_ context.Context, text string) (string, string, error) {
	f.called++
	dir, err := os.MkdirTemp(f.baseDir, "tts-")
	if err != nil {
		return "", "", err
	}
	path := filepath.Join(dir, "speech.mp3")
	if err := os.WriteFile(path, []byte("mp3:"+text), 0o644); err != nil {
		return "", "", err
	}
	return path, dir, nil
}

func newTestServer(t *testing.T) (*Server, *fakeReports, *fakeRunner, *fakeNarrator) {
	t.Helper()
	reports := &fakeReports{reports: map[string]*models.CompanyReport{
		"tesla": {
			Company:                "Tesla",
			Articles:               []models.ArticleAnalysis{{Title: "t", Sentiment: models.SentimentPositive}},
			FinalSentimentAnalysis: "Mostly positive.",
		},
	}}
	runner := &fakeRunner{}
	narrator := &fakeNarrator{baseDir: t.TempDir()}

	cfg := &config.Config{}
	cfg.Speech.CacheTTL = 600

	srv := NewServer(cfg, reports, runner, narrator, logging.Discard())
	srv.SetServeUI(false)
	return srv, reports, runner, narrator
}

func doRequest(t *testing.T, srv *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return resp
}

func TestHealth(t *testing.T) {
	srv, _, _, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Error("expected success")
	}
}

func TestGetCompanies(t *testing.T) {
	srv, _, _, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/companies", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]interface{})
	companies := data["companies"].([]interface{})
	if len(companies) != 1 || companies[0] != "Tesla" {
		t.Errorf("companies = %v", companies)
	}
}

func TestGetCompany(t *testing.T) {
	srv, _, _, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/company/Tesla", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"Final Sentiment Analysis":"Mostly positive."`) {
		t.Errorf("body missing report fields: %s", rec.Body.String())
	}
}

func TestGetCompanyNotFound(t *testing.T) {
	srv, _, _, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/company/Nobody", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp.Success {
		t.Error("expected failure envelope")
	}
}

func TestAnalyze(t *testing.T) {
	srv, _, runner, _ := newTestServer(t)

	body, _ := json.Marshal(AnalyzeRequest{Company: "Acme"})
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/analyze", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if runner.called != 1 {
		t.Errorf("runner called %d times", runner.called)
	}
	if !strings.Contains(rec.Body.String(), `"Company":"Acme"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestAnalyzeValidation(t *testing.T) {
	srv, _, runner, _ := newTestServer(t)

	tests := []struct {
		name string
		body []byte
	}{
		{"invalid json", []byte("{")},
		{"missing company", []byte("{}")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, srv, http.MethodPost, "/api/v1/analyze", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
	if runner.called != 0 {
		t.Errorf("runner called %d times, want 0", runner.called)
	}
}

func TestTTSServesAudio(t *testing.T) {
	srv, _, _, narrator := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/tts/Tesla", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "audio/mpeg" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rec.Body.String() != "mp3:Mostly positive." {
		t.Errorf("body = %q", rec.Body.String())
	}
	if narrator.called != 1 {
		t.Errorf("narrator called %d times", narrator.called)
	}
}

func TestTTSCachesAudio(t *testing.T) {
	srv, _, _, narrator := newTestServer(t)

	for i := 0; i < 3; i++ {
		rec := doRequest(t, srv, http.MethodGet, "/api/v1/tts/Tesla", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, rec.Code)
		}
	}
	if narrator.called != 1 {
		t.Errorf("narrator called %d times, want 1 (cached)", narrator.called)
	}
}

func TestTTSNotFound(t *testing.T) {
	srv, _, _, narrator := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/tts/Nobody", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if narrator.called != 0 {
		t.Errorf("narrator called %d times, want 0", narrator.called)
	}
}

func TestAnalyzeInvalidatesCachedAudio(t *testing.T) {
	srv, reports, _, narrator := newTestServer(t)

	if rec := doRequest(t, srv, http.MethodGet, "/api/v1/tts/Tesla", nil); rec.Code != http.StatusOK {
		t.Fatalf("tts status = %d", rec.Code)
	}

	body, _ := json.Marshal(AnalyzeRequest{Company: "Tesla"})
	if rec := doRequest(t, srv, http.MethodPost, "/api/v1/analyze", body); rec.Code != http.StatusOK {
		t.Fatalf("analyze status = %d", rec.Code)
	}

	// Keep the stored report in sync with the rerun.
	reports.reports["tesla"].FinalSentimentAnalysis = "Freshly analyzed."

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/tts/Tesla", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("tts status = %d", rec.Code)
	}
	if narrator.called != 2 {
		t.Errorf("narrator called %d times, want 2 (regenerated)", narrator.called)
	}
	if rec.Body.String() != "mp3:Freshly analyzed." {
		t.Errorf("body = %q", rec.Body.String())
	}
}
