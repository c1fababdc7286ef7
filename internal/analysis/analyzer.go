// Package analysis turns a company's extracted articles into a structured
// sentiment report with a single LLM call.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/rahulsidpara/newslens/internal/config"
	"github.com/rahulsidpara/newslens/internal/llm"
	"github.com/rahulsidpara/newslens/pkg/models"
)

// Sentinel values for the Final Sentiment Analysis field when no real
// analysis happened. Consumers key off these exact strings.
const (
	FinalSentimentError      = "Error analyzing articles."
	FinalSentimentNoArticles = "No articles found for analysis."
)

// Analyzer produces company reports from extracted articles.
//
// Analyze never returns an error: any failure along the way degrades to a
// report carrying the error sentinel, so a bad LLM day for one company never
// takes down a batch run.
type Analyzer struct {
	provider llm.Provider
	opts     llm.ChatOptions
	log      *logrus.Logger
}

// NewAnalyzer creates an analyzer on top of a text-generation provider.
func NewAnalyzer(provider llm.Provider, cfg config.LLMConfig, log *logrus.Logger) *Analyzer {
	return &Analyzer{
		provider: provider,
		opts: llm.ChatOptions{
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		},
		log: log,
	}
}

// Analyze runs one LLM call over all articles and returns the report.
// The Company field is always forced to the requested name; the model's echo
// of it is not trusted.
func (a *Analyzer) Analyze(ctx context.Context, company string, articles []models.ExtractedArticle) *models.CompanyReport {
	prompt := buildPrompt(company, articles)

	resp, err := a.provider.Chat(ctx, []llm.Message{llm.UserMessage(prompt)}, &a.opts)
	if err != nil {
		a.log.WithField("company", company).WithError(err).Warn("llm call failed")
		return ErrorReport(company)
	}

	report, err := parseReport(resp.Content)
	if err != nil {
		a.log.WithFields(logrus.Fields{
			"company": company,
			"raw":     truncateForLog(resp.Content),
		}).WithError(err).Warn("llm response was not valid report JSON")
		return ErrorReport(company)
	}

	report.Company = company
	if report.Articles == nil {
		report.Articles = []models.ArticleAnalysis{}
	}
	return report
}

// ErrorReport is the degraded report for a failed analysis.
func ErrorReport(company string) *models.CompanyReport {
	return &models.CompanyReport{
		Company:                company,
		Articles:               []models.ArticleAnalysis{},
		FinalSentimentAnalysis: FinalSentimentError,
	}
}

// EmptyReport is the report for a company with no usable articles.
func EmptyReport(company string) *models.CompanyReport {
	return &models.CompanyReport{
		Company:                company,
		Articles:               []models.ArticleAnalysis{},
		FinalSentimentAnalysis: FinalSentimentNoArticles,
	}
}

// parseReport decodes the model output, tolerating markdown code fences.
func parseReport(content string) (*models.CompanyReport, error) {
	clean := stripFences(content)

	var report models.CompanyReport
	if err := json.Unmarshal([]byte(clean), &report); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &report, nil
}

// stripFences removes a surrounding markdown code block, if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func truncateForLog(s string) string {
	if len(s) > 500 {
		return s[:500] + "..."
	}
	return s
}
