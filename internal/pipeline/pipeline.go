// Package pipeline orchestrates the end-to-end analysis for a company:
// discover article URLs, extract their content, run the LLM analysis, and
// persist the resulting report.
package pipeline

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/rahulsidpara/newslens/internal/analysis"
	"github.com/rahulsidpara/newslens/internal/scraper"
	"github.com/rahulsidpara/newslens/pkg/models"
)

// Extractor pulls title and body text out of one article URL.
type Extractor interface {
	Extract(ctx context.Context, url string) models.ExtractedArticle
}

// Analyzer produces the company report from extracted articles.
type Analyzer interface {
	Analyze(ctx context.Context, company string, articles []models.ExtractedArticle) *models.CompanyReport
}

// Saver persists a finished report.
type Saver interface {
	Save(report *models.CompanyReport) error
}

// Pipeline wires the stages together. Every stage is an interface so tests
// can substitute fakes.
type Pipeline struct {
	searcher    scraper.Searcher
	extractor   Extractor
	analyzer    Analyzer
	store       Saver
	maxArticles int
	log         *logrus.Logger
}

// New creates a pipeline.
func New(searcher scraper.Searcher, extractor Extractor, analyzer Analyzer, store Saver, maxArticles int, log *logrus.Logger) *Pipeline {
	if maxArticles <= 0 {
		maxArticles = 10
	}
	return &Pipeline{
		searcher:    searcher,
		extractor:   extractor,
		analyzer:    analyzer,
		store:       store,
		maxArticles: maxArticles,
		log:         log,
	}
}

// Run processes one company and persists its report. The report is saved
// even when analysis degraded to a sentinel, so the serving layer always has
// something to show. A discovery failure is not fatal: it is treated the
// same as finding nothing.
func (p *Pipeline) Run(ctx context.Context, company string) (*models.CompanyReport, error) {
	log := p.log.WithField("company", company)
	log.Info("processing company")

	urls, err := p.searcher.Search(ctx, company, p.maxArticles)
	if err != nil {
		log.WithError(err).Warn("article discovery failed")
		urls = nil
	}
	log.WithField("urls", len(urls)).Info("discovery complete")

	var articles []models.ExtractedArticle
	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		article := p.extractor.Extract(ctx, u)
		if article.Valid() {
			articles = append(articles, article)
		} else {
			log.WithField("url", u).Debug("dropping article with missing title or content")
		}
	}
	log.WithField("articles", len(articles)).Info("extraction complete")

	var report *models.CompanyReport
	if len(articles) == 0 {
		log.Warn("no usable articles, skipping analysis")
		report = analysis.EmptyReport(company)
	} else {
		report = p.analyzer.Analyze(ctx, company, articles)
	}

	if err := p.store.Save(report); err != nil {
		return report, fmt.Errorf("save report for %s: %w", company, err)
	}
	return report, nil
}

// BatchSummary reports what happened across one batch run.
type BatchSummary struct {
	Processed int
	Failed    int
	Skipped   int
}

// RunBatch processes companies sequentially. One company's failure never
// stops the batch; only context cancellation does.
func (p *Pipeline) RunBatch(ctx context.Context, companies []string) (BatchSummary, error) {
	var summary BatchSummary

	for _, company := range companies {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if company == "" {
			p.log.Warn("skipping empty company name")
			summary.Skipped++
			continue
		}
		if _, err := p.Run(ctx, company); err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			p.log.WithField("company", company).WithError(err).Error("company failed")
			summary.Failed++
			continue
		}
		summary.Processed++
	}

	p.log.WithFields(logrus.Fields{
		"processed": summary.Processed,
		"failed":    summary.Failed,
		"skipped":   summary.Skipped,
	}).Info("batch complete")
	return summary, nil
}
