package scraper

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/rahulsidpara/newslens/internal/config"
	"github.com/rahulsidpara/newslens/pkg/models"
)

// contentClassHints mark containers likely to hold the article body.
var contentClassHints = []string{"article", "content", "story"}

// Extractor fetches an article page and pulls out its title and body text.
//
// Extraction never fails: a page that cannot be fetched or parsed produces an
// empty record carrying only the URL, and the caller decides what to do with
// partial results.
type Extractor struct {
	client    *http.Client
	userAgent string
	log       *logrus.Logger
}

// ExtractorOption configures the extractor.
type ExtractorOption func(*Extractor)

// WithExtractorHTTPClient sets a custom HTTP client.
func WithExtractorHTTPClient(client *http.Client) ExtractorOption {
	return func(e *Extractor) { e.client = client }
}

// NewExtractor creates an article extractor from scraper config.
func NewExtractor(cfg config.ScraperConfig, log *logrus.Logger, opts ...ExtractorOption) *Extractor {
	timeout := 10 * time.Second
	if cfg.FetchTimeout > 0 {
		timeout = time.Duration(cfg.FetchTimeout) * time.Second
	}
	e := &Extractor{
		client:    &http.Client{Timeout: timeout},
		userAgent: cfg.UserAgent,
		log:       log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract downloads the page and returns title and body text.
func (e *Extractor) Extract(ctx context.Context, pageURL string) models.ExtractedArticle {
	article := models.ExtractedArticle{URL: pageURL}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		e.log.WithField("url", pageURL).WithError(err).Warn("bad article URL")
		return article
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		e.log.WithField("url", pageURL).WithError(err).Warn("article fetch failed")
		return article
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		e.log.WithFields(logrus.Fields{
			"url":    pageURL,
			"status": resp.StatusCode,
		}).Warn("article fetch returned non-200")
		return article
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		e.log.WithField("url", pageURL).WithError(err).Warn("article parse failed")
		return article
	}

	article.Title = collapseWhitespace(doc.Find("title").First().Text())
	article.Content = extractBody(doc)
	return article
}

// extractBody tries progressively looser strategies: the semantic <article>
// element, then the first container whose class hints at article content,
// then every paragraph on the page.
func extractBody(doc *goquery.Document) string {
	if text := paragraphText(doc.Find("article").First()); text != "" {
		return text
	}
	if container := findContentContainer(doc); container != nil {
		if text := paragraphText(container); text != "" {
			return text
		}
	}
	return paragraphText(doc.Selection)
}

// findContentContainer returns the first div or section whose class attribute
// mentions one of the content hints.
func findContentContainer(doc *goquery.Document) *goquery.Selection {
	var found *goquery.Selection
	doc.Find("div, section").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		class, ok := sel.Attr("class")
		if !ok {
			return true
		}
		lower := strings.ToLower(class)
		for _, hint := range contentClassHints {
			if strings.Contains(lower, hint) {
				found = sel
				return false
			}
		}
		return true
	})
	return found
}

// paragraphText joins the text of all <p> descendants into a single
// whitespace-normalized string.
func paragraphText(sel *goquery.Selection) string {
	var parts []string
	sel.Find("p").Each(func(_ int, p *goquery.Selection) {
		if t := strings.TrimSpace(p.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return collapseWhitespace(strings.Join(parts, " "))
}

// collapseWhitespace squeezes all runs of whitespace to single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
