// Package scraper discovers news article URLs for a company and extracts
// readable text from the pages behind them.
package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/rahulsidpara/newslens/internal/config"
	"github.com/rahulsidpara/newslens/internal/infra"
)

// Searcher finds news article URLs for a company, up to limit.
// Implementations return fewer URLs when discovery comes up short; an error
// means discovery itself failed, not that nothing was found.
type Searcher interface {
	Search(ctx context.Context, company string, limit int) ([]string, error)
}

const defaultSearchBaseURL = "https://www.google.com"

// GoogleSearcher discovers article URLs through Google News search results.
//
// Some publishers render entirely client-side and yield no text to a plain
// HTTP fetch; their domains are dropped from results without counting toward
// the limit.
type GoogleSearcher struct {
	baseURL   string
	selector  string
	userAgent string
	blocked   []string
	client    *http.Client
	limiter   *infra.RateLimiter
	log       *logrus.Logger
}

// GoogleSearchOption configures the Google searcher.
type GoogleSearchOption func(*GoogleSearcher)

// WithSearchBaseURL sets a custom base URL (used by tests).
func WithSearchBaseURL(url string) GoogleSearchOption {
	return func(g *GoogleSearcher) { g.baseURL = strings.TrimRight(url, "/") }
}

// WithSearchHTTPClient sets a custom HTTP client.
func WithSearchHTTPClient(client *http.Client) GoogleSearchOption {
	return func(g *GoogleSearcher) { g.client = client }
}

// NewGoogleSearcher creates a Google News searcher from scraper config.
func NewGoogleSearcher(cfg config.ScraperConfig, log *logrus.Logger, opts ...GoogleSearchOption) *GoogleSearcher {
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 2
	}
	g := &GoogleSearcher{
		baseURL:   defaultSearchBaseURL,
		selector:  cfg.ResultSelector,
		userAgent: cfg.UserAgent,
		blocked:   cfg.BlockedDomains,
		client:    &http.Client{Timeout: 15 * time.Second},
		limiter:   infra.NewRateLimiter(rps, time.Second),
		log:       log,
	}
	if g.selector == "" {
		g.selector = "div.SoaBEf"
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Search queries Google News for "{company} news" and returns up to limit
// article URLs in result order. Duplicates are kept as Google returned them.
func (g *GoogleSearcher) Search(ctx context.Context, company string, limit int) ([]string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("q", company+" news")
	q.Set("tbm", "nws")
	searchURL := g.baseURL + "/search?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", company, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search %q: HTTP %d", company, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse search results: %w", err)
	}

	var urls []string
	doc.Find(g.selector).EachWithBreak(func(_ int, block *goquery.Selection) bool {
		if limit > 0 && len(urls) >= limit {
			return false
		}
		href, ok := block.Find("a").First().Attr("href")
		if !ok {
			return true
		}
		link := unwrapRedirect(href)
		if link == "" {
			return true
		}
		if g.isBlocked(link) {
			g.log.WithField("url", link).Debug("skipping JS-heavy publisher")
			return true
		}
		urls = append(urls, link)
		return true
	})

	g.log.WithFields(logrus.Fields{
		"company": company,
		"found":   len(urls),
	}).Debug("search complete")

	return urls, nil
}

// unwrapRedirect resolves Google's /url?q=... redirect wrapper to the target
// URL. Direct http(s) links pass through; anything else is dropped.
func unwrapRedirect(href string) string {
	if strings.HasPrefix(href, "/url?") {
		u, err := url.Parse(href)
		if err != nil {
			return ""
		}
		href = u.Query().Get("q")
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return ""
}

// isBlocked reports whether the URL mentions a blocked domain. Substring
// match on the full URL, same as the deny-list has always been applied.
func (g *GoogleSearcher) isBlocked(link string) bool {
	for _, domain := range g.blocked {
		if strings.Contains(link, domain) {
			return true
		}
	}
	return false
}

// NewSearcherFromConfig builds the configured discovery provider.
func NewSearcherFromConfig(cfg *config.Config, log *logrus.Logger) (Searcher, error) {
	switch cfg.Scraper.Provider {
	case "google", "":
		return NewGoogleSearcher(cfg.Scraper, log), nil
	case "rss":
		return NewRSSSearcher(cfg.Scraper, log), nil
	default:
		return nil, fmt.Errorf("scraper: unknown provider %q", cfg.Scraper.Provider)
	}
}
