package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/sirupsen/logrus"

	"github.com/rahulsidpara/newslens/internal/config"
	"github.com/rahulsidpara/newslens/internal/infra"
)

const defaultRSSBaseURL = "https://news.google.com"

// RSSSearcher discovers article URLs through the Google News RSS feed.
// It is the fallback provider for environments where scraping the search
// results page is not viable.
type RSSSearcher struct {
	baseURL string
	blocked []string
	parser  *gofeed.Parser
	limiter *infra.RateLimiter
	log     *logrus.Logger
}

// RSSSearchOption configures the RSS searcher.
type RSSSearchOption func(*RSSSearcher)

// WithRSSBaseURL sets a custom feed base URL (used by tests).
func WithRSSBaseURL(url string) RSSSearchOption {
	return func(r *RSSSearcher) { r.baseURL = strings.TrimRight(url, "/") }
}

// NewRSSSearcher creates a Google News RSS searcher from scraper config.
func NewRSSSearcher(cfg config.ScraperConfig, log *logrus.Logger, opts ...RSSSearchOption) *RSSSearcher {
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 2
	}
	parser := gofeed.NewParser()
	parser.UserAgent = cfg.UserAgent
	r := &RSSSearcher{
		baseURL: defaultRSSBaseURL,
		blocked: cfg.BlockedDomains,
		parser:  parser,
		limiter: infra.NewRateLimiter(rps, time.Second),
		log:     log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Search queries the Google News RSS feed for the company and returns up to
// limit article URLs in feed order. The same deny-list as the search page
// provider applies.
func (r *RSSSearcher) Search(ctx context.Context, company string, limit int) ([]string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("q", company)
	q.Set("hl", "en-US")
	q.Set("gl", "US")
	q.Set("ceid", "US:en")
	feedURL := r.baseURL + "/rss/search?" + q.Encode()

	feed, err := r.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("rss search %q: %w", company, err)
	}

	var urls []string
	for _, item := range feed.Items {
		if limit > 0 && len(urls) >= limit {
			break
		}
		if item.Link == "" {
			continue
		}
		if r.isBlocked(item.Link) {
			r.log.WithField("url", item.Link).Debug("skipping JS-heavy publisher")
			continue
		}
		urls = append(urls, item.Link)
	}

	r.log.WithFields(logrus.Fields{
		"company": company,
		"found":   len(urls),
	}).Debug("rss search complete")

	return urls, nil
}

func (r *RSSSearcher) isBlocked(link string) bool {
	for _, domain := range r.blocked {
		if strings.Contains(link, domain) {
			return true
		}
	}
	return false
}
