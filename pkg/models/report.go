// Package models defines the shared data types that flow through the
// NewsLens pipeline: scraped articles, per-article analyses, and the
// persisted company sentiment report.
//
// The JSON field names on CompanyReport and its children (including the
// space-separated keys like "Final Sentiment Analysis") are part of the
// stored-report contract and must not be changed: the analysis prompt asks
// the LLM for exactly this shape, and the serving API returns it verbatim.
package models

import (
	"encoding/json"
	"sort"
	"strings"
)

// Sentiment is the three-way classification assigned to an article.
type Sentiment string

// Allowed sentiment values.
const (
	SentimentPositive Sentiment = "Positive"
	SentimentNegative Sentiment = "Negative"
	SentimentNeutral  Sentiment = "Neutral"
)

// Valid reports whether s is one of the three allowed values.
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	}
	return false
}

// ExtractedArticle is the raw output of the content extractor for one URL.
// It is immutable once created and discarded after being folded into the
// analysis prompt.
type ExtractedArticle struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

// Valid reports whether the article carries enough content to analyze.
// An article with an empty title or empty content is excluded from analysis.
func (a ExtractedArticle) Valid() bool {
	return a.Title != "" && a.Content != ""
}

// ArticleAnalysis is the LLM's verdict on a single article. It is produced
// only by the analysis service, never computed locally.
type ArticleAnalysis struct {
	Title     string    `json:"Title"`
	Summary   string    `json:"Summary"`
	Sentiment Sentiment `json:"Sentiment"`
	Topics    []string  `json:"Topics"`
}

// CoverageDifference describes one way two or more articles diverge.
type CoverageDifference struct {
	Comparison string `json:"Comparison"`
	Impact     string `json:"Impact"`
}

// TopicOverlap captures topics shared across articles and topics unique to
// individual articles. The LLM emits the per-article entries as free-form
// sibling keys of "Common Topics" (e.g. "Unique Topics in Article 1"), so
// this type carries custom JSON marshaling to fold them into a map.
type TopicOverlap struct {
	CommonTopics          []string
	UniqueTopicsByArticle map[string][]string
}

const commonTopicsKey = "Common Topics"

// MarshalJSON writes CommonTopics plus each per-article entry as a sibling
// key, in stable (sorted) order.
func (t TopicOverlap) MarshalJSON() ([]byte, error) {
	var sb strings.Builder
	sb.WriteByte('{')

	common := t.CommonTopics
	if common == nil {
		common = []string{}
	}
	key, _ := json.Marshal(commonTopicsKey)
	val, err := json.Marshal(common)
	if err != nil {
		return nil, err
	}
	sb.Write(key)
	sb.WriteByte(':')
	sb.Write(val)

	labels := make([]string, 0, len(t.UniqueTopicsByArticle))
	for label := range t.UniqueTopicsByArticle {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	for _, label := range labels {
		sb.WriteByte(',')
		k, _ := json.Marshal(label)
		v, err := json.Marshal(t.UniqueTopicsByArticle[label])
		if err != nil {
			return nil, err
		}
		sb.Write(k)
		sb.WriteByte(':')
		sb.Write(v)
	}

	sb.WriteByte('}')
	return []byte(sb.String()), nil
}

// UnmarshalJSON pulls out "Common Topics" and treats every other key as a
// per-article unique-topics entry.
func (t *TopicOverlap) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	t.CommonTopics = nil
	t.UniqueTopicsByArticle = nil

	for key, val := range raw {
		var topics []string
		if err := json.Unmarshal(val, &topics); err != nil {
			// Some models emit a bare string instead of a list here.
			var single string
			if err2 := json.Unmarshal(val, &single); err2 != nil {
				return err
			}
			topics = []string{single}
		}
		if key == commonTopicsKey {
			t.CommonTopics = topics
			continue
		}
		if t.UniqueTopicsByArticle == nil {
			t.UniqueTopicsByArticle = make(map[string][]string)
		}
		t.UniqueTopicsByArticle[key] = topics
	}
	return nil
}

// ComparativeScore aggregates sentiment and coverage across all analyzed
// articles for one company.
type ComparativeScore struct {
	SentimentDistribution map[Sentiment]int    `json:"Sentiment Distribution"`
	CoverageDifferences   []CoverageDifference `json:"Coverage Differences"`
	TopicOverlap          TopicOverlap         `json:"Topic Overlap"`
}

// CompanyReport is the unit of persistence: one report per company, keyed by
// the normalized company name. A later pipeline run overwrites the prior
// report for the same key.
type CompanyReport struct {
	Company                   string            `json:"Company"`
	Articles                  []ArticleAnalysis `json:"Articles"`
	ComparativeSentimentScore ComparativeScore  `json:"Comparative Sentiment Score"`
	FinalSentimentAnalysis    string            `json:"Final Sentiment Analysis"`
}
