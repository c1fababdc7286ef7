package analysis

import (
	"fmt"
	"strings"

	"github.com/rahulsidpara/newslens/pkg/models"
)

// maxArticleChars caps per-article content in the prompt to stay inside the
// model's context window.
const maxArticleChars = 5000

// promptTemplate instructs the model to return the full report as JSON. The
// key names here are the stored-report contract; do not reword them.
const promptTemplate = `Analyze the following news articles about %[1]s. For each article:

1. Create a concise summary
2. Determine the sentiment (Positive, Negative, or Neutral)
3. Extract key topics discussed

Then, perform a comparative analysis across all articles to understand:
- The distribution of sentiment
- Key differences in coverage
- Topic overlap between articles

Finally, provide an overall sentiment analysis for %[1]s based on these articles.

Return your analysis in the following JSON format:

` + "```json" + `
{
    "Company": "%[1]s",
    "Articles": [
        {
            "Title": "Article title",
            "Summary": "Concise summary",
            "Sentiment": "Positive/Negative/Neutral",
            "Topics": ["Topic 1", "Topic 2"]
        }
    ],
    "Comparative Sentiment Score": {
        "Sentiment Distribution": {
            "Positive": count,
            "Negative": count,
            "Neutral": count
        },
        "Coverage Differences": [
            {
                "Comparison": "Description of difference between articles",
                "Impact": "Impact of this difference"
            }
        ],
        "Topic Overlap": {
            "Common Topics": ["Topic shared across articles"],
            "Unique Topics in Article X": ["Topics unique to a specific article"]
        }
    },
    "Final Sentiment Analysis": "Overall sentiment conclusion"
}
` + "```" + `

Here are the articles:`

// buildPrompt renders the analysis prompt for a company and its articles.
func buildPrompt(company string, articles []models.ExtractedArticle) string {
	var b strings.Builder
	fmt.Fprintf(&b, promptTemplate, company)

	for i, a := range articles {
		title := a.Title
		if title == "" {
			title = "No title"
		}
		title = strings.ReplaceAll(title, `"`, `\"`)

		content := a.Content
		if content == "" {
			content = "No content"
		}
		if len(content) > maxArticleChars {
			content = content[:maxArticleChars] + "..."
		}

		fmt.Fprintf(&b, "\n\nARTICLE %d - %s\n%s", i+1, title, content)
	}

	return b.String()
}
