package llm

import (
	"context"

	"github.com/LorenzoDantoni/ai-newsletter/pkg/news"
)

// Summarizer turns a batch of fetched articles into newsletter body text
// (Markdown). An empty result is an error: a cycle never sends a blank
// newsletter.
type Summarizer interface {
	Newsletter(ctx context.Context, categories []string, articles []news.Article) (string, error)
	ModelName() string
}
