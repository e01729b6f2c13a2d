package news

import (
	"context"
	"time"
)

type Article struct {
	Title       string
	Description string
	URL         string
	Source      string
	Publisher   string
	PublishedAt time.Time
}

// Source fetches articles for the requested category identifiers. An empty
// result is valid; duplicates across categories are not deduplicated.
type Source interface {
	Fetch(ctx context.Context, categories []string) ([]Article, error)
	Name() string
}
