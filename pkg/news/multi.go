package news

import (
	"context"
	"fmt"
	"log/slog"
)

// MultiSource fans the category list out to every configured source and
// concatenates results. A failing source is logged and skipped as long as at
// least one source succeeds; when every source fails the fetch is an error.
type MultiSource struct {
	sources []Source
}

func NewMultiSource(sources ...Source) *MultiSource {
	return &MultiSource{sources: sources}
}

func (m *MultiSource) Name() string {
	return "Multi"
}

func (m *MultiSource) Fetch(ctx context.Context, categories []string) ([]Article, error) {
	if len(m.sources) == 0 {
		return nil, fmt.Errorf("no news sources configured")
	}

	var articles []Article
	succeeded := 0

	for _, source := range m.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fetched, err := source.Fetch(ctx, categories)
		if err != nil {
			slog.Error("error fetching articles", "source", source.Name(), "error", err)
			continue
		}

		succeeded++
		articles = append(articles, fetched...)
	}

	if succeeded == 0 {
		return nil, fmt.Errorf("all %d news sources failed", len(m.sources))
	}

	return articles, nil
}
