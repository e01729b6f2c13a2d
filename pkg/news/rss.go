package news

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/mmcdole/gofeed"
)

const rssMaxPerCategory = 15

// RSSClient pulls Google News topic feeds. It needs no API key, so it acts
// as the always-available fallback source.
type RSSClient struct {
	parser  *gofeed.Parser
	baseURL string
}

func NewRSSClient() *RSSClient {
	return &RSSClient{
		parser:  gofeed.NewParser(),
		baseURL: "https://news.google.com/rss/search",
	}
}

func (c *RSSClient) Name() string {
	return "GoogleNewsRSS"
}

func (c *RSSClient) Fetch(ctx context.Context, categories []string) ([]Article, error) {
	var articles []Article

	for _, category := range categories {
		feedURL := fmt.Sprintf("%s?q=%s", c.baseURL, url.QueryEscape(category))

		feed, err := c.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			return nil, fmt.Errorf("rss fetch for %q: %w", category, err)
		}

		for i, entry := range feed.Items {
			if i >= rssMaxPerCategory {
				break
			}

			publishedAt := time.Time{}
			if entry.PublishedParsed != nil {
				publishedAt = *entry.PublishedParsed
			}

			publisher := ""
			if feed.Title != "" {
				publisher = feed.Title
			}

			articles = append(articles, Article{
				Title:       entry.Title,
				Description: entry.Description,
				URL:         entry.Link,
				Publisher:   publisher,
				PublishedAt: publishedAt,
				Source:      c.Name(),
			})
		}
	}

	return articles, nil
}
