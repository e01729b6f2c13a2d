package news

import (
	"context"
	"time"

	finnhub "github.com/Finnhub-Stock-API/finnhub-go/v2"
)

// finnhubCategories maps newsletter categories to Finnhub market news
// categories. Unmapped categories are skipped; Finnhub only covers finance.
var finnhubCategories = map[string]string{
	"business": "general",
	"finance":  "general",
	"markets":  "general",
	"crypto":   "crypto",
	"forex":    "forex",
	"mergers":  "merger",
}

type FinnhubClient struct {
	client *finnhub.DefaultApiService
}

func NewFinnhubClient(apiKey string) *FinnhubClient {
	cfg := finnhub.NewConfiguration()
	cfg.AddDefaultHeader("X-Finnhub-Token", apiKey)
	client := finnhub.NewAPIClient(cfg).DefaultApi
	return &FinnhubClient{client: client}
}

func (c *FinnhubClient) Name() string {
	return "Finnhub"
}

func (c *FinnhubClient) Fetch(ctx context.Context, categories []string) ([]Article, error) {
	fetched := make(map[string]bool)
	var articles []Article

	for _, category := range categories {
		mapped, ok := finnhubCategories[category]
		if !ok || fetched[mapped] {
			continue
		}
		fetched[mapped] = true

		res, _, err := c.client.MarketNews(ctx).Category(mapped).Execute()
		if err != nil {
			return nil, err
		}

		for _, item := range res {
			a := Article{Source: c.Name()}

			if item.Headline != nil {
				a.Title = *item.Headline
			}
			if item.Summary != nil {
				a.Description = *item.Summary
			}
			if item.Url != nil {
				a.URL = *item.Url
			}
			if item.Datetime != nil {
				a.PublishedAt = time.Unix(*item.Datetime, 0)
			}
			if item.Source != nil {
				a.Publisher = *item.Source
			}

			articles = append(articles, a)
		}
	}

	return articles, nil
}
