package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const newsAPIPageSize = 20

type NewsAPIClient struct {
	apiKey     string
	httpClient *http.Client
}

func NewNewsAPIClient(apiKey string) *NewsAPIClient {
	return &NewsAPIClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *NewsAPIClient) Name() string {
	return "NewsAPI"
}

func (c *NewsAPIClient) Fetch(ctx context.Context, categories []string) ([]Article, error) {
	var articles []Article

	for _, category := range categories {
		fetched, err := c.fetchCategory(ctx, category)
		if err != nil {
			return nil, err
		}
		articles = append(articles, fetched...)
	}

	return articles, nil
}

func (c *NewsAPIClient) fetchCategory(ctx context.Context, category string) ([]Article, error) {
	endpoint := fmt.Sprintf(
		"https://newsapi.org/v2/top-headlines?category=%s&pageSize=%d&apiKey=%s",
		url.QueryEscape(category), newsAPIPageSize, c.apiKey,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("newsapi request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsapi fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("newsapi returned status %d for category %q", resp.StatusCode, category)
	}

	var raw naResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("newsapi decode: %w", err)
	}

	articles := make([]Article, 0, len(raw.Articles))
	for _, item := range raw.Articles {
		publishedAt, err := time.Parse(time.RFC3339, item.PublishedAt)
		if err != nil {
			publishedAt = time.Time{}
		}

		articles = append(articles, Article{
			Title:       item.Title,
			Description: item.Description,
			URL:         item.URL,
			Publisher:   item.Source.Name,
			PublishedAt: publishedAt,
			Source:      c.Name(),
		})
	}

	return articles, nil
}

type naResponse struct {
	Status   string   `json:"status"`
	Articles []naItem `json:"articles"`
}

type naItem struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	PublishedAt string   `json:"publishedAt"`
	Source      naSource `json:"source"`
}

type naSource struct {
	Name string `json:"name"`
}
