package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/LorenzoDantoni/ai-newsletter/pkg/news"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterClient generates newsletter content through OpenRouter's
// OpenAI-compatible chat completions endpoint.
type OpenRouterClient struct {
	client    *openai.Client
	model     openai.ChatModel
	modelName string
}

func NewOpenRouterClient(apiKey string) *OpenRouterClient {
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(openRouterBaseURL),
	)
	return &OpenRouterClient{
		client:    &client,
		model:     "openai/gpt-oss-20b:free",
		modelName: "openai/gpt-oss-20b:free",
	}
}

func (c *OpenRouterClient) ModelName() string {
	return c.modelName
}

func (c *OpenRouterClient) Newsletter(ctx context.Context, categories []string, articles []news.Article) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(newsletterSystemPrompt),
			openai.UserMessage(buildNewsletterPrompt(categories, articles)),
		},
	})

	if err != nil {
		return "", fmt.Errorf("openrouter API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from openrouter")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("empty newsletter content from openrouter")
	}

	return content, nil
}
