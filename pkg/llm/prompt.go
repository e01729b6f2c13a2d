package llm

import (
	"fmt"
	"strings"

	"github.com/LorenzoDantoni/ai-newsletter/pkg/news"
)

const newsletterSystemPrompt = `You are an expert newsletter editor creating a personalized newsletter.
Write a concise, engaging summary that:
- Highlights the most important stories
- Provides context and insights
- Uses a friendly, conversational tone
- Is well-structured with clear sections
- Keeps the reader informed and engaged
Format the response as a proper newsletter with a title and organized content.
Make it email-friendly with clear sections and engaging subject lines.`

// buildNewsletterPrompt renders the user message: the requested categories
// followed by a 1-indexed title/description/source listing of every article.
func buildNewsletterPrompt(categories []string, articles []news.Article) string {
	var sb strings.Builder

	sb.WriteString("Create a newsletter summary for these articles from the past week.\n")
	fmt.Fprintf(&sb, "Categories requested: %s\n\nArticles:\n", strings.Join(categories, ", "))

	for i, a := range articles {
		fmt.Fprintf(&sb, "%d. %s\n  %s\n  Source: %s\n\n", i+1, a.Title, a.Description, a.URL)
	}

	return sb.String()
}
