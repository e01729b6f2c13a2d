package mail

import (
	"context"
	"fmt"
	"strings"
)

// Sender delivers one rendered newsletter email.
type Sender interface {
	Send(ctx context.Context, to string, subjectContext string, articleCount int, htmlBody string) error
}

// BuildSubject derives the subject line from the joined category list and
// the number of stories in the issue.
func BuildSubject(subjectContext string, articleCount int) string {
	subjectContext = strings.TrimSpace(subjectContext)
	if subjectContext == "" {
		subjectContext = "news"
	}

	if articleCount == 1 {
		return fmt.Sprintf("Your %s newsletter: 1 story", subjectContext)
	}
	return fmt.Sprintf("Your %s newsletter: %d stories", subjectContext, articleCount)
}
