package model

import (
	"encoding/json"
	"strings"
	"time"
)

type UserPreferences struct {
	UserID     string
	Email      string
	Categories []string
	Frequency  string
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NormalizeCategories converts a stored categories column into a string slice.
// Older rows hold a JSON array serialized as text (`["tech","business"]`),
// newer writes go through the same encoding; comma-separated and single
// values are accepted for hand-edited rows.
func NormalizeCategories(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}

	if strings.HasPrefix(raw, "[") {
		var parsed []string
		if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
			return parsed
		}
	}

	parts := strings.Split(raw, ",")
	categories := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			categories = append(categories, trimmed)
		}
	}
	return categories
}
