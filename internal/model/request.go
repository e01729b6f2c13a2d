package model

const (
	FrequencyDaily    = "daily"
	FrequencyWeekly   = "weekly"
	FrequencyBiweekly = "biweekly"
)

// NewsletterRequest is one unit of newsletter work. It is created either by
// a subscribe action or by the previous cycle rescheduling itself, and is
// consumed by exactly one cycle.
type NewsletterRequest struct {
	UserID     string   `json:"user_id"`
	Email      string   `json:"email"`
	Categories []string `json:"categories"`
	Frequency  string   `json:"frequency"`
}
