package handler

type PreferenceResponse struct {
	UserID     string   `json:"user_id"`
	Email      string   `json:"email"`
	Categories []string `json:"categories"`
	Frequency  string   `json:"frequency"`
	IsActive   bool     `json:"is_active"`
	CreatedAt  string   `json:"created_at"`
}

type SubscribeRequest struct {
	UserID     string   `json:"user_id"`
	Email      string   `json:"email" binding:"required,email"`
	Categories []string `json:"categories" binding:"required,min=1"`
	Frequency  string   `json:"frequency" binding:"required,oneof=daily weekly biweekly"`
}

type SubscribeResponse struct {
	UserID    string `json:"user_id"`
	NextRun   string `json:"next_run"`
	Scheduled bool   `json:"scheduled"`
}

type UnsubscribeResponse struct {
	UserID           string `json:"user_id"`
	PendingCancelled int    `json:"pending_cancelled"`
}
