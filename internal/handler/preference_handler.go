package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LorenzoDantoni/ai-newsletter/internal/job"
	"github.com/LorenzoDantoni/ai-newsletter/internal/model"
)

type PreferenceStore interface {
	GetByUserID(ctx context.Context, userID string) (*model.UserPreferences, error)
	Upsert(ctx context.Context, p *model.UserPreferences) error
	Deactivate(ctx context.Context, userID string) error
}

type ScheduleStore interface {
	Schedule(ctx context.Context, req model.NewsletterRequest, at time.Time) error
	Cancel(ctx context.Context, userID string) (int, error)
}

type PreferenceHandler struct {
	repository PreferenceStore
	schedule   ScheduleStore
	loc        *time.Location
}

func NewPreferenceHandler(repository PreferenceStore, schedule ScheduleStore, loc *time.Location) *PreferenceHandler {
	if loc == nil {
		loc = time.Local
	}
	return &PreferenceHandler{repository: repository, schedule: schedule, loc: loc}
}

// userID resolves the acting user from the X-User-ID header or the user_id
// query parameter. There is no session layer here; identity comes from the
// frontend proxy.
func userID(c *gin.Context) string {
	if id := c.GetHeader("X-User-ID"); id != "" {
		return id
	}
	return c.Query("user_id")
}

func toPreferenceResponse(p *model.UserPreferences) PreferenceResponse {
	return PreferenceResponse{
		UserID:     p.UserID,
		Email:      p.Email,
		Categories: p.Categories,
		Frequency:  p.Frequency,
		IsActive:   p.IsActive,
		CreatedAt:  p.CreatedAt.Format(time.RFC3339),
	}
}

// GetPreferences serves the dashboard read path. The dashboard treats any
// non-OK response as "no subscription" and routes to the setup flow, so a
// missing row is a plain 404 with no detail.
func (h *PreferenceHandler) GetPreferences(c *gin.Context) {
	id := userID(c)
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing user id"})
		return
	}

	prefs, err := h.repository.GetByUserID(c.Request.Context(), id)
	if err != nil {
		slog.Error("error fetching preferences", "user_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if prefs == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No subscription"})
		return
	}

	c.JSON(http.StatusOK, toPreferenceResponse(prefs))
}

// Subscribe upserts the user's preferences and schedules the first
// newsletter cycle at the next delivery slot for the chosen frequency.
func (h *PreferenceHandler) Subscribe(c *gin.Context) {
	var body SubscribeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := body.UserID
	if id == "" {
		id = userID(c)
	}
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing user id"})
		return
	}

	prefs := &model.UserPreferences{
		UserID:     id,
		Email:      body.Email,
		Categories: body.Categories,
		Frequency:  body.Frequency,
		IsActive:   true,
	}

	if err := h.repository.Upsert(c.Request.Context(), prefs); err != nil {
		slog.Error("error saving preferences", "user_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	// Re-subscribing replaces any previously scheduled cycle.
	if _, err := h.schedule.Cancel(c.Request.Context(), id); err != nil {
		slog.Error("error cancelling previous schedule", "user_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Scheduling error"})
		return
	}

	next := job.NextRun(body.Frequency, time.Now(), h.loc)
	req := model.NewsletterRequest{
		UserID:     id,
		Email:      body.Email,
		Categories: body.Categories,
		Frequency:  body.Frequency,
	}

	if err := h.schedule.Schedule(c.Request.Context(), req, next); err != nil {
		slog.Error("error scheduling first cycle", "user_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Scheduling error"})
		return
	}

	c.JSON(http.StatusCreated, SubscribeResponse{
		UserID:    id,
		NextRun:   next.Format(time.RFC3339),
		Scheduled: true,
	})
}

// Unsubscribe deactivates the preference row and cancels pending and
// in-flight cycles for the user.
func (h *PreferenceHandler) Unsubscribe(c *gin.Context) {
	id := userID(c)
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing user id"})
		return
	}

	if err := h.repository.Deactivate(c.Request.Context(), id); err != nil {
		slog.Error("error deactivating preferences", "user_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	cancelled, err := h.schedule.Cancel(c.Request.Context(), id)
	if err != nil {
		slog.Error("error cancelling schedule", "user_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Scheduling error"})
		return
	}

	c.JSON(http.StatusOK, UnsubscribeResponse{
		UserID:           id,
		PendingCancelled: cancelled,
	})
}

func (h *PreferenceHandler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
