package job

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/LorenzoDantoni/ai-newsletter/internal/model"
	"github.com/LorenzoDantoni/ai-newsletter/pkg/llm"
	"github.com/LorenzoDantoni/ai-newsletter/pkg/mail"
	"github.com/LorenzoDantoni/ai-newsletter/pkg/markdown"
	"github.com/LorenzoDantoni/ai-newsletter/pkg/news"
)

// State is the terminal (or current) state of one newsletter cycle.
type State string

const (
	StatePending               State = "pending"
	StateRunning               State = "running"
	StateCompletedRescheduled  State = "completed_rescheduled"
	StateCompletedNoReschedule State = "completed_no_reschedule"
	StateCancelled             State = "cancelled"
	StateFailed                State = "failed"
)

// PreferenceStore is the read side of the user preference table needed by
// the activity check.
type PreferenceStore interface {
	IsActive(ctx context.Context, userID string) (bool, error)
}

// Scheduler emits the follow-up request that keeps the recurrence alive.
type Scheduler interface {
	Schedule(ctx context.Context, req model.NewsletterRequest, at time.Time) error
}

// Options control the behaviors the reference implementation left implicit.
type Options struct {
	// RescheduleInactive keeps scheduling cycles for an inactive user so a
	// reactivated subscription resumes without resubscribing.
	RescheduleInactive bool
}

// CycleResult summarizes one cycle for the hosting orchestrator.
type CycleResult struct {
	RunID        string
	UserID       string
	State        State
	Content      string
	ArticleCount int
	Categories   []string
	EmailSent    bool
	Rescheduled  bool
	NextRun      time.Time
	Success      bool
	Err          error
}

// Runner executes newsletter cycles: activity check, fetch, summarize,
// render, send, reschedule. Each step runs strictly after the previous one
// and checks for cancellation before starting.
type Runner struct {
	prefs      PreferenceStore
	source     news.Source
	summarizer llm.Summarizer
	sender     mail.Sender
	scheduler  Scheduler
	opts       Options
	loc        *time.Location
	now        func() time.Time
}

func NewRunner(
	prefs PreferenceStore,
	source news.Source,
	summarizer llm.Summarizer,
	sender mail.Sender,
	scheduler Scheduler,
	opts Options,
	loc *time.Location,
) *Runner {
	if loc == nil {
		loc = time.Local
	}
	return &Runner{
		prefs:      prefs,
		source:     source,
		summarizer: summarizer,
		sender:     sender,
		scheduler:  scheduler,
		opts:       opts,
		loc:        loc,
		now:        time.Now,
	}
}

// Run consumes one NewsletterRequest and produces at most one email send
// and, unless cancelled, exactly one follow-up request.
func (r *Runner) Run(ctx context.Context, req model.NewsletterRequest) *CycleResult {
	res := &CycleResult{
		RunID:      uuid.NewString(),
		UserID:     req.UserID,
		Categories: req.Categories,
		State:      StateRunning,
	}

	if cancelled(ctx, res) {
		return res
	}

	// Step 1: activity check. A failed lookup counts as inactive rather
	// than aborting the cycle.
	active, err := r.prefs.IsActive(ctx, req.UserID)
	if err != nil {
		slog.Error("activity check failed, treating user as inactive", "run_id", res.RunID, "user_id", req.UserID, "error", err)
		active = false
	}

	if !active {
		slog.Info("user inactive, skipping delivery", "run_id", res.RunID, "user_id", req.UserID)
		if r.opts.RescheduleInactive {
			r.reschedule(ctx, req, res)
		}
		if res.Rescheduled {
			res.State = StateCompletedRescheduled
		} else {
			res.State = StateCompletedNoReschedule
		}
		res.Success = res.Err == nil
		return res
	}

	if cancelled(ctx, res) {
		return res
	}

	// Step 2: fetch articles. An empty result still proceeds; a degenerate
	// newsletter beats a silently missed one.
	articles, err := r.source.Fetch(ctx, req.Categories)
	if err != nil {
		res.State = StateFailed
		res.Err = fmt.Errorf("fetch articles: %w", err)
		return res
	}
	res.ArticleCount = len(articles)

	if cancelled(ctx, res) {
		return res
	}

	// Step 3: summarize. Empty content is fatal to this cycle, but the
	// reschedule still runs so a transient model failure does not end the
	// recurrence.
	content, err := r.summarizer.Newsletter(ctx, req.Categories, articles)
	if err != nil {
		r.reschedule(ctx, req, res)
		res.State = StateFailed
		res.Err = fmt.Errorf("summarize: %w", err)
		return res
	}
	res.Content = content

	if cancelled(ctx, res) {
		return res
	}

	// Step 4: render.
	htmlBody, err := markdown.ToHTML(content)
	if err != nil {
		r.reschedule(ctx, req, res)
		res.State = StateFailed
		res.Err = fmt.Errorf("render newsletter: %w", err)
		return res
	}

	if cancelled(ctx, res) {
		return res
	}

	// Step 5: send. Send failures are left to the host's retry policy and
	// do not reschedule here; retrying the cycle must not double-schedule.
	err = r.sender.Send(ctx, req.Email, strings.Join(req.Categories, ", "), len(articles), htmlBody)
	if err != nil {
		res.State = StateFailed
		res.Err = fmt.Errorf("send email: %w", err)
		return res
	}
	res.EmailSent = true

	if cancelled(ctx, res) {
		return res
	}

	// Step 6: reschedule.
	r.reschedule(ctx, req, res)
	if res.Rescheduled {
		res.State = StateCompletedRescheduled
		res.Success = true
	} else {
		res.State = StateCompletedNoReschedule
	}

	return res
}

func (r *Runner) reschedule(ctx context.Context, req model.NewsletterRequest, res *CycleResult) {
	next := NextRun(req.Frequency, r.now(), r.loc)

	if err := r.scheduler.Schedule(ctx, req, next); err != nil {
		slog.Error("failed to schedule next cycle", "run_id", res.RunID, "user_id", req.UserID, "error", err)
		res.Err = fmt.Errorf("schedule next cycle: %w", err)
		return
	}

	res.Rescheduled = true
	res.NextRun = next
	slog.Info("next cycle scheduled", "run_id", res.RunID, "user_id", req.UserID, "next_run", next)
}

func cancelled(ctx context.Context, res *CycleResult) bool {
	if err := ctx.Err(); err != nil {
		res.State = StateCancelled
		res.Err = err
		return true
	}
	return false
}

// NextRun computes the follow-up fire time from the delivery frequency and
// pins it to 09:00:00.000 on the computed date in the given location.
func NextRun(frequency string, now time.Time, loc *time.Location) time.Time {
	var delay time.Duration

	switch frequency {
	case model.FrequencyDaily:
		delay = 24 * time.Hour
	case model.FrequencyWeekly:
		delay = 7 * 24 * time.Hour
	case model.FrequencyBiweekly:
		// Historical mapping: biweekly fires every three days, not fourteen.
		delay = 3 * 24 * time.Hour
	default:
		delay = 7 * 24 * time.Hour
	}

	next := now.In(loc).Add(delay)
	return time.Date(next.Year(), next.Month(), next.Day(), 9, 0, 0, 0, loc)
}
