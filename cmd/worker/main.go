package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/LorenzoDantoni/ai-newsletter/db"
	"github.com/LorenzoDantoni/ai-newsletter/internal/job"
	"github.com/LorenzoDantoni/ai-newsletter/internal/repository"
	"github.com/LorenzoDantoni/ai-newsletter/internal/schedule"
	"github.com/LorenzoDantoni/ai-newsletter/pkg/llm"
	"github.com/LorenzoDantoni/ai-newsletter/pkg/mail"
	"github.com/LorenzoDantoni/ai-newsletter/pkg/news"
)

const (
	pollInterval = 15 * time.Second
	retryDelay   = 15 * time.Minute
	maxAttempts  = 3
)

func main() {
	godotenv.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	// Credentials are validated here, before any cycle runs.
	summarizer := buildSummarizer()

	sendgridKey := os.Getenv("SENDGRID_API_KEY")
	if sendgridKey == "" {
		log.Fatalf("SENDGRID_API_KEY environment variable is not set")
	}

	fromEmail := os.Getenv("NEWSLETTER_FROM_EMAIL")
	if fromEmail == "" {
		log.Fatalf("NEWSLETTER_FROM_EMAIL environment variable is not set")
	}
	fromName := os.Getenv("NEWSLETTER_FROM_NAME")
	if fromName == "" {
		fromName = "AI Newsletter"
	}

	err := db.Connect()
	if err != nil {
		log.Fatalf("error connecting to DB: %v", err)
	}
	defer db.Close()

	err = db.ConnectRedis()
	if err != nil {
		log.Fatalf("error connecting to Redis: %v", err)
	}
	defer db.CloseRedis()

	loc := time.Local
	if tz := os.Getenv("NEWSLETTER_TZ"); tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			log.Fatalf("invalid NEWSLETTER_TZ %q: %v", tz, err)
		}
	}

	prefRepo := repository.NewPreferenceRepository(db.DB)
	queue := schedule.NewQueue(db.Redis)
	registry := schedule.NewCancelRegistry()
	sender := mail.NewSendGridClient(sendgridKey, fromEmail, fromName)

	runner := job.NewRunner(
		prefRepo,
		buildNewsSource(),
		summarizer,
		sender,
		queue,
		job.Options{RescheduleInactive: os.Getenv("NEWSLETTER_DROP_INACTIVE") == ""},
		loc,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go listenForCancellations(ctx, queue, registry)

	slog.Info("worker started", "model", summarizer.ModelName(), "poll_interval", pollInterval.String())

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopping")
			return
		case <-ticker.C:
			processDue(ctx, queue, registry, runner, loc)
		}
	}
}

func buildSummarizer() llm.Summarizer {
	if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
		return llm.NewOpenRouterClient(key)
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		return llm.NewAnthropicClient(key)
	}

	log.Fatalf("no summarization API key configured: set OPENROUTER_API_KEY or ANTHROPIC_API_KEY")
	return nil
}

func buildNewsSource() news.Source {
	var sources []news.Source

	if key := os.Getenv("NEWS_API_KEY"); key != "" {
		sources = append(sources, news.NewNewsAPIClient(key))
	}
	if key := os.Getenv("FINNHUB_API_KEY"); key != "" {
		sources = append(sources, news.NewFinnhubClient(key))
	}

	// The RSS source needs no key and keeps fetches working with no paid
	// providers configured.
	sources = append(sources, news.NewRSSClient())

	return news.NewMultiSource(sources...)
}

func listenForCancellations(ctx context.Context, queue *schedule.Queue, registry *schedule.CancelRegistry) {
	pubsub := queue.SubscribeCancellations(ctx)
	defer pubsub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-pubsub.Channel():
			if !ok {
				return
			}
			if registry.Cancel(msg.Payload) {
				slog.Info("cancelled in-flight cycle", "user_id", msg.Payload)
			}
		}
	}
}

func processDue(ctx context.Context, queue *schedule.Queue, registry *schedule.CancelRegistry, runner *job.Runner, loc *time.Location) {
	due, err := queue.PopDue(ctx, time.Now())
	if err != nil {
		slog.Error("error popping due requests", "error", err)
		return
	}

	for _, item := range due {
		runCycle(ctx, queue, registry, runner, item, loc)
	}
}

func runCycle(ctx context.Context, queue *schedule.Queue, registry *schedule.CancelRegistry, runner *job.Runner, item schedule.Item, loc *time.Location) {
	cycleCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	registry.Register(item.Request.UserID, cancel)
	defer registry.Unregister(item.Request.UserID)

	res := runner.Run(cycleCtx, item.Request)

	slog.Info("newsletter cycle finished",
		"run_id", res.RunID,
		"user_id", res.UserID,
		"state", string(res.State),
		"article_count", res.ArticleCount,
		"email_sent", res.EmailSent,
		"rescheduled", res.Rescheduled,
		"attempt", item.Attempt,
	)

	if res.State != job.StateFailed || res.Rescheduled {
		return
	}

	// Host-level retry for cycles that failed before rescheduling (fetch or
	// send errors). After the last attempt the regular cadence resumes so a
	// bad afternoon does not end the subscription.
	if item.Attempt+1 < maxAttempts {
		retry := schedule.Item{Request: item.Request, Attempt: item.Attempt + 1}
		if err := queue.Push(ctx, retry, time.Now().Add(retryDelay)); err != nil {
			slog.Error("error scheduling retry", "run_id", res.RunID, "user_id", res.UserID, "error", err)
		}
		return
	}

	slog.Warn("cycle exceeded max attempts, resuming regular cadence", "run_id", res.RunID, "user_id", res.UserID)

	next := job.NextRun(item.Request.Frequency, time.Now(), loc)
	if err := queue.Schedule(ctx, item.Request, next); err != nil {
		slog.Error("error scheduling next cycle after failures", "run_id", res.RunID, "user_id", res.UserID, "error", err)
	}
}
