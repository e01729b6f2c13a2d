package job

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/LorenzoDantoni/ai-newsletter/internal/model"
	"github.com/LorenzoDantoni/ai-newsletter/pkg/news"
)

type fakePrefs struct {
	active bool
	err    error
	calls  int
}

func (f *fakePrefs) IsActive(ctx context.Context, userID string) (bool, error) {
	f.calls++
	return f.active, f.err
}

type fakeSource struct {
	articles []news.Article
	err      error
	calls    int
	onFetch  func()
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Fetch(ctx context.Context, categories []string) ([]news.Article, error) {
	f.calls++
	if f.onFetch != nil {
		f.onFetch()
	}
	return f.articles, f.err
}

type fakeSummarizer struct {
	content string
	err     error
	calls   int
}

func (f *fakeSummarizer) ModelName() string { return "fake-model" }

func (f *fakeSummarizer) Newsletter(ctx context.Context, categories []string, articles []news.Article) (string, error) {
	f.calls++
	return f.content, f.err
}

type sentEmail struct {
	to             string
	subjectContext string
	articleCount   int
	htmlBody       string
}

type fakeSender struct {
	sent []sentEmail
	err  error
}

func (f *fakeSender) Send(ctx context.Context, to string, subjectContext string, articleCount int, htmlBody string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentEmail{to, subjectContext, articleCount, htmlBody})
	return nil
}

type scheduledReq struct {
	req model.NewsletterRequest
	at  time.Time
}

type fakeScheduler struct {
	scheduled []scheduledReq
	err       error
}

func (f *fakeScheduler) Schedule(ctx context.Context, req model.NewsletterRequest, at time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.scheduled = append(f.scheduled, scheduledReq{req, at})
	return nil
}

var testNow = time.Date(2026, time.March, 2, 15, 42, 17, 123456789, time.UTC)

func newTestRunner(prefs *fakePrefs, source *fakeSource, summarizer *fakeSummarizer, sender *fakeSender, scheduler *fakeScheduler, opts Options) *Runner {
	r := NewRunner(prefs, source, summarizer, sender, scheduler, opts, time.UTC)
	r.now = func() time.Time { return testNow }
	return r
}

func weeklyRequest() model.NewsletterRequest {
	return model.NewsletterRequest{
		UserID:     "u1",
		Email:      "a@b.com",
		Categories: []string{"technology"},
		Frequency:  model.FrequencyWeekly,
	}
}

func TestNextRun(t *testing.T) {
	now := time.Date(2026, time.March, 2, 15, 42, 17, 123456789, time.UTC)

	tests := []struct {
		frequency string
		wantDay   int
	}{
		{model.FrequencyDaily, 3},
		{model.FrequencyWeekly, 9},
		{model.FrequencyBiweekly, 5},
		{"fortnightly", 9},
		{"", 9},
	}

	for _, tt := range tests {
		t.Run(tt.frequency, func(t *testing.T) {
			got := NextRun(tt.frequency, now, time.UTC)

			assert.Equal(t, 2026, got.Year())
			assert.Equal(t, time.March, got.Month())
			assert.Equal(t, tt.wantDay, got.Day())
			assert.Equal(t, 9, got.Hour())
			assert.Equal(t, 0, got.Minute())
			assert.Equal(t, 0, got.Second())
			assert.Equal(t, 0, got.Nanosecond())
		})
	}
}

func TestRun_SuccessfulCycle(t *testing.T) {
	prefs := &fakePrefs{active: true}
	source := &fakeSource{articles: []news.Article{
		{Title: "One", Description: "first", URL: "https://example.com/1"},
		{Title: "Two", Description: "second", URL: "https://example.com/2"},
	}}
	summarizer := &fakeSummarizer{content: "# Weekly Digest\n\nGood morning."}
	sender := &fakeSender{}
	scheduler := &fakeScheduler{}

	runner := newTestRunner(prefs, source, summarizer, sender, scheduler, Options{RescheduleInactive: true})

	res := runner.Run(context.Background(), weeklyRequest())

	assert.Equal(t, StateCompletedRescheduled, res.State)
	assert.Equal(t, true, res.Success)
	assert.Equal(t, true, res.EmailSent)
	assert.Equal(t, true, res.Rescheduled)
	assert.Equal(t, 2, res.ArticleCount)
	assert.Equal(t, nil, res.Err)

	assert.Equal(t, 1, len(sender.sent))
	assert.Equal(t, "a@b.com", sender.sent[0].to)
	assert.Equal(t, "technology", sender.sent[0].subjectContext)
	assert.Equal(t, 2, sender.sent[0].articleCount)
	assert.Equal(t, true, strings.Contains(sender.sent[0].htmlBody, "<h1>Weekly Digest</h1>"))

	assert.Equal(t, 1, len(scheduler.scheduled))
	next := scheduler.scheduled[0]
	assert.Equal(t, "u1", next.req.UserID)
	assert.Equal(t, "a@b.com", next.req.Email)
	assert.Equal(t, []string{"technology"}, next.req.Categories)
	assert.Equal(t, model.FrequencyWeekly, next.req.Frequency)
	assert.Equal(t, time.Date(2026, time.March, 9, 9, 0, 0, 0, time.UTC), next.at)
	assert.Equal(t, next.at, res.NextRun)
}

func TestRun_EmptyArticlesStillSends(t *testing.T) {
	prefs := &fakePrefs{active: true}
	source := &fakeSource{}
	summarizer := &fakeSummarizer{content: "Quiet week, nothing to report."}
	sender := &fakeSender{}
	scheduler := &fakeScheduler{}

	runner := newTestRunner(prefs, source, summarizer, sender, scheduler, Options{})

	res := runner.Run(context.Background(), weeklyRequest())

	assert.Equal(t, StateCompletedRescheduled, res.State)
	assert.Equal(t, 0, res.ArticleCount)
	assert.Equal(t, 1, len(sender.sent))
	assert.Equal(t, 0, sender.sent[0].articleCount)
}

func TestRun_SummarizerFailureReschedules(t *testing.T) {
	prefs := &fakePrefs{active: true}
	source := &fakeSource{articles: []news.Article{{Title: "One"}}}
	summarizer := &fakeSummarizer{err: errors.New("empty newsletter content")}
	sender := &fakeSender{}
	scheduler := &fakeScheduler{}

	runner := newTestRunner(prefs, source, summarizer, sender, scheduler, Options{})

	res := runner.Run(context.Background(), weeklyRequest())

	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, false, res.Success)
	assert.Equal(t, false, res.EmailSent)
	assert.Equal(t, 0, len(sender.sent))

	// Recurrence survives a failed summarization.
	assert.Equal(t, true, res.Rescheduled)
	assert.Equal(t, 1, len(scheduler.scheduled))
	assert.NotEqual(t, nil, res.Err)
}

func TestRun_InactiveUserSkipsButReschedules(t *testing.T) {
	prefs := &fakePrefs{active: false}
	source := &fakeSource{}
	summarizer := &fakeSummarizer{content: "unused"}
	sender := &fakeSender{}
	scheduler := &fakeScheduler{}

	runner := newTestRunner(prefs, source, summarizer, sender, scheduler, Options{RescheduleInactive: true})

	res := runner.Run(context.Background(), weeklyRequest())

	assert.Equal(t, StateCompletedRescheduled, res.State)
	assert.Equal(t, true, res.Success)
	assert.Equal(t, false, res.EmailSent)
	assert.Equal(t, 0, source.calls)
	assert.Equal(t, 0, summarizer.calls)
	assert.Equal(t, 0, len(sender.sent))
	assert.Equal(t, 1, len(scheduler.scheduled))
}

func TestRun_InactiveUserNoReschedule(t *testing.T) {
	prefs := &fakePrefs{active: false}
	scheduler := &fakeScheduler{}

	runner := newTestRunner(prefs, &fakeSource{}, &fakeSummarizer{}, &fakeSender{}, scheduler, Options{RescheduleInactive: false})

	res := runner.Run(context.Background(), weeklyRequest())

	assert.Equal(t, StateCompletedNoReschedule, res.State)
	assert.Equal(t, false, res.Rescheduled)
	assert.Equal(t, 0, len(scheduler.scheduled))
}

func TestRun_ActivityLookupFailureTreatedInactive(t *testing.T) {
	prefs := &fakePrefs{err: errors.New("db down")}
	source := &fakeSource{}
	sender := &fakeSender{}
	scheduler := &fakeScheduler{}

	runner := newTestRunner(prefs, source, &fakeSummarizer{content: "unused"}, sender, scheduler, Options{RescheduleInactive: true})

	res := runner.Run(context.Background(), weeklyRequest())

	// The lookup error is recovered locally, not propagated.
	assert.Equal(t, StateCompletedRescheduled, res.State)
	assert.Equal(t, nil, res.Err)
	assert.Equal(t, 0, source.calls)
	assert.Equal(t, 0, len(sender.sent))
	assert.Equal(t, 1, len(scheduler.scheduled))
}

func TestRun_FetchFailurePropagates(t *testing.T) {
	prefs := &fakePrefs{active: true}
	source := &fakeSource{err: errors.New("news api down")}
	sender := &fakeSender{}
	scheduler := &fakeScheduler{}

	runner := newTestRunner(prefs, source, &fakeSummarizer{content: "unused"}, sender, scheduler, Options{})

	res := runner.Run(context.Background(), weeklyRequest())

	// The host retries the whole cycle, so no reschedule happens here.
	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, false, res.Rescheduled)
	assert.Equal(t, 0, len(sender.sent))
	assert.Equal(t, 0, len(scheduler.scheduled))
	assert.NotEqual(t, nil, res.Err)
}

func TestRun_SendFailurePropagates(t *testing.T) {
	prefs := &fakePrefs{active: true}
	sender := &fakeSender{err: errors.New("sendgrid 500")}
	scheduler := &fakeScheduler{}

	runner := newTestRunner(prefs, &fakeSource{}, &fakeSummarizer{content: "body"}, sender, scheduler, Options{})

	res := runner.Run(context.Background(), weeklyRequest())

	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, false, res.EmailSent)
	assert.Equal(t, false, res.Rescheduled)
	assert.Equal(t, 0, len(scheduler.scheduled))
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	prefs := &fakePrefs{active: true}
	source := &fakeSource{}
	sender := &fakeSender{}
	scheduler := &fakeScheduler{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := newTestRunner(prefs, source, &fakeSummarizer{content: "unused"}, sender, scheduler, Options{RescheduleInactive: true})

	res := runner.Run(ctx, weeklyRequest())

	assert.Equal(t, StateCancelled, res.State)
	assert.Equal(t, 0, prefs.calls)
	assert.Equal(t, 0, source.calls)
	assert.Equal(t, 0, len(sender.sent))
	assert.Equal(t, 0, len(scheduler.scheduled))
}

func TestRun_CancelledMidCycle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	prefs := &fakePrefs{active: true}
	source := &fakeSource{
		articles: []news.Article{{Title: "One"}},
		onFetch:  cancel,
	}
	summarizer := &fakeSummarizer{content: "unused"}
	sender := &fakeSender{}
	scheduler := &fakeScheduler{}

	runner := newTestRunner(prefs, source, summarizer, sender, scheduler, Options{})

	res := runner.Run(ctx, weeklyRequest())

	// Cancellation lands between fetch and summarize: no further steps run.
	assert.Equal(t, StateCancelled, res.State)
	assert.Equal(t, 1, source.calls)
	assert.Equal(t, 0, summarizer.calls)
	assert.Equal(t, 0, len(sender.sent))
	assert.Equal(t, 0, len(scheduler.scheduled))
}

func TestRun_ScheduleFailureReported(t *testing.T) {
	prefs := &fakePrefs{active: true}
	sender := &fakeSender{}
	scheduler := &fakeScheduler{err: errors.New("redis down")}

	runner := newTestRunner(prefs, &fakeSource{}, &fakeSummarizer{content: "body"}, sender, scheduler, Options{})

	res := runner.Run(context.Background(), weeklyRequest())

	// Email went out but recurrence broke: that must be visible, not silent.
	assert.Equal(t, StateCompletedNoReschedule, res.State)
	assert.Equal(t, true, res.EmailSent)
	assert.Equal(t, false, res.Rescheduled)
	assert.Equal(t, false, res.Success)
	assert.NotEqual(t, nil, res.Err)
}
