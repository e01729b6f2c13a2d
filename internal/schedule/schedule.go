package schedule

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/LorenzoDantoni/ai-newsletter/internal/model"
)

const (
	ScheduleKey   = "newsletter:schedule"
	CancelChannel = "newsletter:schedule:cancel"
)

// Item is one scheduled newsletter request. Attempt counts delivery retries
// of the same cycle; a fresh cycle always starts at zero.
type Item struct {
	Request    model.NewsletterRequest `json:"request"`
	Attempt    int                     `json:"attempt,omitempty"`
	EnqueuedAt time.Time               `json:"enqueued_at"`
}

// Queue is a Redis-backed delayed queue. Members of a sorted set are
// JSON-encoded items scored by their unix fire time, so "deliver at/after T"
// is a range query over the score.
type Queue struct {
	rdb *redis.Client
}

func NewQueue(rdb *redis.Client) *Queue {
	return &Queue{rdb: rdb}
}

// Push enqueues an item to fire at the given time.
func (q *Queue) Push(ctx context.Context, item Item, at time.Time) error {
	if item.EnqueuedAt.IsZero() {
		item.EnqueuedAt = time.Now()
	}

	payload, err := json.Marshal(item)
	if err != nil {
		return err
	}

	return q.rdb.ZAdd(ctx, ScheduleKey, redis.Z{
		Score:  float64(at.Unix()),
		Member: payload,
	}).Err()
}

// Schedule enqueues a fresh newsletter request to fire at the given time.
func (q *Queue) Schedule(ctx context.Context, req model.NewsletterRequest, at time.Time) error {
	return q.Push(ctx, Item{Request: req}, at)
}

// PopDue claims every item whose fire time is at or before now. Claiming is
// removal: an item another worker removed first is skipped, so each item is
// handed to exactly one worker.
func (q *Queue) PopDue(ctx context.Context, now time.Time) ([]Item, error) {
	members, err := q.rdb.ZRangeByScore(ctx, ScheduleKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.Unix(), 10),
	}).Result()
	if err != nil {
		return nil, err
	}

	var due []Item
	for _, member := range members {
		removed, err := q.rdb.ZRem(ctx, ScheduleKey, member).Result()
		if err != nil {
			return due, err
		}
		if removed == 0 {
			continue
		}

		var item Item
		if err := json.Unmarshal([]byte(member), &item); err != nil {
			// Undecodable members are dropped, not retried forever.
			continue
		}
		due = append(due, item)
	}

	return due, nil
}

// Cancel removes every pending item for the user and publishes the user ID
// on the cancel channel so workers abort any in-flight cycle. It returns the
// number of pending items removed.
func (q *Queue) Cancel(ctx context.Context, userID string) (int, error) {
	members, err := q.rdb.ZRange(ctx, ScheduleKey, 0, -1).Result()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, member := range members {
		var item Item
		if err := json.Unmarshal([]byte(member), &item); err != nil {
			continue
		}
		if item.Request.UserID != userID {
			continue
		}

		n, err := q.rdb.ZRem(ctx, ScheduleKey, member).Result()
		if err != nil {
			return removed, err
		}
		removed += int(n)
	}

	if err := q.rdb.Publish(ctx, CancelChannel, userID).Err(); err != nil {
		return removed, err
	}

	return removed, nil
}

// SubscribeCancellations returns a subscription delivering cancelled user IDs.
func (q *Queue) SubscribeCancellations(ctx context.Context) *redis.PubSub {
	return q.rdb.Subscribe(ctx, CancelChannel)
}

// Len returns the number of pending scheduled items.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.rdb.ZCard(ctx, ScheduleKey).Result()
}
