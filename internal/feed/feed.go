// Package feed keeps recommendations of watched candidates fresh: it listens
// to platform change notifications on Redis, recomputes the affected
// candidates and publishes the result, and refreshes everyone on a schedule.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/talentdock/ats-matcher/internal/recommend"
)

const (
	DefaultChangesChannel = "platform.changes"
	DefaultSchedule       = "@every 15m"
	recommendationsPrefix = "recommendations."
)

const (
	tableJobs         = "jobs"
	tableProfiles     = "profiles"
	tableApplications = "applications"
)

// Event is a change notification for a single platform row.
type Event struct {
	Table string `json:"table"`
	Type  string `json:"type"`
	ID    string `json:"id"`
	// CandidateID is set for application changes.
	CandidateID string `json:"candidate_id,omitempty"`
}

// Message is what gets published for a candidate.
type Message struct {
	CandidateID     string                     `json:"candidate_id"`
	GeneratedAt     time.Time                  `json:"generated_at"`
	Trigger         string                     `json:"trigger"`
	Recommendations *recommend.Recommendations `json:"recommendations"`
}

type recommender interface {
	ForCandidate(ctx context.Context, candidateID string, opts recommend.Options) (*recommend.Recommendations, error)
}

type redisClient interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

type Config struct {
	Channel    string
	Schedule   string
	Candidates []string
	Options    recommend.Options
}

type Feed struct {
	rdb        redisClient
	service    recommender
	channel    string
	schedule   string
	candidates []string
	opts       recommend.Options
	logger     *zap.Logger

	mu sync.Mutex
	// refreshing holds one lock per candidate so refreshes of the same candidate do not overlap.
	refreshing map[string]*sync.Mutex
}

func New(rdb redisClient, service recommender, cfg Config, logger *zap.Logger) (*Feed, error) {
	if rdb == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if service == nil {
		return nil, fmt.Errorf("recommendation service is required")
	}
	if len(cfg.Candidates) == 0 {
		return nil, fmt.Errorf("at least one candidate to watch is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = DefaultChangesChannel
	}
	schedule := strings.TrimSpace(cfg.Schedule)
	if schedule == "" {
		schedule = DefaultSchedule
	}

	return &Feed{
		rdb:        rdb,
		service:    service,
		channel:    channel,
		schedule:   schedule,
		candidates: slices.Clone(cfg.Candidates),
		opts:       cfg.Options,
		logger:     logger,
		refreshing: make(map[string]*sync.Mutex),
	}, nil
}

// ParseEvent decodes a change notification.
func ParseEvent(payload string) (*Event, error) {
	var event Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return nil, fmt.Errorf("decode change event: %w", err)
	}

	event.Table = strings.ToLower(strings.TrimSpace(event.Table))
	event.Type = strings.ToUpper(strings.TrimSpace(event.Type))
	if event.Table == "" {
		return nil, fmt.Errorf("change event has no table")
	}
	return &event, nil
}

// Affected returns the watched candidates whose recommendations may change
// because of event, in watch order.
func (f *Feed) Affected(event *Event) []string {
	switch event.Table {
	case tableJobs:
		return slices.Clone(f.candidates)
	case tableProfiles:
		if slices.Contains(f.candidates, event.ID) {
			return []string{event.ID}
		}
	case tableApplications:
		if slices.Contains(f.candidates, event.CandidateID) {
			return []string{event.CandidateID}
		}
	}
	return nil
}

// Channel returns the channel recommendations of candidateID are published on.
func Channel(candidateID string) string {
	return recommendationsPrefix + candidateID
}

// Refresh recomputes recommendations for one candidate and publishes them.
func (f *Feed) Refresh(ctx context.Context, candidateID, trigger string) error {
	lock := f.lockFor(candidateID)
	lock.Lock()
	defer lock.Unlock()

	recs, err := f.service.ForCandidate(ctx, candidateID, f.opts)
	if err != nil {
		return fmt.Errorf("recommendations for %s: %w", candidateID, err)
	}

	payload, err := json.Marshal(&Message{
		CandidateID:     candidateID,
		GeneratedAt:     time.Now().UTC(),
		Trigger:         trigger,
		Recommendations: recs,
	})
	if err != nil {
		return fmt.Errorf("encode recommendations: %w", err)
	}

	if err := f.rdb.Publish(ctx, Channel(candidateID), payload).Err(); err != nil {
		return fmt.Errorf("publish recommendations: %w", err)
	}

	f.logger.Info("recommendations published",
		zap.String("candidate_id", candidateID),
		zap.String("trigger", trigger),
		zap.Int("jobs", recs.Len()),
	)
	return nil
}

// RefreshAll refreshes every watched candidate. Failures are logged and the
// remaining candidates are still refreshed.
func (f *Feed) RefreshAll(ctx context.Context, trigger string) {
	for _, id := range f.candidates {
		if ctx.Err() != nil {
			return
		}
		if err := f.Refresh(ctx, id, trigger); err != nil {
			f.logger.Warn("refresh failed", zap.String("candidate_id", id), zap.Error(err))
		}
	}
}

// Handle processes a raw change notification.
func (f *Feed) Handle(ctx context.Context, payload string) {
	event, err := ParseEvent(payload)
	if err != nil {
		f.logger.Warn("skipping malformed change event", zap.Error(err))
		return
	}

	affected := f.Affected(event)
	if len(affected) == 0 {
		f.logger.Debug("change event ignored",
			zap.String("table", event.Table),
			zap.String("id", event.ID),
		)
		return
	}

	trigger := event.Table + "." + strings.ToLower(event.Type)
	for _, id := range affected {
		if err := f.Refresh(ctx, id, trigger); err != nil {
			f.logger.Warn("refresh failed", zap.String("candidate_id", id), zap.Error(err))
		}
	}
}

// Run subscribes to change notifications and starts the periodic refresh.
// Every watched candidate is refreshed once on start. It blocks until ctx is done.
func (f *Feed) Run(ctx context.Context) error {
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(f.schedule, func() { f.RefreshAll(ctx, "schedule") }); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	sub := f.rdb.Subscribe(ctx, f.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", f.channel, err)
	}

	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	f.logger.Info("watching platform changes",
		zap.String("channel", f.channel),
		zap.String("schedule", f.schedule),
		zap.Strings("candidates", f.candidates),
	)

	f.RefreshAll(ctx, "start")

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return fmt.Errorf("subscription to %s closed", f.channel)
			}
			f.Handle(ctx, msg.Payload)
		}
	}
}

func (f *Feed) lockFor(candidateID string) *sync.Mutex {
	f.mu.Lock()
	defer f.mu.Unlock()

	lock, ok := f.refreshing[candidateID]
	if !ok {
		lock = &sync.Mutex{}
		f.refreshing[candidateID] = lock
	}
	return lock
}
