package analysis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/assessment-engine/internal/assessment"
	ws "github.com/gokatarajesh/assessment-engine/pkg/http/ws"
)

const defaultEventsChannel = "analysis:events"

// Event announces a freshly computed result for a student's test session.
type Event struct {
	StudentID  string            `json:"student_id"`
	TestID     string            `json:"test_id"`
	Result     assessment.Result `json:"result"`
	AnalyzedAt time.Time         `json:"analyzed_at"`
}

// Publisher fans analysis events out to other service instances.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// RedisPublisher publishes events on a Redis Pub/Sub channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = defaultEventsChannel
	}
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, data).Err()
}

// Broadcaster listens for analysis events and forwards each result to the
// WebSocket clients following that session.
type Broadcaster struct {
	redis   *redis.Client
	hub     *ws.Hub
	channel string
	logger  zerolog.Logger
}

// NewBroadcaster creates a Pub/Sub powered analysis broadcaster.
func NewBroadcaster(redis *redis.Client, hub *ws.Hub, channel string, logger zerolog.Logger) *Broadcaster {
	if channel == "" {
		channel = defaultEventsChannel
	}
	return &Broadcaster{
		redis:   redis,
		hub:     hub,
		channel: channel,
		logger:  logger.With().Str("component", "analysis_broadcaster").Logger(),
	}
}

// Run subscribes to the events channel and blocks until the context is cancelled.
func (b *Broadcaster) Run(ctx context.Context) error {
	if b.redis == nil || b.hub == nil {
		return nil
	}

	sub := b.redis.Subscribe(ctx, b.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.forward(msg.Payload)
		}
	}
}

func (b *Broadcaster) forward(payload string) {
	var evt Event
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		b.logger.Warn().Err(err).Msg("failed to decode analysis event")
		return
	}

	msg, err := ws.NewMessage(ws.TypeAnalysisResult, evt.Result)
	if err != nil {
		b.logger.Warn().Err(err).Msg("failed to marshal analysis WS payload")
		return
	}

	session := ws.SessionKey(evt.StudentID, evt.TestID)
	delivered, err := b.hub.BroadcastToSession(session, msg)
	if err != nil {
		b.logger.Warn().Err(err).Str("session", session).Msg("failed to broadcast analysis result")
	}
	b.logger.Debug().Str("session", session).Int("delivered", delivered).Msg("analysis result forwarded")
}
