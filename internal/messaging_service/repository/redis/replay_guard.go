package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

const keyPrefix = "messaging:inbound:seen:"

// ReplayGuard records ingested inbound tracking ids in Redis with a TTL so
// carrier redeliveries can be acknowledged without touching the database.
type ReplayGuard struct {
	client *goredis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewReplayGuard(client *goredis.Client, ttl time.Duration, logger *slog.Logger) *ReplayGuard {
	return &ReplayGuard{
		client: client,
		ttl:    ttl,
		logger: logger.With("component", "replay_guard"),
	}
}

func (g *ReplayGuard) Seen(ctx context.Context, trackingID string) (bool, error) {
	if trackingID == "" {
		return false, nil
	}
	n, err := g.client.Exists(ctx, keyPrefix+trackingID).Result()
	if err != nil {
		return false, fmt.Errorf("checking replay guard: %w", err)
	}
	return n > 0, nil
}

func (g *ReplayGuard) Mark(ctx context.Context, trackingID string) error {
	if trackingID == "" {
		return nil
	}
	set, err := g.client.SetNX(ctx, keyPrefix+trackingID, time.Now().UTC().Unix(), g.ttl).Result()
	if err != nil {
		return fmt.Errorf("marking replay guard: %w", err)
	}
	if !set {
		g.logger.DebugContext(ctx, "Tracking id already marked", "tracking_id", trackingID)
	}
	return nil
}
