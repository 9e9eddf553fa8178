package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const dedupeTTL = 24 * time.Hour

// Dedupe suppresses updates the platform redelivers after a restart or a
// webhook retry. Degrades to a no-op when redis is unreachable.
type Dedupe struct {
	client *redis.Client
	logger *zap.Logger
}

// NewDedupe builds the dedupe guard. A nil client disables it.
func NewDedupe(client *redis.Client, logger *zap.Logger) *Dedupe {
	return &Dedupe{client: client, logger: logger}
}

// Seen marks the update id and reports whether it was already processed.
func (d *Dedupe) Seen(ctx context.Context, updateID int) bool {
	if d == nil || d.client == nil {
		return false
	}
	key := fmt.Sprintf("update:%d", updateID)
	ok, err := d.client.SetNX(ctx, key, 1, dedupeTTL).Result()
	if err != nil {
		d.logger.Debug("dedupe check failed", zap.Error(err))
		return false
	}
	return !ok
}
