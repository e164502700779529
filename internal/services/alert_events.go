/**
 * @description
 * Alert change event bus on Redis pub/sub.
 * The AlertService publishes after commit; the SSE handler subscribes.
 *
 * @dependencies
 * - github.com/redis/go-redis/v9
 */

package services

import (
	"context"
	"encoding/json"

	"github.com/alertdesk/backend/internal/models"
	"github.com/redis/go-redis/v9"
)

// AlertEventsChannel is the Redis channel carrying models.AlertEvent JSON
const AlertEventsChannel = "alerts:changes"

// AlertEventPublisher delivers committed alert changes to listeners
type AlertEventPublisher interface {
	PublishAlertEvent(ctx context.Context, event models.AlertEvent) error
}

// RedisAlertEvents publishes and subscribes to alert events on Redis
type RedisAlertEvents struct {
	Redis   *redis.Client
	Channel string
}

// NewRedisAlertEvents creates a bus on AlertEventsChannel
func NewRedisAlertEvents(rdb *redis.Client) *RedisAlertEvents {
	return &RedisAlertEvents{
		Redis:   rdb,
		Channel: AlertEventsChannel,
	}
}

// PublishAlertEvent implements AlertEventPublisher
func (b *RedisAlertEvents) PublishAlertEvent(ctx context.Context, event models.AlertEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.Redis.Publish(ctx, b.Channel, payload).Err()
}

// Subscribe opens a subscription to the event channel. The caller closes it.
func (b *RedisAlertEvents) Subscribe(ctx context.Context) *redis.PubSub {
	return b.Redis.Subscribe(ctx, b.Channel)
}
