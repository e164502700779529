/**
 * @description
 * Alert change events.
 * Published on Redis after a create/update/delete commits and relayed to SSE clients.
 *
 * @dependencies
 * - github.com/google/uuid
 */

package models

import (
	"time"

	"github.com/google/uuid"
)

// AlertEventType identifies what happened to the alerts table
type AlertEventType string

const (
	AlertEventCreated AlertEventType = "alerts.created"
	AlertEventUpdated AlertEventType = "alerts.updated"
	AlertEventDeleted AlertEventType = "alerts.deleted"
)

// AlertEvent describes a committed change to one or more alerts
type AlertEvent struct {
	ID         uuid.UUID      `json:"id"`
	Type       AlertEventType `json:"type"`
	AlertIDs   []int64        `json:"alert_ids"`
	Symbol     string         `json:"symbol,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// NewAlertEvent stamps a fresh event id and time
func NewAlertEvent(t AlertEventType, symbol string, ids ...int64) AlertEvent {
	return AlertEvent{
		ID:         uuid.New(),
		Type:       t,
		AlertIDs:   ids,
		Symbol:     symbol,
		OccurredAt: time.Now().UTC(),
	}
}
