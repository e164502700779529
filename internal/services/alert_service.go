/**
 * @description
 * Alert Service for alert CRUD.
 * Lists alerts in display order, creates alert batches transactionally, and
 * overwrites or deletes single alerts.
 *
 * @dependencies
 * - gorm.io/gorm
 * - backend/internal/db
 * - backend/internal/models
 *
 * @notes
 * - A batch is one transaction: every level insert plus the note recompute
 *   commit together or not at all.
 * - Events are published only after commit; a failed publish is logged, never returned.
 */

package services

import (
	"context"
	"strings"
	"time"

	"github.com/alertdesk/backend/internal/db"
	"github.com/alertdesk/backend/internal/logger"
	"github.com/alertdesk/backend/internal/metrics"
	"github.com/alertdesk/backend/internal/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// NoteRecomputer refreshes derived alert notes inside the batch transaction
type NoteRecomputer func(tx *gorm.DB) error

// StoredNoteRecompute calls the database routine update_alert_notes()
func StoredNoteRecompute(tx *gorm.DB) error {
	return tx.Exec("SELECT update_alert_notes()").Error
}

const eventPublishTimeout = 2 * time.Second

// AlertService handles alert operations
type AlertService struct {
	Pool      *db.Pool
	Events    AlertEventPublisher // nil disables change events
	Metrics   *metrics.Metrics
	Recompute NoteRecomputer
}

// NewAlertService creates a new AlertService backed by the stored recompute routine
func NewAlertService(pool *db.Pool, events AlertEventPublisher, m *metrics.Metrics) *AlertService {
	return &AlertService{
		Pool:      pool,
		Events:    events,
		Metrics:   m,
		Recompute: StoredNoteRecompute,
	}
}

// SplitLevels splits a comma-separated level list and trims each token.
// Empty tokens are kept so the row count always matches the token count.
func SplitLevels(raw string) []string {
	parts := strings.Split(raw, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// ListAlerts returns all alerts ordered by symbol, type, direction, level and create date
func (s *AlertService) ListAlerts(ctx context.Context) ([]models.Alert, error) {
	alerts := make([]models.Alert, 0)

	err := s.Pool.WithConn(ctx, func(tx *gorm.DB) error {
		return tx.Order(models.AlertListOrder).Find(&alerts).Error
	})
	if err != nil {
		return nil, storageError("list alerts", err)
	}
	return alerts, nil
}

// CreateAlerts inserts one alert per level in levels (comma-separated) sharing fields,
// then recomputes notes, all in one transaction. Returns the inserted rows.
func (s *AlertService) CreateAlerts(ctx context.Context, fields models.AlertFields, levels string) ([]models.Alert, error) {
	tokens := SplitLevels(levels)
	created := make([]models.Alert, 0, len(tokens))

	err := s.Pool.WithTx(ctx, func(tx *gorm.DB) error {
		for _, level := range tokens {
			alert := models.Alert{
				Symbol:         fields.Symbol,
				AlertType:      fields.AlertType,
				AlertDirection: fields.AlertDirection,
				AlertLevel:     level,
			}
			if err := tx.Create(&alert).Error; err != nil {
				return errors.Wrapf(err, "insert alert level %q", level)
			}
			created = append(created, alert)
		}

		if s.Recompute != nil {
			if err := s.Recompute(tx); err != nil {
				return errors.Wrap(err, "recompute alert notes")
			}
		}
		return nil
	})
	if err != nil {
		s.Metrics.ObserveBatch(metrics.BatchRolledBack, len(tokens))
		logger.Error("AlertService: batch for %s rolled back: %v", fields.Symbol, err)
		return nil, storageError("create alerts", err)
	}
	s.Metrics.ObserveBatch(metrics.BatchCommitted, len(created))

	ids := make([]int64, len(created))
	for i, a := range created {
		ids[i] = a.ID
	}
	logger.Info("AlertService: created %d alerts for %s", len(created), fields.Symbol)
	s.publish(ctx, models.NewAlertEvent(models.AlertEventCreated, fields.Symbol, ids...))

	return created, nil
}

// UpdateAlert overwrites every mutable column of alert id.
// Returns ErrAlertNotFound when no row has that id.
func (s *AlertService) UpdateAlert(ctx context.Context, id int64, u models.AlertUpdate) error {
	var affected int64

	err := s.Pool.WithConn(ctx, func(tx *gorm.DB) error {
		result := tx.Model(&models.Alert{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"symbol":          u.Symbol,
				"alert_type":      u.AlertType,
				"alert_direction": u.AlertDirection,
				"alert_level":     u.AlertLevel,
				"note":            u.Note,
			})
		affected = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return storageError("update alert", err)
	}
	if affected == 0 {
		return ErrAlertNotFound
	}

	s.publish(ctx, models.NewAlertEvent(models.AlertEventUpdated, u.Symbol, id))
	return nil
}

// DeleteAlert removes alert id. Returns ErrAlertNotFound when no row has that id.
func (s *AlertService) DeleteAlert(ctx context.Context, id int64) error {
	var affected int64

	err := s.Pool.WithConn(ctx, func(tx *gorm.DB) error {
		result := tx.Where("id = ?", id).Delete(&models.Alert{})
		affected = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return storageError("delete alert", err)
	}
	if affected == 0 {
		return ErrAlertNotFound
	}

	s.publish(ctx, models.NewAlertEvent(models.AlertEventDeleted, "", id))
	return nil
}

// RefreshNotes reruns the note recompute on its own transaction. Holdings change
// outside this service, so notes that quote them go stale between batches.
func (s *AlertService) RefreshNotes(ctx context.Context) error {
	if s.Recompute == nil {
		return nil
	}
	err := s.Pool.WithTx(ctx, func(tx *gorm.DB) error {
		return s.Recompute(tx)
	})
	if err != nil {
		return storageError("refresh notes", err)
	}
	return nil
}

func (s *AlertService) publish(ctx context.Context, event models.AlertEvent) {
	if s.Events == nil {
		return
	}

	// Detach from the request so a client hanging up does not drop the event.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventPublishTimeout)
	defer cancel()

	err := s.Events.PublishAlertEvent(pubCtx, event)
	s.Metrics.ObserveEvent(string(event.Type), err)
	if err != nil {
		logger.Error("AlertService: failed to publish %s event: %v", event.Type, err)
	}
}
