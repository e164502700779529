/**
 * @description
 * Alert database model.
 * Maps to the 'alerts' table in PostgreSQL.
 *
 * @dependencies
 * - gorm.io/gorm (struct tags only)
 *
 * @notes
 * - id and create_date are assigned by the database; create_date is never written by GORM.
 */

package models

import "time"

// Alert is a single threshold trigger on a symbol. One row holds exactly one level;
// batch creation fans a comma-separated level list out into several rows.
type Alert struct {
	ID             int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Symbol         string    `gorm:"column:symbol;not null" json:"symbol"`
	AlertType      string    `gorm:"column:alert_type;not null" json:"alert_type"`
	AlertDirection string    `gorm:"column:alert_direction;not null" json:"alert_direction"`
	AlertLevel     string    `gorm:"column:alert_level;not null" json:"alert_level"`
	Note           *string   `gorm:"column:note" json:"note"` // derived by update_alert_notes() or set on update
	CreateDate     time.Time `gorm:"column:create_date;<-:false" json:"create_date"` // set by the database default
}

// TableName overrides the table name used by Alert to `alerts`
func (Alert) TableName() string {
	return "alerts"
}

// AlertListOrder is the ordering applied when listing alerts. id is a final tie-break
// so rows created in the same instant come back in insertion order.
const AlertListOrder = "symbol, alert_type, alert_direction, alert_level, create_date, id"

// AlertFields are the shared attributes of a new alert batch.
type AlertFields struct {
	Symbol         string
	AlertType      string
	AlertDirection string
}

// AlertUpdate is a full overwrite of an alert's mutable columns.
type AlertUpdate struct {
	Symbol         string
	AlertType      string
	AlertDirection string
	AlertLevel     string
	Note           *string
}
