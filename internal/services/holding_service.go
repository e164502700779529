/**
 * @description
 * Holdings Service.
 * Read-only access to the consolidated_holdings reporting table.
 *
 * @dependencies
 * - gorm.io/gorm
 * - backend/internal/db
 */

package services

import (
	"context"

	"github.com/alertdesk/backend/internal/db"
	"github.com/alertdesk/backend/internal/models"
	"gorm.io/gorm"
)

// HoldingService reads consolidated holdings
type HoldingService struct {
	pool *db.Pool
}

// NewHoldingService creates a new HoldingService
func NewHoldingService(pool *db.Pool) *HoldingService {
	return &HoldingService{pool: pool}
}

// ListHoldings returns every holdings row in the table's natural order.
// Row shape is whatever the table holds.
func (s *HoldingService) ListHoldings(ctx context.Context) ([]models.ConsolidatedHolding, error) {
	rows := make([]map[string]interface{}, 0)

	err := s.pool.WithConn(ctx, func(tx *gorm.DB) error {
		return tx.Table(models.HoldingsTable).Find(&rows).Error
	})
	if err != nil {
		return nil, storageError("list holdings", err)
	}

	holdings := make([]models.ConsolidatedHolding, len(rows))
	for i, row := range rows {
		holdings[i] = row
	}
	return holdings, nil
}
