package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/internal/models"

	"github.com/lib/pq"
)

// Outbound movement types counted by the velocity estimator.
var outboundMovementTypes = []string{"sale", "shipment", "adjustment_out", "damage"}

// MovementRepository exposes the movement-history aggregates the velocity
// estimator reads. Movement rows themselves are written by the receiving/
// shipping plumbing outside this engine.
type MovementRepository interface {
	GetDailyOutbound(tenantID, skuID, warehouseID string, since time.Time) ([]models.DailyOutbound, error)
}

type movementRepository struct {
	db *sql.DB
}

// NewMovementRepository creates a new instance of MovementRepository.
func NewMovementRepository(db *sql.DB) MovementRepository {
	return &movementRepository{db: db}
}

// GetDailyOutbound aggregates outbound movement quantities per calendar day
// for one SKU/warehouse pair, oldest day first. Days without any outbound
// activity produce no row.
func (r *movementRepository) GetDailyOutbound(tenantID, skuID, warehouseID string, since time.Time) ([]models.DailyOutbound, error) {
	query := `SELECT date_trunc('day', movement_date) AS day, SUM(ABS(quantity_changed)) AS quantity
	          FROM stock_movements
	          WHERE tenant_id = $1 AND sku_id = $2 AND warehouse_id = $3
	            AND movement_type = ANY($4)
	            AND movement_date >= $5
	          GROUP BY day
	          ORDER BY day ASC`

	rows, err := r.db.Query(query, tenantID, skuID, warehouseID, pq.Array(outboundMovementTypes), since)
	if err != nil {
		return nil, fmt.Errorf("%w: querying daily outbound: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	days := []models.DailyOutbound{}
	for rows.Next() {
		var d models.DailyOutbound
		if err := rows.Scan(&d.Day, &d.Quantity); err != nil {
			return nil, fmt.Errorf("%w: scanning daily outbound: %v", ErrDatabaseError, err)
		}
		days = append(days, d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating daily outbound: %v", ErrDatabaseError, err)
	}
	return days, nil
}
