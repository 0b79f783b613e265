package repositories

import (
	"database/sql"
	"fmt"

	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/internal/models"
)

// ThresholdConfigRepository reads the per-SKU/warehouse threshold rows.
// Configuration management owns the table; this engine never writes it.
type ThresholdConfigRepository interface {
	GetConfigsForTenant(tenantID string) ([]models.ThresholdConfig, error)
}

type thresholdConfigRepository struct {
	db *sql.DB
}

// NewThresholdConfigRepository creates a new instance of ThresholdConfigRepository.
func NewThresholdConfigRepository(db *sql.DB) ThresholdConfigRepository {
	return &thresholdConfigRepository{db: db}
}

func (r *thresholdConfigRepository) GetConfigsForTenant(tenantID string) ([]models.ThresholdConfig, error) {
	query := `SELECT id, tenant_id, sku_id, warehouse_id, min_quantity, max_quantity,
	                 safety_stock, reorder_point, reorder_quantity,
	                 velocity_based, velocity_multiplier, created_at, updated_at
	          FROM threshold_configs
	          WHERE tenant_id = $1
	          ORDER BY sku_id, warehouse_id`

	rows, err := r.db.Query(query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying threshold configs: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	configs := []models.ThresholdConfig{}
	for rows.Next() {
		var cfg models.ThresholdConfig
		var maxQty, safetyStock, reorderPoint, reorderQty sql.NullInt64
		if err := rows.Scan(
			&cfg.ID, &cfg.TenantID, &cfg.SKUID, &cfg.WarehouseID, &cfg.MinQuantity, &maxQty,
			&safetyStock, &reorderPoint, &reorderQty,
			&cfg.VelocityBased, &cfg.VelocityMultiplier, &cfg.CreatedAt, &cfg.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning threshold config: %v", ErrDatabaseError, err)
		}
		if maxQty.Valid {
			v := int(maxQty.Int64)
			cfg.MaxQuantity = &v
		}
		if safetyStock.Valid {
			v := int(safetyStock.Int64)
			cfg.SafetyStock = &v
		}
		if reorderPoint.Valid {
			v := int(reorderPoint.Int64)
			cfg.ReorderPoint = &v
		}
		if reorderQty.Valid {
			v := int(reorderQty.Int64)
			cfg.ReorderQuantity = &v
		}
		configs = append(configs, cfg)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating threshold configs: %v", ErrDatabaseError, err)
	}
	return configs, nil
}
