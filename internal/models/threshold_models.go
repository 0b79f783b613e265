package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ThresholdConfig holds the configured stock bounds for one SKU/warehouse
// pair. Rows are owned by configuration management and are read-only to the
// monitoring engine. Nullable bounds fall back as follows when unset:
// safety_stock -> min_quantity, reorder_point -> safety_stock,
// max_quantity -> unbounded.
type ThresholdConfig struct {
	ID                 string          `json:"id" db:"id"`
	TenantID           string          `json:"tenant_id" db:"tenant_id"`
	SKUID              string          `json:"sku_id" db:"sku_id"`
	WarehouseID        string          `json:"warehouse_id" db:"warehouse_id"`
	MinQuantity        int             `json:"min_quantity" db:"min_quantity"`
	MaxQuantity        *int            `json:"max_quantity,omitempty" db:"max_quantity"`
	SafetyStock        *int            `json:"safety_stock,omitempty" db:"safety_stock"`
	ReorderPoint       *int            `json:"reorder_point,omitempty" db:"reorder_point"`
	ReorderQuantity    *int            `json:"reorder_quantity,omitempty" db:"reorder_quantity"`
	VelocityBased      bool            `json:"velocity_based" db:"velocity_based"`
	VelocityMultiplier decimal.Decimal `json:"velocity_multiplier" db:"velocity_multiplier"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

// EffectiveSafetyStock returns safety_stock, defaulting to min_quantity.
func (c *ThresholdConfig) EffectiveSafetyStock() int {
	if c.SafetyStock != nil {
		return *c.SafetyStock
	}
	return c.MinQuantity
}

// EffectiveStaticReorderPoint returns reorder_point, defaulting to the
// effective safety stock.
func (c *ThresholdConfig) EffectiveStaticReorderPoint() int {
	if c.ReorderPoint != nil {
		return *c.ReorderPoint
	}
	return c.EffectiveSafetyStock()
}
