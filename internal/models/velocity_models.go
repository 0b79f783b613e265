package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Consumption trend classifications derived from the slope of daily outbound
// volume over the lookback window.
const (
	TrendIncreasing = "increasing"
	TrendStable     = "stable"
	TrendDecreasing = "decreasing"
)

// DaysOfStockInfinite is the sentinel used for days_of_stock when the daily
// average is zero: no recorded consumption, so the stock effectively never
// runs out. It keeps the division well-defined without resorting to NaN/Inf.
const DaysOfStockInfinite = 9999

// VelocityMetrics is a derived, cacheable snapshot of the consumption rate
// for one SKU/warehouse pair. It is never persisted authoritatively; callers
// obtain it from the velocity estimator, which caches results with a bounded
// TTL. An insufficient-sample computation yields no metrics object at all
// (see services.ErrInsufficientMovementData), never a zero-valued one.
type VelocityMetrics struct {
	TenantID          string          `json:"tenant_id"`
	SKUID             string          `json:"sku_id"`
	WarehouseID       string          `json:"warehouse_id"`
	DailyAverage      decimal.Decimal `json:"daily_average"`
	WeeklyAverage     decimal.Decimal `json:"weekly_average"`  // daily * 7, a deliberate extrapolation
	MonthlyAverage    decimal.Decimal `json:"monthly_average"` // daily * 30
	Trend             string          `json:"trend"`
	DaysOfStock       decimal.Decimal `json:"days_of_stock"`
	StockoutRiskScore int             `json:"stockout_risk_score"` // 0..100
	SampleDays        int             `json:"sample_days"`         // days with non-zero outbound activity
	LookbackDays      int             `json:"lookback_days"`
	ComputedAt        time.Time       `json:"computed_at"`
}
