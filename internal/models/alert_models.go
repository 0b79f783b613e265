package models

import "time"

// Threshold alert types, in classification precedence order.
const (
	AlertTypeOutOfStock      = "out_of_stock"
	AlertTypeCriticalStock   = "critical_stock"
	AlertTypeLowStock        = "low_stock"
	AlertTypeOverstock       = "overstock"
	AlertTypeVelocityAnomaly = "velocity_anomaly"
)

// Alert severities, weakest first.
const (
	SeverityWarning   = "warning"
	SeverityCritical  = "critical"
	SeverityEmergency = "emergency"
)

// Alert lifecycle statuses.
const (
	AlertStatusActive       = "active"
	AlertStatusAcknowledged = "acknowledged"
	AlertStatusResolved     = "resolved"
)

// Notification channels mapped from severity by the threshold detector.
const (
	ChannelInApp = "in_app"
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// ThresholdAlert represents one open stock issue for a SKU/warehouse pair.
// Created by the threshold detector, mutated only by operator acknowledge/
// resolve actions; the detector never touches an alert once it is active
// (deduplication suppresses re-creation within the rolling window instead).
type ThresholdAlert struct {
	ID                string           `json:"id" db:"id"`
	TenantID          string           `json:"tenant_id" db:"tenant_id"`
	SKUID             string           `json:"sku_id" db:"sku_id"`
	WarehouseID       string           `json:"warehouse_id" db:"warehouse_id"`
	AlertType         string           `json:"alert_type" db:"alert_type"`
	Severity          string           `json:"severity" db:"severity"`
	CurrentQuantity   int              `json:"current_quantity" db:"current_quantity"`
	ThresholdQuantity int              `json:"threshold_quantity" db:"threshold_quantity"`
	Velocity          *VelocityMetrics `json:"velocity,omitempty" db:"velocity"` // Snapshot at evaluation time, when available
	Message           string           `json:"message" db:"message"`
	Status            string           `json:"status" db:"status"`
	CreatedAt         time.Time        `json:"created_at" db:"created_at"`
	AcknowledgedAt    *time.Time       `json:"acknowledged_at,omitempty" db:"acknowledged_at"`
	AcknowledgedBy    *string          `json:"acknowledged_by,omitempty" db:"acknowledged_by"`
	ResolvedAt        *time.Time       `json:"resolved_at,omitempty" db:"resolved_at"`
	ResolvedBy        *string          `json:"resolved_by,omitempty" db:"resolved_by"`
}
