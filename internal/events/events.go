// Package events defines the domain events this engine publishes and a small
// in-process topic bus for downstream consumers (cache invalidation,
// cross-service sync). Each topic carries exactly one payload type, so
// consumers can type-assert without inspecting loose JSON.
package events

import "time"

// Logical topics. The parameterized forms are built with the helper funcs
// below so publishers and subscribers cannot drift apart on spelling.
const (
	TopicFEFOUpdate = "batch.fefo.update"
)

// TopicBatchStatus returns the topic for a batch status transition,
// e.g. "batch.status.expired".
func TopicBatchStatus(status string) string {
	return "batch.status." + status
}

// TopicExpiryLevel returns the per-level expiry alert topic,
// e.g. "batch.expiry.emergency".
func TopicExpiryLevel(level string) string {
	return "batch.expiry." + level
}

// TopicThresholdAlert returns the threshold alert topic,
// e.g. "threshold.critical.low_stock".
func TopicThresholdAlert(severity, alertType string) string {
	return "threshold." + severity + "." + alertType
}

// Event is implemented by every payload type. Delivery is at-least-once;
// consumers must tolerate duplicates.
type Event interface {
	Topic() string
	OccurredAt() time.Time
}

// BatchAllocationLine is the per-batch breakdown inside a FEFOUpdate event.
type BatchAllocationLine struct {
	BatchID           string `json:"batch_id"`
	BatchNumber       string `json:"batch_number"`
	AllocatedQuantity int    `json:"allocated_quantity"`
	FEFOPriority      int    `json:"fefo_priority"`
}

// FEFOUpdate summarizes one allocation plan. Published on batch.fefo.update.
type FEFOUpdate struct {
	EventID           string                `json:"event_id"`
	TenantID          string                `json:"tenant_id"`
	SKUID             string                `json:"sku_id"`
	WarehouseID       string                `json:"warehouse_id"`
	RequestedQuantity int                   `json:"requested_quantity"`
	AllocatedQuantity int                   `json:"allocated_quantity"`
	FullyAllocated    bool                  `json:"fully_allocated"`
	Allocations       []BatchAllocationLine `json:"allocations"`
	Timestamp         time.Time             `json:"timestamp"`
}

func (e FEFOUpdate) Topic() string         { return TopicFEFOUpdate }
func (e FEFOUpdate) OccurredAt() time.Time { return e.Timestamp }

// BatchExpired is emitted once per batch the expiry sweep transitions.
// Published on batch.status.expired.
type BatchExpired struct {
	EventID     string    `json:"event_id"`
	TenantID    string    `json:"tenant_id"`
	BatchID     string    `json:"batch_id"`
	BatchNumber string    `json:"batch_number"`
	SKUID       string    `json:"sku_id"`
	WarehouseID string    `json:"warehouse_id"`
	ExpiryDate  time.Time `json:"expiry_date"`
	Timestamp   time.Time `json:"timestamp"`
}

func (e BatchExpired) Topic() string         { return TopicBatchStatus("expired") }
func (e BatchExpired) OccurredAt() time.Time { return e.Timestamp }

// ExpiringBatch is one entry in an ExpiryLevel event.
type ExpiringBatch struct {
	BatchID         string `json:"batch_id"`
	BatchNumber     string `json:"batch_number"`
	SKUID           string `json:"sku_id"`
	WarehouseID     string `json:"warehouse_id"`
	DaysUntilExpiry int    `json:"days_until_expiry"`
	Quantity        int    `json:"quantity"`
}

// ExpiryLevel aggregates every batch classified at one expiry level for a
// tenant during a scheduled pass. One event per level per tenant, to avoid
// per-batch event storms. Published on batch.expiry.<level>.
type ExpiryLevel struct {
	EventID   string          `json:"event_id"`
	TenantID  string          `json:"tenant_id"`
	Level     string          `json:"level"` // emergency, critical or warning
	Batches   []ExpiringBatch `json:"batches"`
	Timestamp time.Time       `json:"timestamp"`
}

func (e ExpiryLevel) Topic() string         { return TopicExpiryLevel(e.Level) }
func (e ExpiryLevel) OccurredAt() time.Time { return e.Timestamp }

// ThresholdAlertRaised is emitted when the threshold detector persists a new
// alert. Published on threshold.<severity>.<alert_type>.
type ThresholdAlertRaised struct {
	EventID           string    `json:"event_id"`
	AlertID           string    `json:"alert_id"`
	TenantID          string    `json:"tenant_id"`
	SKUID             string    `json:"sku_id"`
	WarehouseID       string    `json:"warehouse_id"`
	AlertType         string    `json:"alert_type"`
	Severity          string    `json:"severity"`
	CurrentQuantity   int       `json:"current_quantity"`
	ThresholdQuantity int       `json:"threshold_quantity"`
	Timestamp         time.Time `json:"timestamp"`
}

func (e ThresholdAlertRaised) Topic() string         { return TopicThresholdAlert(e.Severity, e.AlertType) }
func (e ThresholdAlertRaised) OccurredAt() time.Time { return e.Timestamp }
