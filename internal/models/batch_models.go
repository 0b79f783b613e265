package models

import "time"

// Batch lifecycle statuses. The expiry monitor only ever drives
// active -> near_expiry -> expired; quarantine, on_hold and disposed are
// entered/left by external actions (QA approval, manual hold, disposal).
const (
	BatchStatusQuarantine = "quarantine"
	BatchStatusActive     = "active"
	BatchStatusNearExpiry = "near_expiry"
	BatchStatusExpired    = "expired"
	BatchStatusOnHold     = "on_hold"
	BatchStatusDisposed   = "disposed"
)

// QA statuses assigned by quality control on receipt.
const (
	QAStatusPending     = "pending"
	QAStatusPassed      = "passed"
	QAStatusFailed      = "failed"
	QAStatusConditional = "conditional"
)

// Batch represents a physically or logically distinct lot of a SKU at a
// warehouse. Terminal batches (expired, disposed) are retained for audit and
// never physically deleted.
// Invariant: QuantityAvailable + QuantityReserved + QuantityDamaged <= QuantityReceived.
type Batch struct {
	ID                    string                 `json:"id" db:"id"`
	TenantID              string                 `json:"tenant_id" db:"tenant_id"`
	SKUID                 string                 `json:"sku_id" db:"sku_id"`
	WarehouseID           string                 `json:"warehouse_id" db:"warehouse_id"`
	BatchNumber           string                 `json:"batch_number" db:"batch_number"`
	QuantityReceived      int                    `json:"quantity_received" db:"quantity_received"`
	QuantityAvailable     int                    `json:"quantity_available" db:"quantity_available"`
	QuantityReserved      int                    `json:"quantity_reserved" db:"quantity_reserved"`
	QuantityDamaged       int                    `json:"quantity_damaged" db:"quantity_damaged"`
	ManufactureDate       *time.Time             `json:"manufacture_date,omitempty" db:"manufacture_date"`
	ExpiryDate            *time.Time             `json:"expiry_date,omitempty" db:"expiry_date"` // Nullable: non-perishable batches carry no expiry
	ReceivedDate          time.Time              `json:"received_date" db:"received_date"`
	Status                string                 `json:"status" db:"status"`
	QAStatus              string                 `json:"qa_status" db:"qa_status"`
	ParentBatchID         *string                `json:"parent_batch_id,omitempty" db:"parent_batch_id"` // Set when this batch was split from another
	Attributes            map[string]interface{} `json:"attributes,omitempty" db:"attributes"`
	TemperatureControlled bool                   `json:"temperature_controlled" db:"temperature_controlled"`
	CreatedAt             time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time              `json:"updated_at" db:"updated_at"`
}

// DaysUntilExpiry returns the number of whole days between now and the
// batch expiry date, negative when already past. The second return value is
// false when the batch has no expiry date.
func (b *Batch) DaysUntilExpiry(now time.Time) (int, bool) {
	if b.ExpiryDate == nil {
		return 0, false
	}
	return int(b.ExpiryDate.Sub(now).Hours() / 24), true
}

// DailyOutbound is a per-calendar-day aggregate of outbound movement
// quantities (sales, shipments, decrease adjustments, damage) for one
// SKU/warehouse pair.
type DailyOutbound struct {
	Day      time.Time `json:"day" db:"day"`
	Quantity int       `json:"quantity" db:"quantity"`
}
