package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/internal/models"

	"github.com/lib/pq"
)

// BatchRepository defines the interface for batch-related database operations.
// All status transitions go through guarded conditional updates so concurrent
// external changes (QA approval, manual hold) are never clobbered.
type BatchRepository interface {
	GetEligibleBatches(tenantID, skuID, warehouseID string) ([]models.Batch, error)
	GetBatchesExpiringBy(tenantID string, cutoff time.Time) ([]models.Batch, error)
	GetExpiredBatches(tenantID string, asOf time.Time) ([]models.Batch, error)
	MarkBatchesNearExpiry(batchIDs []string) (int64, error)
	MarkBatchExpired(batchID string) (bool, error)
	GetAvailableQuantity(tenantID, skuID, warehouseID string) (int, error)
	ListActiveTenants() ([]string, error)
}

type batchRepository struct {
	db *sql.DB
}

// NewBatchRepository creates a new instance of BatchRepository.
func NewBatchRepository(db *sql.DB) BatchRepository {
	return &batchRepository{db: db}
}

const batchColumns = `id, tenant_id, sku_id, warehouse_id, batch_number,
	quantity_received, quantity_available, quantity_reserved, quantity_damaged,
	manufacture_date, expiry_date, received_date, status, qa_status,
	parent_batch_id, attributes, temperature_controlled, created_at, updated_at`

func scanBatch(s scanner) (*models.Batch, error) {
	var batch models.Batch
	var attributes []byte
	if err := s.Scan(
		&batch.ID, &batch.TenantID, &batch.SKUID, &batch.WarehouseID, &batch.BatchNumber,
		&batch.QuantityReceived, &batch.QuantityAvailable, &batch.QuantityReserved, &batch.QuantityDamaged,
		&batch.ManufactureDate, &batch.ExpiryDate, &batch.ReceivedDate, &batch.Status, &batch.QAStatus,
		&batch.ParentBatchID, &attributes, &batch.TemperatureControlled, &batch.CreatedAt, &batch.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(attributes) > 0 {
		if err := json.Unmarshal(attributes, &batch.Attributes); err != nil {
			return nil, fmt.Errorf("decoding batch attributes: %w", err)
		}
	}
	return &batch, nil
}

func (r *batchRepository) queryBatches(query string, args ...interface{}) ([]models.Batch, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying batches: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	batches := []models.Batch{}
	for rows.Next() {
		batch, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning batch: %v", ErrDatabaseError, err)
		}
		batches = append(batches, *batch)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating batches: %v", ErrDatabaseError, err)
	}
	return batches, nil
}

// GetEligibleBatches returns every batch for the SKU/warehouse pair that can
// take part in an allocation: available stock, active status, QA passed.
// No ordering is applied here; the allocation engine owns the sort.
func (r *batchRepository) GetEligibleBatches(tenantID, skuID, warehouseID string) ([]models.Batch, error) {
	query := `SELECT ` + batchColumns + `
	          FROM batches
	          WHERE tenant_id = $1 AND sku_id = $2 AND warehouse_id = $3
	            AND quantity_available > 0 AND status = $4 AND qa_status = $5`
	return r.queryBatches(query, tenantID, skuID, warehouseID, models.BatchStatusActive, models.QAStatusPassed)
}

// GetBatchesExpiringBy returns batches with stock on hand whose expiry date
// falls on or before the cutoff. Quarantined, held and terminal batches are
// excluded; near_expiry batches are included so repeated passes can still
// classify them for alerting.
func (r *batchRepository) GetBatchesExpiringBy(tenantID string, cutoff time.Time) ([]models.Batch, error) {
	query := `SELECT ` + batchColumns + `
	          FROM batches
	          WHERE tenant_id = $1 AND expiry_date IS NOT NULL AND expiry_date <= $2
	            AND quantity_available > 0
	            AND status IN ($3, $4)`
	return r.queryBatches(query, tenantID, cutoff, models.BatchStatusActive, models.BatchStatusNearExpiry)
}

// GetExpiredBatches returns batches whose expiry date is strictly before asOf
// and that have not yet reached a terminal status.
func (r *batchRepository) GetExpiredBatches(tenantID string, asOf time.Time) ([]models.Batch, error) {
	query := `SELECT ` + batchColumns + `
	          FROM batches
	          WHERE tenant_id = $1 AND expiry_date IS NOT NULL AND expiry_date < $2
	            AND status NOT IN ($3, $4)`
	return r.queryBatches(query, tenantID, asOf, models.BatchStatusExpired, models.BatchStatusDisposed)
}

// MarkBatchesNearExpiry bulk-transitions the given batches to near_expiry.
// The status guard makes the update a no-op for batches that concurrently
// moved out of active, so re-running a pass is safe.
func (r *batchRepository) MarkBatchesNearExpiry(batchIDs []string) (int64, error) {
	if len(batchIDs) == 0 {
		return 0, nil
	}
	query := `UPDATE batches SET status = $1, updated_at = $2
	          WHERE id = ANY($3) AND status = $4`
	result, err := r.db.Exec(query, models.BatchStatusNearExpiry, time.Now(), pq.Array(batchIDs), models.BatchStatusActive)
	if err != nil {
		return 0, fmt.Errorf("%w: marking batches near expiry: %v", ErrDatabaseError, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: reading affected rows: %v", ErrDatabaseError, err)
	}
	return affected, nil
}

// MarkBatchExpired transitions one batch to expired unless it already reached
// a terminal status. Returns false when the guard suppressed the update.
func (r *batchRepository) MarkBatchExpired(batchID string) (bool, error) {
	query := `UPDATE batches SET status = $1, updated_at = $2
	          WHERE id = $3 AND status NOT IN ($4, $5)`
	result, err := r.db.Exec(query, models.BatchStatusExpired, time.Now(), batchID,
		models.BatchStatusExpired, models.BatchStatusDisposed)
	if err != nil {
		return false, fmt.Errorf("%w: marking batch expired: %v", ErrDatabaseError, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: reading affected rows: %v", ErrDatabaseError, err)
	}
	return affected > 0, nil
}

// GetAvailableQuantity sums available stock across allocatable batches for a
// SKU/warehouse pair. near_expiry batches still count: they are sellable
// until they actually expire.
func (r *batchRepository) GetAvailableQuantity(tenantID, skuID, warehouseID string) (int, error) {
	query := `SELECT COALESCE(SUM(quantity_available), 0)
	          FROM batches
	          WHERE tenant_id = $1 AND sku_id = $2 AND warehouse_id = $3
	            AND status IN ($4, $5)`
	var quantity int
	err := r.db.QueryRow(query, tenantID, skuID, warehouseID,
		models.BatchStatusActive, models.BatchStatusNearExpiry).Scan(&quantity)
	if err != nil {
		return 0, fmt.Errorf("%w: summing available quantity: %v", ErrDatabaseError, err)
	}
	return quantity, nil
}

// ListActiveTenants returns the distinct tenants that currently own batch
// records, i.e. the tenants the scheduled monitors must visit.
func (r *batchRepository) ListActiveTenants() ([]string, error) {
	rows, err := r.db.Query(`SELECT DISTINCT tenant_id FROM batches ORDER BY tenant_id`)
	if err != nil {
		return nil, fmt.Errorf("%w: listing tenants: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	tenants := []string{}
	for rows.Next() {
		var tenantID string
		if err := rows.Scan(&tenantID); err != nil {
			return nil, fmt.Errorf("%w: scanning tenant id: %v", ErrDatabaseError, err)
		}
		tenants = append(tenants, tenantID)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating tenants: %v", ErrDatabaseError, err)
	}
	return tenants, nil
}
