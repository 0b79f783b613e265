package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/internal/models"
)

// AlertRepository defines the interface for threshold-alert database
// operations.
type AlertRepository interface {
	// CreateAlertIfNotDuplicate inserts the alert unless an active alert for
	// the same (tenant, sku, warehouse, type) was created within dedupWindow.
	// The check and the insert run in one transaction, so racing evaluators
	// cannot both insert. Returns false when the insert was suppressed.
	CreateAlertIfNotDuplicate(alert *models.ThresholdAlert, dedupWindow time.Duration) (bool, error)
	AcknowledgeAlert(alertID, actor string) error
	ResolveAlert(alertID, actor string) error
	GetAlerts(tenantID string, status *string, page, pageSize int) ([]models.ThresholdAlert, int, error)
}

type alertRepository struct {
	db *sql.DB
}

// NewAlertRepository creates a new instance of AlertRepository.
func NewAlertRepository(db *sql.DB) AlertRepository {
	return &alertRepository{db: db}
}

func (r *alertRepository) CreateAlertIfNotDuplicate(alert *models.ThresholdAlert, dedupWindow time.Duration) (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, fmt.Errorf("%w: beginning alert transaction: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now()
	}
	since := alert.CreatedAt.Add(-dedupWindow)
	exists, err := r.hasRecentActiveAlert(tx, alert.TenantID, alert.SKUID, alert.WarehouseID, alert.AlertType, since)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := r.insertAlert(tx, alert); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("%w: committing alert: %v", ErrDatabaseError, err)
	}
	return true, nil
}

// hasRecentActiveAlert reports whether an active alert for the same
// (tenant, sku, warehouse, type) was created after the given instant.
func (r *alertRepository) hasRecentActiveAlert(executor SQLExecutor, tenantID, skuID, warehouseID, alertType string, since time.Time) (bool, error) {
	query := `SELECT EXISTS(
	            SELECT 1 FROM threshold_alerts
	            WHERE tenant_id = $1 AND sku_id = $2 AND warehouse_id = $3
	              AND alert_type = $4 AND status = $5 AND created_at >= $6
	          )`
	var exists bool
	err := executor.QueryRow(query, tenantID, skuID, warehouseID, alertType, models.AlertStatusActive, since).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: checking recent active alert: %v", ErrDatabaseError, err)
	}
	return exists, nil
}

func (r *alertRepository) insertAlert(executor SQLExecutor, alert *models.ThresholdAlert) error {
	var velocity []byte
	if alert.Velocity != nil {
		var err error
		velocity, err = json.Marshal(alert.Velocity)
		if err != nil {
			return fmt.Errorf("encoding velocity snapshot: %w", err)
		}
	}

	query := `INSERT INTO threshold_alerts
	          (id, tenant_id, sku_id, warehouse_id, alert_type, severity,
	           current_quantity, threshold_quantity, velocity, message, status, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := executor.Exec(query,
		alert.ID, alert.TenantID, alert.SKUID, alert.WarehouseID, alert.AlertType, alert.Severity,
		alert.CurrentQuantity, alert.ThresholdQuantity, velocity, alert.Message, alert.Status, alert.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return fmt.Errorf("%w: creating threshold alert: %v", ErrDuplicateKey, err)
		}
		return fmt.Errorf("%w: creating threshold alert: %v", ErrDatabaseError, err)
	}
	return nil
}

// AcknowledgeAlert moves an alert from active to acknowledged. Returns
// ErrNotFound when no such alert exists and ErrConflict when it exists but is
// not currently active.
func (r *alertRepository) AcknowledgeAlert(alertID, actor string) error {
	query := `UPDATE threshold_alerts
	          SET status = $1, acknowledged_at = $2, acknowledged_by = $3
	          WHERE id = $4 AND status = $5`
	return r.guardedTransition(query, alertID,
		models.AlertStatusAcknowledged, time.Now(), actor, alertID, models.AlertStatusActive)
}

// ResolveAlert moves an alert from active or acknowledged to resolved.
func (r *alertRepository) ResolveAlert(alertID, actor string) error {
	query := `UPDATE threshold_alerts
	          SET status = $1, resolved_at = $2, resolved_by = $3
	          WHERE id = $4 AND status IN ($5, $6)`
	return r.guardedTransition(query, alertID,
		models.AlertStatusResolved, time.Now(), actor, alertID, models.AlertStatusActive, models.AlertStatusAcknowledged)
}

// guardedTransition runs a status-guarded update and distinguishes "no such
// alert" from "alert in the wrong state" when zero rows were touched.
func (r *alertRepository) guardedTransition(query, alertID string, args ...interface{}) error {
	result, err := r.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("%w: updating alert status: %v", ErrDatabaseError, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: reading affected rows: %v", ErrDatabaseError, err)
	}
	if affected > 0 {
		return nil
	}

	var status string
	err = r.db.QueryRow(`SELECT status FROM threshold_alerts WHERE id = $1`, alertID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: re-reading alert: %v", ErrDatabaseError, err)
	}
	return fmt.Errorf("%w: alert is %s", ErrConflict, status)
}

func (r *alertRepository) GetAlerts(tenantID string, status *string, page, pageSize int) ([]models.ThresholdAlert, int, error) {
	alerts := []models.ThresholdAlert{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	    id, tenant_id, sku_id, warehouse_id, alert_type, severity,
	    current_quantity, threshold_quantity, velocity, message, status,
	    created_at, acknowledged_at, acknowledged_by, resolved_at, resolved_by,
	    COUNT(*) OVER() AS total_count
	  FROM threshold_alerts
	  WHERE tenant_id = $1`)

	args := []interface{}{tenantID}
	argCount := 2

	if status != nil && *status != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND status = $%d", argCount))
		args = append(args, *status)
		argCount++
	}

	queryBuilder.WriteString(" ORDER BY created_at DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting alerts: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var alert models.ThresholdAlert
		var velocity []byte
		if err := rows.Scan(
			&alert.ID, &alert.TenantID, &alert.SKUID, &alert.WarehouseID, &alert.AlertType, &alert.Severity,
			&alert.CurrentQuantity, &alert.ThresholdQuantity, &velocity, &alert.Message, &alert.Status,
			&alert.CreatedAt, &alert.AcknowledgedAt, &alert.AcknowledgedBy, &alert.ResolvedAt, &alert.ResolvedBy,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning alert: %v", ErrDatabaseError, err)
		}
		if len(velocity) > 0 {
			var snapshot models.VelocityMetrics
			if err := json.Unmarshal(velocity, &snapshot); err != nil {
				return nil, 0, fmt.Errorf("decoding velocity snapshot: %w", err)
			}
			alert.Velocity = &snapshot
		}
		alerts = append(alerts, alert)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating alerts: %v", ErrDatabaseError, err)
	}
	return alerts, totalCount, nil
}
