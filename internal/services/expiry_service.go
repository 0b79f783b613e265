package services

import (
	"context"
	"fmt"
	"time"

	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/internal/events"
	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/internal/models"
	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/internal/repositories"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Expiry classification levels, reused as the <level> segment of the
// batch.expiry.<level> topic.
const (
	ExpiryLevelEmergency = "emergency"
	ExpiryLevelCritical  = "critical"
	ExpiryLevelWarning   = "warning"
)

// ExpiryConfig tunes the scheduled expiry pass.
type ExpiryConfig struct {
	LookaheadDays int // window queried for classification
	WarningDays   int // <= this and > CriticalDays classifies critical
	CriticalDays  int // <= this classifies emergency
}

// DefaultExpiryConfig mirrors the production defaults: 90-day lookahead,
// critical within 30 days, emergency within 7.
func DefaultExpiryConfig() ExpiryConfig {
	return ExpiryConfig{LookaheadDays: 90, WarningDays: 30, CriticalDays: 7}
}

// ExpiryCheckSummary reports what one tenant pass did.
type ExpiryCheckSummary struct {
	TenantID         string         `json:"tenant_id"`
	CountsByLevel    map[string]int `json:"counts_by_level"`
	MarkedNearExpiry int64          `json:"marked_near_expiry"`
	ExpiredBatches   int            `json:"expired_batches"`
	CheckedAt        time.Time      `json:"checked_at"`
}

// ExpiryRunSummary aggregates a full scheduled pass across tenants.
type ExpiryRunSummary struct {
	Tenants       int      `json:"tenants"`
	FailedTenants []string `json:"failed_tenants,omitempty"`
}

// --- ExpiryService Interface ---

// ExpiryService is the expiry lifecycle monitor. It drives the
// active -> near_expiry -> expired transitions only; quarantine, on_hold and
// disposed batches are never touched.
type ExpiryService interface {
	CheckTenant(ctx context.Context, tenantID string) (*ExpiryCheckSummary, error)
	Run(ctx context.Context) (*ExpiryRunSummary, error)
}

// --- expiryService Implementation ---

type expiryService struct {
	batchRepo repositories.BatchRepository
	publisher events.Publisher
	config    ExpiryConfig
	now       func() time.Time
}

// NewExpiryService creates a new instance of ExpiryService.
func NewExpiryService(batchRepo repositories.BatchRepository, publisher events.Publisher, config ExpiryConfig) ExpiryService {
	return &expiryService{
		batchRepo: batchRepo,
		publisher: publisher,
		config:    config,
		now:       time.Now,
	}
}

func (s *expiryService) classify(daysUntilExpiry int) string {
	switch {
	case daysUntilExpiry <= s.config.CriticalDays:
		return ExpiryLevelEmergency
	case daysUntilExpiry <= s.config.WarningDays:
		return ExpiryLevelCritical
	default:
		return ExpiryLevelWarning
	}
}

// CheckTenant classifies every expiring batch for the tenant, advances
// emergency/critical batches still active to near_expiry in one bulk guarded
// update, runs the expiry sweep, and publishes one aggregate event per level.
// Re-running with unchanged data is a no-op thanks to the status guards.
func (s *expiryService) CheckTenant(ctx context.Context, tenantID string) (*ExpiryCheckSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := s.now()
	cutoff := now.AddDate(0, 0, s.config.LookaheadDays)

	batches, err := s.batchRepo.GetBatchesExpiringBy(tenantID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("loading expiring batches: %w", err)
	}

	byLevel := map[string][]events.ExpiringBatch{}
	var toNearExpiry []string
	for _, batch := range batches {
		days, ok := batch.DaysUntilExpiry(now)
		if !ok {
			continue
		}
		level := s.classify(days)
		byLevel[level] = append(byLevel[level], events.ExpiringBatch{
			BatchID:         batch.ID,
			BatchNumber:     batch.BatchNumber,
			SKUID:           batch.SKUID,
			WarehouseID:     batch.WarehouseID,
			DaysUntilExpiry: days,
			Quantity:        batch.QuantityAvailable,
		})
		if level != ExpiryLevelWarning && batch.Status == models.BatchStatusActive {
			toNearExpiry = append(toNearExpiry, batch.ID)
		}
	}

	marked, err := s.batchRepo.MarkBatchesNearExpiry(toNearExpiry)
	if err != nil {
		return nil, fmt.Errorf("transitioning batches to near_expiry: %w", err)
	}

	// One aggregate publish per level per tenant; the payload lists every
	// affected batch, so consumers do not get a per-batch event storm.
	for _, level := range []string{ExpiryLevelEmergency, ExpiryLevelCritical, ExpiryLevelWarning} {
		affected := byLevel[level]
		if len(affected) == 0 {
			continue
		}
		s.publisher.Publish(events.ExpiryLevel{
			EventID:   uuid.New().String(),
			TenantID:  tenantID,
			Level:     level,
			Batches:   affected,
			Timestamp: now,
		})
	}

	expired, err := s.sweepExpired(tenantID, now)
	if err != nil {
		return nil, err
	}

	summary := &ExpiryCheckSummary{
		TenantID:         tenantID,
		CountsByLevel:    map[string]int{},
		MarkedNearExpiry: marked,
		ExpiredBatches:   expired,
		CheckedAt:        now,
	}
	for level, affected := range byLevel {
		summary.CountsByLevel[level] = len(affected)
	}
	return summary, nil
}

// sweepExpired transitions every batch past its expiry date to expired and
// emits one event per transitioned batch so downstream consumers can react
// individually (e.g. write off stock, flag orders).
func (s *expiryService) sweepExpired(tenantID string, now time.Time) (int, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	batches, err := s.batchRepo.GetExpiredBatches(tenantID, today)
	if err != nil {
		return 0, fmt.Errorf("loading expired batches: %w", err)
	}

	expired := 0
	for _, batch := range batches {
		updated, err := s.batchRepo.MarkBatchExpired(batch.ID)
		if err != nil {
			return expired, fmt.Errorf("expiring batch %s: %w", batch.ID, err)
		}
		if !updated {
			// Lost a race with a concurrent disposal/expiry; nothing to emit.
			continue
		}
		expired++
		s.publisher.Publish(events.BatchExpired{
			EventID:     uuid.New().String(),
			TenantID:    tenantID,
			BatchID:     batch.ID,
			BatchNumber: batch.BatchNumber,
			SKUID:       batch.SKUID,
			WarehouseID: batch.WarehouseID,
			ExpiryDate:  *batch.ExpiryDate,
			Timestamp:   now,
		})
	}
	return expired, nil
}

// Run executes CheckTenant for every active tenant. A failure for one tenant
// is logged and recorded but never aborts the remaining tenants; the next
// scheduled tick retries safely.
func (s *expiryService) Run(ctx context.Context) (*ExpiryRunSummary, error) {
	tenants, err := s.batchRepo.ListActiveTenants()
	if err != nil {
		return nil, fmt.Errorf("listing tenants: %w", err)
	}

	summary := &ExpiryRunSummary{Tenants: len(tenants)}
	for _, tenantID := range tenants {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if _, err := s.CheckTenant(ctx, tenantID); err != nil {
			summary.FailedTenants = append(summary.FailedTenants, tenantID)
			log.Error().Err(err).Str("tenant_id", tenantID).Msg("Expiry check failed for tenant")
		}
	}
	return summary, nil
}
