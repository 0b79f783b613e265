package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/internal/events"
	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/internal/models"
	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/internal/repositories"

	"github.com/google/uuid"
)

// --- Custom Service Errors for Allocation ---
var (
	ErrAllocationValidation = errors.New("allocation request validation error")
)

// NearExpiryWarningDays is the horizon inside which an allocated batch adds
// an informational warning to the result.
const NearExpiryWarningDays = 30

// --- Allocation DTOs ---

// AllocateRequest carries the parameters of one allocation demand. The engine
// plans against a single SKU/warehouse pair; order-level allocation across
// SKUs belongs to the caller.
type AllocateRequest struct {
	TenantID        string   `json:"tenant_id" binding:"required"`
	SKUID           string   `json:"sku_id" binding:"required"`
	WarehouseID     string   `json:"warehouse_id" binding:"required"`
	Quantity        int      `json:"quantity" binding:"required,gt=0"`
	ExcludeBatchIDs []string `json:"exclude_batch_ids,omitempty"`
	EnforceFEFO     *bool    `json:"enforce_fefo,omitempty"` // Defaults to true when omitted
}

// BatchAllocation is one line of an allocation plan.
type BatchAllocation struct {
	BatchID           string     `json:"batch_id"`
	BatchNumber       string     `json:"batch_number"`
	ExpiryDate        *time.Time `json:"expiry_date,omitempty"`
	AvailableQuantity int        `json:"available_quantity"`
	AllocatedQuantity int        `json:"allocated_quantity"`
	FEFOPriority      int        `json:"fefo_priority"` // 1-based consumption order
}

// AllocationResult is the request-scoped plan. It is not persisted; the
// caller applies the reservations and downstream consumers see the
// batch.fefo.update event.
type AllocationResult struct {
	TenantID          string            `json:"tenant_id"`
	SKUID             string            `json:"sku_id"`
	WarehouseID       string            `json:"warehouse_id"`
	RequestedQuantity int               `json:"requested_quantity"`
	AllocatedQuantity int               `json:"allocated_quantity"`
	RemainingQuantity int               `json:"remaining_quantity"`
	FullyAllocated    bool              `json:"fully_allocated"`
	Allocations       []BatchAllocation `json:"allocations"`
	Warnings          []string          `json:"warnings,omitempty"`
}

// --- AllocationService Interface ---

// AllocationService plans first-expiry-first-out allocations. It is a pure
// planning function plus an event side effect: it never decrements batch
// quantities itself, so the caller's persistence layer owns read-modify-write
// atomicity on quantity_available.
type AllocationService interface {
	Allocate(ctx context.Context, req AllocateRequest) (*AllocationResult, error)
}

// --- allocationService Implementation ---

type allocationService struct {
	batchRepo repositories.BatchRepository
	publisher events.Publisher
	now       func() time.Time
}

// NewAllocationService creates a new instance of AllocationService.
func NewAllocationService(batchRepo repositories.BatchRepository, publisher events.Publisher) AllocationService {
	return &allocationService{
		batchRepo: batchRepo,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *allocationService) validateRequest(req AllocateRequest) error {
	if strings.TrimSpace(req.TenantID) == "" {
		return fmt.Errorf("%w: tenant id is required", ErrAllocationValidation)
	}
	if strings.TrimSpace(req.SKUID) == "" {
		return fmt.Errorf("%w: sku id is required", ErrAllocationValidation)
	}
	if strings.TrimSpace(req.WarehouseID) == "" {
		return fmt.Errorf("%w: warehouse id is required", ErrAllocationValidation)
	}
	if req.Quantity <= 0 {
		return fmt.Errorf("%w: requested quantity must be positive, got %d", ErrAllocationValidation, req.Quantity)
	}
	return nil
}

// orderBatches sorts eligible batches into consumption order. With FEFO
// enforced: ascending expiry with null-expiry batches last, then ascending
// received date, then batch id so the order is total and reproducible under
// any input permutation. Without FEFO: received date only (plus the id
// tiebreak).
func orderBatches(batches []models.Batch, enforceFEFO bool) {
	sort.SliceStable(batches, func(i, j int) bool {
		a, b := &batches[i], &batches[j]
		if enforceFEFO {
			switch {
			case a.ExpiryDate != nil && b.ExpiryDate == nil:
				return true
			case a.ExpiryDate == nil && b.ExpiryDate != nil:
				return false
			case a.ExpiryDate != nil && b.ExpiryDate != nil && !a.ExpiryDate.Equal(*b.ExpiryDate):
				return a.ExpiryDate.Before(*b.ExpiryDate)
			}
		}
		if !a.ReceivedDate.Equal(b.ReceivedDate) {
			return a.ReceivedDate.Before(b.ReceivedDate)
		}
		return a.ID < b.ID
	})
}

func (s *allocationService) Allocate(ctx context.Context, req AllocateRequest) (*AllocationResult, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	enforceFEFO := true
	if req.EnforceFEFO != nil {
		enforceFEFO = *req.EnforceFEFO
	}

	batches, err := s.batchRepo.GetEligibleBatches(req.TenantID, req.SKUID, req.WarehouseID)
	if err != nil {
		return nil, fmt.Errorf("loading eligible batches: %w", err)
	}

	excluded := make(map[string]struct{}, len(req.ExcludeBatchIDs))
	for _, id := range req.ExcludeBatchIDs {
		excluded[id] = struct{}{}
	}
	eligible := batches[:0]
	for _, batch := range batches {
		if _, skip := excluded[batch.ID]; !skip {
			eligible = append(eligible, batch)
		}
	}

	orderBatches(eligible, enforceFEFO)

	result := &AllocationResult{
		TenantID:          req.TenantID,
		SKUID:             req.SKUID,
		WarehouseID:       req.WarehouseID,
		RequestedQuantity: req.Quantity,
		Allocations:       []BatchAllocation{},
	}

	now := s.now()
	remaining := req.Quantity
	for _, batch := range eligible {
		if remaining == 0 {
			break
		}
		take := batch.QuantityAvailable
		if take > remaining {
			take = remaining
		}
		remaining -= take

		result.Allocations = append(result.Allocations, BatchAllocation{
			BatchID:           batch.ID,
			BatchNumber:       batch.BatchNumber,
			ExpiryDate:        batch.ExpiryDate,
			AvailableQuantity: batch.QuantityAvailable,
			AllocatedQuantity: take,
			FEFOPriority:      len(result.Allocations) + 1,
		})

		if days, ok := batch.DaysUntilExpiry(now); ok && days <= NearExpiryWarningDays {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("batch %s expires in %d days", batch.BatchNumber, days))
		}
	}

	result.AllocatedQuantity = req.Quantity - remaining
	result.RemainingQuantity = remaining
	result.FullyAllocated = remaining == 0

	// Shortfalls are a normal business outcome, not an error.
	if len(eligible) == 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("no eligible batches for sku %s at warehouse %s", req.SKUID, req.WarehouseID))
	} else if !result.FullyAllocated {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("insufficient stock: %d of %d units allocated, short %d",
				result.AllocatedQuantity, req.Quantity, remaining))
	}

	if len(result.Allocations) > 0 {
		s.publishPlan(result, now)
	}
	return result, nil
}

func (s *allocationService) publishPlan(result *AllocationResult, now time.Time) {
	lines := make([]events.BatchAllocationLine, 0, len(result.Allocations))
	for _, alloc := range result.Allocations {
		lines = append(lines, events.BatchAllocationLine{
			BatchID:           alloc.BatchID,
			BatchNumber:       alloc.BatchNumber,
			AllocatedQuantity: alloc.AllocatedQuantity,
			FEFOPriority:      alloc.FEFOPriority,
		})
	}
	s.publisher.Publish(events.FEFOUpdate{
		EventID:           uuid.New().String(),
		TenantID:          result.TenantID,
		SKUID:             result.SKUID,
		WarehouseID:       result.WarehouseID,
		RequestedQuantity: result.RequestedQuantity,
		AllocatedQuantity: result.AllocatedQuantity,
		FullyAllocated:    result.FullyAllocated,
		Allocations:       lines,
		Timestamp:         now,
	})
}
