package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/internal/cache"
	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/internal/models"
	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/internal/repositories"

	"github.com/shopspring/decimal"
)

// --- Custom Service Errors for Velocity ---
var (
	// ErrInsufficientMovementData is the typed "no data" result: fewer
	// non-zero movement days than the configured minimum. Callers must not
	// treat it as zero velocity.
	ErrInsufficientMovementData = errors.New("insufficient movement data for velocity estimate")
)

// Trend slope dead-zone. The slope is normalized by the mean daily volume
// before comparison, so the same threshold works for high- and low-volume
// SKUs.
const trendDeadZone = 0.1

// DefaultVelocityLookbackDays is used when a caller passes a non-positive
// lookback.
const DefaultVelocityLookbackDays = 30

// --- VelocityService Interface ---

// VelocityService computes consumption-rate statistics per SKU/warehouse
// from movement history. Results are cached with a bounded TTL; both
// scheduled monitors read through this service in the same evaluation cycle.
type VelocityService interface {
	EstimateVelocity(ctx context.Context, tenantID, skuID, warehouseID string, lookbackDays int) (*models.VelocityMetrics, error)
}

// --- velocityService Implementation ---

type velocityService struct {
	movementRepo  repositories.MovementRepository
	batchRepo     repositories.BatchRepository
	velocityCache cache.VelocityCache
	minSampleDays int
	now           func() time.Time
}

// NewVelocityService creates a new instance of VelocityService.
// minSampleDays is the minimum count of days with non-zero outbound activity
// below which the estimator reports ErrInsufficientMovementData.
func NewVelocityService(
	movementRepo repositories.MovementRepository,
	batchRepo repositories.BatchRepository,
	velocityCache cache.VelocityCache,
	minSampleDays int,
) VelocityService {
	if minSampleDays <= 0 {
		minSampleDays = 3
	}
	return &velocityService{
		movementRepo:  movementRepo,
		batchRepo:     batchRepo,
		velocityCache: velocityCache,
		minSampleDays: minSampleDays,
		now:           time.Now,
	}
}

func (s *velocityService) EstimateVelocity(ctx context.Context, tenantID, skuID, warehouseID string, lookbackDays int) (*models.VelocityMetrics, error) {
	if lookbackDays <= 0 {
		lookbackDays = DefaultVelocityLookbackDays
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cached, ok := s.velocityCache.Get(tenantID, skuID, warehouseID); ok {
		return cached, nil
	}

	now := s.now()
	since := now.AddDate(0, 0, -lookbackDays)
	days, err := s.movementRepo.GetDailyOutbound(tenantID, skuID, warehouseID, since)
	if err != nil {
		return nil, fmt.Errorf("loading movement history: %w", err)
	}

	sampleDays := 0
	total := 0
	for _, d := range days {
		if d.Quantity > 0 {
			sampleDays++
			total += d.Quantity
		}
	}
	if sampleDays < s.minSampleDays {
		return nil, fmt.Errorf("%w: %d non-zero days, need %d", ErrInsufficientMovementData, sampleDays, s.minSampleDays)
	}

	dailyAverage := decimal.NewFromInt(int64(total)).DivRound(decimal.NewFromInt(int64(sampleDays)), 4)
	trend := classifyTrend(days, since)

	available, err := s.batchRepo.GetAvailableQuantity(tenantID, skuID, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("loading available quantity: %w", err)
	}

	daysOfStock := decimal.NewFromInt(models.DaysOfStockInfinite)
	if dailyAverage.IsPositive() {
		daysOfStock = decimal.NewFromInt(int64(available)).DivRound(dailyAverage, 2)
	}

	metrics := &models.VelocityMetrics{
		TenantID:          tenantID,
		SKUID:             skuID,
		WarehouseID:       warehouseID,
		DailyAverage:      dailyAverage,
		WeeklyAverage:     dailyAverage.Mul(decimal.NewFromInt(7)),
		MonthlyAverage:    dailyAverage.Mul(decimal.NewFromInt(30)),
		Trend:             trend,
		DaysOfStock:       daysOfStock,
		StockoutRiskScore: stockoutRiskScore(daysOfStock, trend),
		SampleDays:        sampleDays,
		LookbackDays:      lookbackDays,
		ComputedAt:        now,
	}
	s.velocityCache.Set(tenantID, skuID, warehouseID, metrics)
	return metrics, nil
}

// classifyTrend fits a least-squares line through (day offset, quantity) and
// classifies the slope against a dead-zone. The slope is divided by the mean
// daily quantity first, so "increasing" means roughly +10%/day of the typical
// volume rather than an absolute unit count.
func classifyTrend(days []models.DailyOutbound, windowStart time.Time) string {
	if len(days) < 2 {
		return models.TrendStable
	}

	var sumX, sumY, sumXY, sumXX float64
	n := float64(len(days))
	for _, d := range days {
		x := d.Day.Sub(windowStart).Hours() / 24
		y := float64(d.Quantity)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denominator := n*sumXX - sumX*sumX
	if denominator == 0 {
		return models.TrendStable
	}
	slope := (n*sumXY - sumX*sumY) / denominator

	mean := sumY / n
	if mean > 0 {
		slope /= mean
	}

	switch {
	case slope > trendDeadZone:
		return models.TrendIncreasing
	case slope < -trendDeadZone:
		return models.TrendDecreasing
	default:
		return models.TrendStable
	}
}

// stockoutRiskScore maps days-of-stock onto banded risk, then adjusts for
// trend: an increasing consumption rate raises the score by 15 (capped at
// 100), a decreasing one lowers it by 10 (floored at 0).
func stockoutRiskScore(daysOfStock decimal.Decimal, trend string) int {
	var score int
	switch {
	case daysOfStock.LessThan(decimal.NewFromInt(3)):
		score = 90
	case daysOfStock.LessThan(decimal.NewFromInt(7)):
		score = 60
	case daysOfStock.LessThan(decimal.NewFromInt(14)):
		score = 30
	case daysOfStock.LessThan(decimal.NewFromInt(30)):
		score = 10
	default:
		score = 0
	}

	switch trend {
	case models.TrendIncreasing:
		score += 15
		if score > 100 {
			score = 100
		}
	case models.TrendDecreasing:
		score -= 10
		if score < 0 {
			score = 0
		}
	}
	return score
}
