package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/internal/events"
	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/internal/models"
	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/internal/notifications"
	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/internal/repositories"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// stockoutRiskOverrideScore is the risk score above which a velocity anomaly
// escalates an otherwise warning-or-clean evaluation.
const stockoutRiskOverrideScore = 70

// ThresholdOptions tunes the threshold detector.
type ThresholdOptions struct {
	DedupWindow          time.Duration // suppress same-type alerts created within this window
	VelocityLookbackDays int
}

// DefaultThresholdOptions returns the production defaults: 24h dedup window,
// 30-day velocity lookback.
func DefaultThresholdOptions() ThresholdOptions {
	return ThresholdOptions{DedupWindow: 24 * time.Hour, VelocityLookbackDays: 30}
}

// ThresholdRunSummary aggregates a full scheduled pass across tenants.
type ThresholdRunSummary struct {
	Tenants       int      `json:"tenants"`
	AlertsCreated int      `json:"alerts_created"`
	FailedTenants []string `json:"failed_tenants,omitempty"`
}

// evaluation is the computed state one config row is judged against.
type evaluation struct {
	current               int
	safetyStock           int
	effectiveReorderPoint int
	maxQuantity           *int
}

// violationRule is one row of the ordered classification table. Rules are
// evaluated top to bottom and the first match wins, which makes the severity
// precedence explicit and independently testable.
type violationRule struct {
	alertType string
	severity  string
	matches   func(e evaluation) bool
	threshold func(e evaluation) int
}

var violationRules = []violationRule{
	{
		alertType: models.AlertTypeOutOfStock,
		severity:  models.SeverityEmergency,
		matches:   func(e evaluation) bool { return e.current == 0 },
		threshold: func(e evaluation) int { return e.safetyStock },
	},
	{
		alertType: models.AlertTypeCriticalStock,
		severity:  models.SeverityCritical,
		matches:   func(e evaluation) bool { return e.current < e.safetyStock },
		threshold: func(e evaluation) int { return e.safetyStock },
	},
	{
		alertType: models.AlertTypeLowStock,
		severity:  models.SeverityWarning,
		matches:   func(e evaluation) bool { return e.current < e.effectiveReorderPoint },
		threshold: func(e evaluation) int { return e.effectiveReorderPoint },
	},
	{
		alertType: models.AlertTypeOverstock,
		severity:  models.SeverityWarning,
		matches:   func(e evaluation) bool { return e.maxQuantity != nil && e.current > *e.maxQuantity },
		threshold: func(e evaluation) int { return *e.maxQuantity },
	},
}

// --- ThresholdService Interface ---

// ThresholdService evaluates stock levels against static and
// velocity-adjusted thresholds, raising deduplicated severity-ranked alerts,
// and exposes the operator transitions on those alerts.
type ThresholdService interface {
	EvaluateTenant(ctx context.Context, tenantID string) ([]models.ThresholdAlert, error)
	Run(ctx context.Context) (*ThresholdRunSummary, error)
	AcknowledgeAlert(alertID, actor string) error
	ResolveAlert(alertID, actor string) error
	ListAlerts(tenantID string, status *string, page, pageSize int) ([]models.ThresholdAlert, int, error)
}

// --- thresholdService Implementation ---

type thresholdService struct {
	configRepo  repositories.ThresholdConfigRepository
	batchRepo   repositories.BatchRepository
	alertRepo   repositories.AlertRepository
	velocitySvc VelocityService
	dispatcher  notifications.Dispatcher
	publisher   events.Publisher
	options     ThresholdOptions
	now         func() time.Time
}

// NewThresholdService creates a new instance of ThresholdService.
func NewThresholdService(
	configRepo repositories.ThresholdConfigRepository,
	batchRepo repositories.BatchRepository,
	alertRepo repositories.AlertRepository,
	velocitySvc VelocityService,
	dispatcher notifications.Dispatcher,
	publisher events.Publisher,
	options ThresholdOptions,
) ThresholdService {
	return &thresholdService{
		configRepo:  configRepo,
		batchRepo:   batchRepo,
		alertRepo:   alertRepo,
		velocitySvc: velocitySvc,
		dispatcher:  dispatcher,
		publisher:   publisher,
		options:     options,
		now:         time.Now,
	}
}

// EvaluateTenant checks every configured SKU/warehouse pair of the tenant
// and returns the alerts it created. Pairs whose violation is suppressed by
// the dedup window produce nothing.
func (s *thresholdService) EvaluateTenant(ctx context.Context, tenantID string) ([]models.ThresholdAlert, error) {
	configs, err := s.configRepo.GetConfigsForTenant(tenantID)
	if err != nil {
		return nil, fmt.Errorf("loading threshold configs: %w", err)
	}

	created := []models.ThresholdAlert{}
	for _, cfg := range configs {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		alert, err := s.evaluatePair(ctx, &cfg)
		if err != nil {
			return created, err
		}
		if alert != nil {
			created = append(created, *alert)
		}
	}
	return created, nil
}

// evaluatePair classifies one SKU/warehouse pair and persists + fans out an
// alert when a violation is found. Returns nil when the pair is healthy or
// the alert was deduplicated.
func (s *thresholdService) evaluatePair(ctx context.Context, cfg *models.ThresholdConfig) (*models.ThresholdAlert, error) {
	current, err := s.batchRepo.GetAvailableQuantity(cfg.TenantID, cfg.SKUID, cfg.WarehouseID)
	if err != nil {
		return nil, fmt.Errorf("loading stock for sku %s: %w", cfg.SKUID, err)
	}

	velocity := s.estimateVelocity(ctx, cfg)

	eval := evaluation{
		current:               current,
		safetyStock:           cfg.EffectiveSafetyStock(),
		effectiveReorderPoint: effectiveReorderPoint(cfg, velocity),
		maxQuantity:           cfg.MaxQuantity,
	}

	alertType, severity, thresholdQty, matched := classifyViolation(eval)

	// Velocity anomaly override: escalates a warning-or-clean evaluation to
	// critical, never downgrades an existing emergency/critical call.
	if velocity != nil && velocity.StockoutRiskScore > stockoutRiskOverrideScore &&
		(!matched || severity == models.SeverityWarning) {
		alertType = models.AlertTypeVelocityAnomaly
		severity = models.SeverityCritical
		thresholdQty = eval.effectiveReorderPoint
		matched = true
	}
	if !matched {
		return nil, nil
	}

	alert := &models.ThresholdAlert{
		ID:                uuid.New().String(),
		TenantID:          cfg.TenantID,
		SKUID:             cfg.SKUID,
		WarehouseID:       cfg.WarehouseID,
		AlertType:         alertType,
		Severity:          severity,
		CurrentQuantity:   current,
		ThresholdQuantity: thresholdQty,
		Velocity:          velocity,
		Message:           violationMessage(alertType, cfg, eval),
		Status:            models.AlertStatusActive,
		CreatedAt:         s.now(),
	}

	persisted, err := s.alertRepo.CreateAlertIfNotDuplicate(alert, s.options.DedupWindow)
	if err != nil {
		return nil, err
	}
	if !persisted {
		return nil, nil
	}

	s.publisher.Publish(events.ThresholdAlertRaised{
		EventID:           uuid.New().String(),
		AlertID:           alert.ID,
		TenantID:          alert.TenantID,
		SKUID:             alert.SKUID,
		WarehouseID:       alert.WarehouseID,
		AlertType:         alert.AlertType,
		Severity:          alert.Severity,
		CurrentQuantity:   alert.CurrentQuantity,
		ThresholdQuantity: alert.ThresholdQuantity,
		Timestamp:         alert.CreatedAt,
	})
	s.notify(ctx, alert)
	return alert, nil
}

// estimateVelocity returns nil when the config is not velocity-based, when
// there is not enough movement data, or when the estimator fails. A missing
// estimate never aborts the evaluation; it degrades to static thresholds.
func (s *thresholdService) estimateVelocity(ctx context.Context, cfg *models.ThresholdConfig) *models.VelocityMetrics {
	if !cfg.VelocityBased {
		return nil
	}
	velocity, err := s.velocitySvc.EstimateVelocity(ctx, cfg.TenantID, cfg.SKUID, cfg.WarehouseID, s.options.VelocityLookbackDays)
	if err != nil {
		if !errors.Is(err, ErrInsufficientMovementData) {
			log.Warn().Err(err).
				Str("tenant_id", cfg.TenantID).
				Str("sku_id", cfg.SKUID).
				Msg("Velocity estimate unavailable, using static thresholds")
		}
		return nil
	}
	return velocity
}

// effectiveReorderPoint raises the static reorder point to
// daily_average * multiplier when velocity data is present. Velocity only
// ever raises the bar, never lowers it.
func effectiveReorderPoint(cfg *models.ThresholdConfig, velocity *models.VelocityMetrics) int {
	static := cfg.EffectiveStaticReorderPoint()
	if velocity == nil {
		return static
	}
	dynamic := int(velocity.DailyAverage.Mul(cfg.VelocityMultiplier).Ceil().IntPart())
	if dynamic > static {
		return dynamic
	}
	return static
}

// classifyViolation walks the ordered rule table; first match wins.
func classifyViolation(eval evaluation) (alertType, severity string, thresholdQty int, matched bool) {
	for _, rule := range violationRules {
		if rule.matches(eval) {
			return rule.alertType, rule.severity, rule.threshold(eval), true
		}
	}
	return "", "", 0, false
}

// violationMessage builds the operator-facing text including the
// deterministic recommended action.
func violationMessage(alertType string, cfg *models.ThresholdConfig, eval evaluation) string {
	location := fmt.Sprintf("sku %s at warehouse %s", cfg.SKUID, cfg.WarehouseID)
	switch alertType {
	case models.AlertTypeOutOfStock:
		return fmt.Sprintf("%s is out of stock; reorder %d units immediately",
			location, reorderUnits(cfg, eval))
	case models.AlertTypeCriticalStock:
		return fmt.Sprintf("%s is below safety stock (%d < %d); reorder %d units",
			location, eval.current, eval.safetyStock, reorderUnits(cfg, eval))
	case models.AlertTypeLowStock:
		return fmt.Sprintf("%s is below the reorder point (%d < %d); reorder %d units",
			location, eval.current, eval.effectiveReorderPoint, reorderUnits(cfg, eval))
	case models.AlertTypeOverstock:
		return fmt.Sprintf("%s exceeds the maximum quantity (%d > %d); reduce stock by %d units",
			location, eval.current, *eval.maxQuantity, eval.current-*eval.maxQuantity)
	case models.AlertTypeVelocityAnomaly:
		return fmt.Sprintf("%s shows elevated stockout risk at current consumption; reorder %d units",
			location, reorderUnits(cfg, eval))
	default:
		return fmt.Sprintf("%s violates a stock threshold", location)
	}
}

// reorderUnits recommends how much to order: the gap to the effective reorder
// point, but at least the configured reorder quantity when one is set.
func reorderUnits(cfg *models.ThresholdConfig, eval evaluation) int {
	gap := eval.effectiveReorderPoint - eval.current
	if gap < 0 {
		gap = 0
	}
	if cfg.ReorderQuantity != nil && *cfg.ReorderQuantity > gap {
		return *cfg.ReorderQuantity
	}
	return gap
}

// notify maps severity to channels and hands the payload to the dispatcher.
// Persistence already happened; a dispatch failure is logged and dropped.
func (s *thresholdService) notify(ctx context.Context, alert *models.ThresholdAlert) {
	channels := []string{models.ChannelInApp}
	switch alert.Severity {
	case models.SeverityCritical:
		channels = append(channels, models.ChannelEmail)
	case models.SeverityEmergency:
		channels = append(channels, models.ChannelEmail, models.ChannelSMS)
	}

	notification := notifications.Notification{
		TenantID: alert.TenantID,
		Title:    fmt.Sprintf("Stock alert: %s (%s)", alert.AlertType, alert.Severity),
		Message:  alert.Message,
		Severity: alert.Severity,
		Channels: channels,
		Metadata: map[string]interface{}{
			"alert_id":           alert.ID,
			"sku_id":             alert.SKUID,
			"warehouse_id":       alert.WarehouseID,
			"alert_type":         alert.AlertType,
			"current_quantity":   alert.CurrentQuantity,
			"threshold_quantity": alert.ThresholdQuantity,
		},
	}
	if err := s.dispatcher.Dispatch(ctx, notification); err != nil {
		log.Error().Err(err).
			Str("alert_id", alert.ID).
			Str("tenant_id", alert.TenantID).
			Msg("Alert notification dispatch failed")
	}
}

// Run evaluates every active tenant with per-tenant failure isolation.
func (s *thresholdService) Run(ctx context.Context) (*ThresholdRunSummary, error) {
	tenants, err := s.batchRepo.ListActiveTenants()
	if err != nil {
		return nil, fmt.Errorf("listing tenants: %w", err)
	}

	summary := &ThresholdRunSummary{Tenants: len(tenants)}
	for _, tenantID := range tenants {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		alerts, err := s.EvaluateTenant(ctx, tenantID)
		summary.AlertsCreated += len(alerts)
		if err != nil {
			summary.FailedTenants = append(summary.FailedTenants, tenantID)
			log.Error().Err(err).Str("tenant_id", tenantID).Msg("Threshold evaluation failed for tenant")
		}
	}
	return summary, nil
}

func (s *thresholdService) AcknowledgeAlert(alertID, actor string) error {
	return s.alertRepo.AcknowledgeAlert(alertID, actor)
}

func (s *thresholdService) ResolveAlert(alertID, actor string) error {
	return s.alertRepo.ResolveAlert(alertID, actor)
}

func (s *thresholdService) ListAlerts(tenantID string, status *string, page, pageSize int) ([]models.ThresholdAlert, int, error) {
	return s.alertRepo.GetAlerts(tenantID, status, page, pageSize)
}
