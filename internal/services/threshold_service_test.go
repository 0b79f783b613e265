package services

import (
	"context"
	"testing"
	"time"

	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var thresholdNow = time.Date(2025, 12, 20, 12, 0, 0, 0, time.UTC)

type thresholdFixture struct {
	configs    *fakeConfigRepository
	batches    *fakeBatchRepository
	alerts     *fakeAlertRepository
	velocity   *fakeVelocityService
	dispatcher *fakeDispatcher
	publisher  *fakePublisher
	service    ThresholdService
}

func newThresholdFixture(cfg models.ThresholdConfig, available int) *thresholdFixture {
	f := &thresholdFixture{
		configs: &fakeConfigRepository{configs: map[string][]models.ThresholdConfig{
			cfg.TenantID: {cfg},
		}},
		batches: &fakeBatchRepository{available: map[string]int{
			stockKey(cfg.TenantID, cfg.SKUID, cfg.WarehouseID): available,
		}},
		alerts:     &fakeAlertRepository{},
		velocity:   &fakeVelocityService{err: ErrInsufficientMovementData},
		dispatcher: &fakeDispatcher{},
		publisher:  &fakePublisher{},
	}
	svc := NewThresholdService(f.configs, f.batches, f.alerts, f.velocity,
		f.dispatcher, f.publisher, DefaultThresholdOptions()).(*thresholdService)
	svc.now = func() time.Time { return thresholdNow }
	f.service = svc
	return f
}

func staticConfig() models.ThresholdConfig {
	return models.ThresholdConfig{
		ID:           "cfg-1",
		TenantID:     "tenant-1",
		SKUID:        "sku-1",
		WarehouseID:  "wh-1",
		MinQuantity:  10,
		SafetyStock:  intPtr(20),
		ReorderPoint: intPtr(40),
	}
}

func velocityConfig(multiplier string) models.ThresholdConfig {
	cfg := staticConfig()
	cfg.VelocityBased = true
	cfg.VelocityMultiplier = decimal.RequireFromString(multiplier)
	return cfg
}

func velocityMetrics(dailyAverage int64, riskScore int) *models.VelocityMetrics {
	return &models.VelocityMetrics{
		TenantID:          "tenant-1",
		SKUID:             "sku-1",
		WarehouseID:       "wh-1",
		DailyAverage:      decimal.NewFromInt(dailyAverage),
		Trend:             models.TrendStable,
		StockoutRiskScore: riskScore,
		ComputedAt:        thresholdNow,
	}
}

func TestClassifyViolationPrecedence(t *testing.T) {
	max := intPtr(500)
	cases := []struct {
		name          string
		eval          evaluation
		wantType      string
		wantSeverity  string
		wantThreshold int
		wantMatch     bool
	}{
		{
			name:          "zero stock beats every other rule",
			eval:          evaluation{current: 0, safetyStock: 20, effectiveReorderPoint: 40, maxQuantity: max},
			wantType:      models.AlertTypeOutOfStock,
			wantSeverity:  models.SeverityEmergency,
			wantThreshold: 20,
			wantMatch:     true,
		},
		{
			name:          "below safety stock is critical",
			eval:          evaluation{current: 15, safetyStock: 20, effectiveReorderPoint: 40, maxQuantity: max},
			wantType:      models.AlertTypeCriticalStock,
			wantSeverity:  models.SeverityCritical,
			wantThreshold: 20,
			wantMatch:     true,
		},
		{
			name:          "below reorder point is a warning",
			eval:          evaluation{current: 30, safetyStock: 20, effectiveReorderPoint: 40, maxQuantity: max},
			wantType:      models.AlertTypeLowStock,
			wantSeverity:  models.SeverityWarning,
			wantThreshold: 40,
			wantMatch:     true,
		},
		{
			name:          "above max is overstock",
			eval:          evaluation{current: 600, safetyStock: 20, effectiveReorderPoint: 40, maxQuantity: max},
			wantType:      models.AlertTypeOverstock,
			wantSeverity:  models.SeverityWarning,
			wantThreshold: 500,
			wantMatch:     true,
		},
		{
			name:      "healthy range matches nothing",
			eval:      evaluation{current: 100, safetyStock: 20, effectiveReorderPoint: 40, maxQuantity: max},
			wantMatch: false,
		},
		{
			name:      "no max means no overstock",
			eval:      evaluation{current: 100000, safetyStock: 20, effectiveReorderPoint: 40},
			wantMatch: false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			alertType, severity, threshold, matched := classifyViolation(tc.eval)
			assert.Equal(t, tc.wantMatch, matched)
			if tc.wantMatch {
				assert.Equal(t, tc.wantType, alertType)
				assert.Equal(t, tc.wantSeverity, severity)
				assert.Equal(t, tc.wantThreshold, threshold)
			}
		})
	}
}

func TestEvaluateTenantOutOfStock(t *testing.T) {
	f := newThresholdFixture(staticConfig(), 0)

	created, err := f.service.EvaluateTenant(context.Background(), "tenant-1")

	require.NoError(t, err)
	require.Len(t, created, 1)
	alert := created[0]
	assert.Equal(t, models.AlertTypeOutOfStock, alert.AlertType)
	assert.Equal(t, models.SeverityEmergency, alert.Severity)
	assert.Equal(t, 0, alert.CurrentQuantity)
	assert.Equal(t, models.AlertStatusActive, alert.Status)
	assert.NotEmpty(t, alert.ID)

	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, "threshold.emergency.out_of_stock", f.publisher.published[0].Topic())

	require.Len(t, f.dispatcher.sent, 1)
	assert.ElementsMatch(t,
		[]string{models.ChannelInApp, models.ChannelEmail, models.ChannelSMS},
		f.dispatcher.sent[0].Channels)
}

func TestEvaluateTenantOutOfStockNotDowngradedByVelocity(t *testing.T) {
	f := newThresholdFixture(velocityConfig("2.0"), 0)
	f.velocity.err = nil
	f.velocity.metrics = velocityMetrics(10, 95)

	created, err := f.service.EvaluateTenant(context.Background(), "tenant-1")

	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, models.AlertTypeOutOfStock, created[0].AlertType)
	assert.Equal(t, models.SeverityEmergency, created[0].Severity)
}

func TestEvaluateTenantVelocityRaisesReorderPoint(t *testing.T) {
	// Static reorder point 40, current 50, daily average 10.
	t.Run("multiplier below static point changes nothing", func(t *testing.T) {
		f := newThresholdFixture(velocityConfig("2.0"), 50)
		f.velocity.err = nil
		f.velocity.metrics = velocityMetrics(10, 10)

		created, err := f.service.EvaluateTenant(context.Background(), "tenant-1")

		require.NoError(t, err)
		assert.Empty(t, created)
		assert.Empty(t, f.dispatcher.sent)
	})
	t.Run("multiplier above static point raises low stock", func(t *testing.T) {
		f := newThresholdFixture(velocityConfig("6.0"), 50)
		f.velocity.err = nil
		f.velocity.metrics = velocityMetrics(10, 10)

		created, err := f.service.EvaluateTenant(context.Background(), "tenant-1")

		require.NoError(t, err)
		require.Len(t, created, 1)
		assert.Equal(t, models.AlertTypeLowStock, created[0].AlertType)
		assert.Equal(t, models.SeverityWarning, created[0].Severity)
		assert.Equal(t, 60, created[0].ThresholdQuantity)
		require.NotNil(t, created[0].Velocity)
	})
}

func TestEvaluateTenantVelocityAnomalyOverride(t *testing.T) {
	t.Run("escalates a clean evaluation", func(t *testing.T) {
		f := newThresholdFixture(velocityConfig("1.0"), 100)
		f.velocity.err = nil
		f.velocity.metrics = velocityMetrics(10, 80)

		created, err := f.service.EvaluateTenant(context.Background(), "tenant-1")

		require.NoError(t, err)
		require.Len(t, created, 1)
		assert.Equal(t, models.AlertTypeVelocityAnomaly, created[0].AlertType)
		assert.Equal(t, models.SeverityCritical, created[0].Severity)
	})
	t.Run("escalates a warning", func(t *testing.T) {
		f := newThresholdFixture(velocityConfig("1.0"), 30)
		f.velocity.err = nil
		f.velocity.metrics = velocityMetrics(10, 80)

		created, err := f.service.EvaluateTenant(context.Background(), "tenant-1")

		require.NoError(t, err)
		require.Len(t, created, 1)
		assert.Equal(t, models.AlertTypeVelocityAnomaly, created[0].AlertType)
		assert.Equal(t, models.SeverityCritical, created[0].Severity)
	})
	t.Run("never downgrades a critical", func(t *testing.T) {
		f := newThresholdFixture(velocityConfig("1.0"), 15)
		f.velocity.err = nil
		f.velocity.metrics = velocityMetrics(10, 80)

		created, err := f.service.EvaluateTenant(context.Background(), "tenant-1")

		require.NoError(t, err)
		require.Len(t, created, 1)
		assert.Equal(t, models.AlertTypeCriticalStock, created[0].AlertType)
		assert.Equal(t, models.SeverityCritical, created[0].Severity)
	})
	t.Run("modest risk does not trigger", func(t *testing.T) {
		f := newThresholdFixture(velocityConfig("1.0"), 100)
		f.velocity.err = nil
		f.velocity.metrics = velocityMetrics(10, 60)

		created, err := f.service.EvaluateTenant(context.Background(), "tenant-1")

		require.NoError(t, err)
		assert.Empty(t, created)
	})
}

func TestEvaluateTenantDeduplicationSuppresses(t *testing.T) {
	f := newThresholdFixture(staticConfig(), 0)
	f.alerts.suppress = true

	created, err := f.service.EvaluateTenant(context.Background(), "tenant-1")

	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Empty(t, f.publisher.published, "suppressed alerts publish nothing")
	assert.Empty(t, f.dispatcher.sent, "suppressed alerts notify nobody")
}

func TestEvaluateTenantDegradesWithoutVelocityData(t *testing.T) {
	// The fixture velocity fake already reports insufficient data; the
	// evaluation must fall back to the static reorder point.
	f := newThresholdFixture(velocityConfig("6.0"), 30)

	created, err := f.service.EvaluateTenant(context.Background(), "tenant-1")

	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, models.AlertTypeLowStock, created[0].AlertType)
	assert.Equal(t, 40, created[0].ThresholdQuantity)
	assert.Nil(t, created[0].Velocity)
}

func TestNotificationChannelsBySeverity(t *testing.T) {
	cases := []struct {
		name      string
		available int
		channels  []string
	}{
		{"warning gets in-app only", 30, []string{models.ChannelInApp}},
		{"critical adds email", 15, []string{models.ChannelInApp, models.ChannelEmail}},
		{"emergency adds sms", 0, []string{models.ChannelInApp, models.ChannelEmail, models.ChannelSMS}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newThresholdFixture(staticConfig(), tc.available)

			_, err := f.service.EvaluateTenant(context.Background(), "tenant-1")

			require.NoError(t, err)
			require.Len(t, f.dispatcher.sent, 1)
			assert.Equal(t, tc.channels, f.dispatcher.sent[0].Channels)
		})
	}
}

func TestViolationMessageRecommendsReorder(t *testing.T) {
	cfg := staticConfig()
	eval := evaluation{current: 30, safetyStock: 20, effectiveReorderPoint: 40}

	msg := violationMessage(models.AlertTypeLowStock, &cfg, eval)
	assert.Contains(t, msg, "reorder 10 units")

	// A configured reorder quantity floors the recommendation.
	cfg.ReorderQuantity = intPtr(50)
	msg = violationMessage(models.AlertTypeLowStock, &cfg, eval)
	assert.Contains(t, msg, "reorder 50 units")
}

func TestRunAggregatesAcrossTenants(t *testing.T) {
	f := newThresholdFixture(staticConfig(), 0)
	f.batches.tenants = []string{"tenant-1", "tenant-2"}

	summary, err := f.service.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Tenants)
	assert.Equal(t, 1, summary.AlertsCreated, "tenant-2 has no configs and creates nothing")
	assert.Empty(t, summary.FailedTenants)
}

func TestRunRecordsFailedTenants(t *testing.T) {
	f := newThresholdFixture(staticConfig(), 0)
	f.batches.tenants = []string{"tenant-1"}
	f.configs.err = errFakeRepository

	summary, err := f.service.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"tenant-1"}, summary.FailedTenants)
	assert.Equal(t, 0, summary.AlertsCreated)
}

func TestAlertTransitionsDelegateToRepository(t *testing.T) {
	f := newThresholdFixture(staticConfig(), 100)

	require.NoError(t, f.service.AcknowledgeAlert("alert-1", "user-9"))
	require.NoError(t, f.service.ResolveAlert("alert-1", "user-9"))

	assert.Equal(t, []string{"alert-1/user-9"}, f.alerts.acknowledged)
	assert.Equal(t, []string{"alert-1/user-9"}, f.alerts.resolved)
}
