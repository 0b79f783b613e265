package services

import (
	"context"
	"errors"
	"time"

	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/internal/events"
	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/internal/models"
	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/internal/notifications"
)

var errFakeRepository = errors.New("fake repository failure")

// In-memory fakes shared by the service tests. They implement exactly the
// repository and outbound interfaces the services depend on; error fields
// let individual tests inject failures.

type fakeBatchRepository struct {
	eligible     []models.Batch
	expiring     []models.Batch
	expired      []models.Batch
	available    map[string]int
	tenants      []string
	eligibleErr  error
	expiringErr  error
	availableErr error
	tenantsErr   error

	// tenant whose GetBatchesExpiringBy call fails, for isolation tests
	failTenant string

	nearExpiryCalls [][]string
	expiredCalls    []string
	// batch IDs whose MarkBatchExpired reports no row updated
	alreadyExpired map[string]bool
}

func stockKey(tenantID, skuID, warehouseID string) string {
	return tenantID + "|" + skuID + "|" + warehouseID
}

func (f *fakeBatchRepository) GetEligibleBatches(tenantID, skuID, warehouseID string) ([]models.Batch, error) {
	if f.eligibleErr != nil {
		return nil, f.eligibleErr
	}
	out := make([]models.Batch, len(f.eligible))
	copy(out, f.eligible)
	return out, nil
}

func (f *fakeBatchRepository) GetBatchesExpiringBy(tenantID string, cutoff time.Time) ([]models.Batch, error) {
	if f.expiringErr != nil {
		return nil, f.expiringErr
	}
	if f.failTenant != "" && tenantID == f.failTenant {
		return nil, errFakeRepository
	}
	return f.expiring, nil
}

func (f *fakeBatchRepository) GetExpiredBatches(tenantID string, asOf time.Time) ([]models.Batch, error) {
	return f.expired, nil
}

func (f *fakeBatchRepository) MarkBatchesNearExpiry(batchIDs []string) (int64, error) {
	f.nearExpiryCalls = append(f.nearExpiryCalls, batchIDs)
	return int64(len(batchIDs)), nil
}

func (f *fakeBatchRepository) MarkBatchExpired(batchID string) (bool, error) {
	f.expiredCalls = append(f.expiredCalls, batchID)
	if f.alreadyExpired[batchID] {
		return false, nil
	}
	return true, nil
}

func (f *fakeBatchRepository) GetAvailableQuantity(tenantID, skuID, warehouseID string) (int, error) {
	if f.availableErr != nil {
		return 0, f.availableErr
	}
	return f.available[stockKey(tenantID, skuID, warehouseID)], nil
}

func (f *fakeBatchRepository) ListActiveTenants() ([]string, error) {
	if f.tenantsErr != nil {
		return nil, f.tenantsErr
	}
	return f.tenants, nil
}

type fakeMovementRepository struct {
	days  []models.DailyOutbound
	err   error
	calls int
}

func (f *fakeMovementRepository) GetDailyOutbound(tenantID, skuID, warehouseID string, since time.Time) ([]models.DailyOutbound, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.days, nil
}

type fakeAlertRepository struct {
	created      []models.ThresholdAlert
	suppress     bool
	createErr    error
	acknowledged []string
	resolved     []string
	listResult   []models.ThresholdAlert
	listTotal    int
}

func (f *fakeAlertRepository) CreateAlertIfNotDuplicate(alert *models.ThresholdAlert, dedupWindow time.Duration) (bool, error) {
	if f.createErr != nil {
		return false, f.createErr
	}
	if f.suppress {
		return false, nil
	}
	f.created = append(f.created, *alert)
	return true, nil
}

func (f *fakeAlertRepository) AcknowledgeAlert(alertID, actor string) error {
	f.acknowledged = append(f.acknowledged, alertID+"/"+actor)
	return nil
}

func (f *fakeAlertRepository) ResolveAlert(alertID, actor string) error {
	f.resolved = append(f.resolved, alertID+"/"+actor)
	return nil
}

func (f *fakeAlertRepository) GetAlerts(tenantID string, status *string, page, pageSize int) ([]models.ThresholdAlert, int, error) {
	return f.listResult, f.listTotal, nil
}

type fakeConfigRepository struct {
	configs map[string][]models.ThresholdConfig
	err     error
}

func (f *fakeConfigRepository) GetConfigsForTenant(tenantID string) ([]models.ThresholdConfig, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.configs[tenantID], nil
}

type fakePublisher struct {
	published []events.Event
}

func (f *fakePublisher) Publish(event events.Event) {
	f.published = append(f.published, event)
}

func (f *fakePublisher) byTopic(topic string) []events.Event {
	var out []events.Event
	for _, event := range f.published {
		if event.Topic() == topic {
			out = append(out, event)
		}
	}
	return out
}

type fakeDispatcher struct {
	sent []notifications.Notification
	err  error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, notification notifications.Notification) error {
	f.sent = append(f.sent, notification)
	return f.err
}

type fakeVelocityService struct {
	metrics *models.VelocityMetrics
	err     error
}

func (f *fakeVelocityService) EstimateVelocity(_ context.Context, tenantID, skuID, warehouseID string, _ int) (*models.VelocityMetrics, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.metrics, nil
}

func intPtr(v int) *int              { return &v }
func boolPtr(v bool) *bool           { return &v }
func timePtr(v time.Time) *time.Time { return &v }
