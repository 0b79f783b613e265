package services

import (
	"context"
	"testing"
	"time"

	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/internal/events"
	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var expiryNow = time.Date(2025, 12, 20, 12, 0, 0, 0, time.UTC)

func newTestExpiryService(repo *fakeBatchRepository, pub *fakePublisher) ExpiryService {
	svc := NewExpiryService(repo, pub, DefaultExpiryConfig()).(*expiryService)
	svc.now = func() time.Time { return expiryNow }
	return svc
}

func expiringBatch(id string, status string, daysUntilExpiry int) models.Batch {
	expiry := expiryNow.Add(time.Duration(daysUntilExpiry) * 24 * time.Hour)
	return models.Batch{
		ID:                id,
		TenantID:          "tenant-1",
		SKUID:             "sku-1",
		WarehouseID:       "wh-1",
		BatchNumber:       "BN-" + id,
		QuantityAvailable: 10,
		ExpiryDate:        &expiry,
		Status:            status,
	}
}

func TestCheckTenantClassifiesLevels(t *testing.T) {
	repo := &fakeBatchRepository{expiring: []models.Batch{
		expiringBatch("b-soon", models.BatchStatusActive, 3),
		expiringBatch("b-mid", models.BatchStatusActive, 20),
		expiringBatch("b-far", models.BatchStatusActive, 60),
	}}
	pub := &fakePublisher{}
	svc := newTestExpiryService(repo, pub)

	summary, err := svc.CheckTenant(context.Background(), "tenant-1")

	require.NoError(t, err)
	assert.Equal(t, 1, summary.CountsByLevel[ExpiryLevelEmergency])
	assert.Equal(t, 1, summary.CountsByLevel[ExpiryLevelCritical])
	assert.Equal(t, 1, summary.CountsByLevel[ExpiryLevelWarning])

	// Emergency and critical batches move to near_expiry; warning ones stay.
	require.Len(t, repo.nearExpiryCalls, 1)
	assert.ElementsMatch(t, []string{"b-soon", "b-mid"}, repo.nearExpiryCalls[0])
	assert.Equal(t, int64(2), summary.MarkedNearExpiry)

	// One aggregate event per non-empty level.
	require.Len(t, pub.published, 3)
	emergency, ok := pub.published[0].(events.ExpiryLevel)
	require.True(t, ok)
	assert.Equal(t, ExpiryLevelEmergency, emergency.Level)
	assert.Equal(t, "batch.expiry.emergency", emergency.Topic())
	require.Len(t, emergency.Batches, 1)
	assert.Equal(t, "b-soon", emergency.Batches[0].BatchID)
	assert.Equal(t, 3, emergency.Batches[0].DaysUntilExpiry)
}

func TestCheckTenantLeavesNonActiveBatchesInPlace(t *testing.T) {
	// A batch already in near_expiry still shows up in the level event but
	// must not be re-transitioned.
	repo := &fakeBatchRepository{expiring: []models.Batch{
		expiringBatch("b-already", models.BatchStatusNearExpiry, 3),
		expiringBatch("b-hold", models.BatchStatusOnHold, 5),
	}}
	pub := &fakePublisher{}
	svc := newTestExpiryService(repo, pub)

	summary, err := svc.CheckTenant(context.Background(), "tenant-1")

	require.NoError(t, err)
	assert.Equal(t, 2, summary.CountsByLevel[ExpiryLevelEmergency])
	require.Len(t, repo.nearExpiryCalls, 1)
	assert.Empty(t, repo.nearExpiryCalls[0])
	assert.Equal(t, int64(0), summary.MarkedNearExpiry)
}

func TestCheckTenantSweepsExpiredBatches(t *testing.T) {
	past := expiringBatch("b-dead", models.BatchStatusNearExpiry, -2)
	repo := &fakeBatchRepository{expired: []models.Batch{past}}
	pub := &fakePublisher{}
	svc := newTestExpiryService(repo, pub)

	summary, err := svc.CheckTenant(context.Background(), "tenant-1")

	require.NoError(t, err)
	assert.Equal(t, 1, summary.ExpiredBatches)
	expired := pub.byTopic(events.TopicBatchStatus("expired"))
	require.Len(t, expired, 1)
	event, ok := expired[0].(events.BatchExpired)
	require.True(t, ok)
	assert.Equal(t, "b-dead", event.BatchID)
	assert.Equal(t, "BN-b-dead", event.BatchNumber)
}

func TestCheckTenantSweepIsIdempotent(t *testing.T) {
	// A batch that lost the guarded update race produces neither a count nor
	// an event; re-running a sweep over already-expired stock is a no-op.
	past := expiringBatch("b-dead", models.BatchStatusExpired, -2)
	repo := &fakeBatchRepository{
		expired:        []models.Batch{past},
		alreadyExpired: map[string]bool{"b-dead": true},
	}
	pub := &fakePublisher{}
	svc := newTestExpiryService(repo, pub)

	summary, err := svc.CheckTenant(context.Background(), "tenant-1")

	require.NoError(t, err)
	assert.Equal(t, 0, summary.ExpiredBatches)
	assert.Empty(t, pub.byTopic(events.TopicBatchStatus("expired")))
}

func TestCheckTenantIgnoresBatchesWithoutExpiry(t *testing.T) {
	noExpiry := expiringBatch("b-none", models.BatchStatusActive, 3)
	noExpiry.ExpiryDate = nil
	repo := &fakeBatchRepository{expiring: []models.Batch{noExpiry}}
	pub := &fakePublisher{}
	svc := newTestExpiryService(repo, pub)

	summary, err := svc.CheckTenant(context.Background(), "tenant-1")

	require.NoError(t, err)
	assert.Empty(t, summary.CountsByLevel)
	assert.Empty(t, pub.published)
}

func TestRunIsolatesTenantFailures(t *testing.T) {
	repo := &fakeBatchRepository{
		tenants:    []string{"t-bad", "t-good"},
		failTenant: "t-bad",
	}
	svc := newTestExpiryService(repo, &fakePublisher{})

	summary, err := svc.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Tenants)
	assert.Equal(t, []string{"t-bad"}, summary.FailedTenants)
	// The healthy tenant was still processed through to the transition step.
	assert.Len(t, repo.nearExpiryCalls, 1)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	repo := &fakeBatchRepository{tenants: []string{"t-1", "t-2"}}
	svc := newTestExpiryService(repo, &fakePublisher{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
