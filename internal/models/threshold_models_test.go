package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveSafetyStockFallsBackToMinQuantity(t *testing.T) {
	cfg := ThresholdConfig{MinQuantity: 10}
	assert.Equal(t, 10, cfg.EffectiveSafetyStock())

	safety := 25
	cfg.SafetyStock = &safety
	assert.Equal(t, 25, cfg.EffectiveSafetyStock())
}

func TestEffectiveStaticReorderPointFallbackChain(t *testing.T) {
	cfg := ThresholdConfig{MinQuantity: 10}
	assert.Equal(t, 10, cfg.EffectiveStaticReorderPoint(), "falls through to min_quantity")

	safety := 25
	cfg.SafetyStock = &safety
	assert.Equal(t, 25, cfg.EffectiveStaticReorderPoint(), "falls back to safety stock")

	reorder := 40
	cfg.ReorderPoint = &reorder
	assert.Equal(t, 40, cfg.EffectiveStaticReorderPoint())
}

func TestDaysUntilExpiry(t *testing.T) {
	now := time.Date(2025, 12, 20, 12, 0, 0, 0, time.UTC)

	batch := Batch{}
	_, ok := batch.DaysUntilExpiry(now)
	assert.False(t, ok, "no expiry date yields no day count")

	future := now.Add(10 * 24 * time.Hour)
	batch.ExpiryDate = &future
	days, ok := batch.DaysUntilExpiry(now)
	assert.True(t, ok)
	assert.Equal(t, 10, days)

	past := now.Add(-3 * 24 * time.Hour)
	batch.ExpiryDate = &past
	days, ok = batch.DaysUntilExpiry(now)
	assert.True(t, ok)
	assert.Equal(t, -3, days)
}
