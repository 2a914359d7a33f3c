package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSplitCourierFee(t *testing.T) {
	cases := []struct {
		fee, halfA, halfB int64
	}{
		{500, 250, 250},
		{501, 250, 251},
		{1, 0, 1},
		{0, 0, 0},
	}
	for _, tc := range cases {
		halfA, halfB := SplitCourierFee(tc.fee)
		assert.Equal(t, tc.halfA, halfA)
		assert.Equal(t, tc.halfB, halfB)
		assert.Equal(t, tc.fee, halfA+halfB)
	}
}

func TestInventoryExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	fresh := InventoryItem{ExpiresAt: &future}
	stale := InventoryItem{ExpiresAt: &past}
	undated := InventoryItem{}

	assert.False(t, fresh.Expired(now))
	assert.True(t, stale.Expired(now))
	assert.False(t, undated.Expired(now))
}

func TestDeliveryStatusCanComplete(t *testing.T) {
	assert.True(t, DeliveryStatusPickedUp.CanComplete())
	assert.True(t, DeliveryStatusInTransit.CanComplete())
	assert.False(t, DeliveryStatusPending.CanComplete())
	assert.False(t, DeliveryStatusAssigned.CanComplete())
	assert.False(t, DeliveryStatusDelivered.CanComplete())
}

func TestWalletTotal(t *testing.T) {
	w := Wallet{Available: 100, Held: 50, Deducted: 25}
	assert.Equal(t, int64(175), w.Total())
}
