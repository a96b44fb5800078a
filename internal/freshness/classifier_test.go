package freshness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(t time.Time) *time.Time { return &t }

func TestClassify(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	c := NewClassifier(3)

	tests := []struct {
		name   string
		expiry *time.Time
		status Status
		days   *int
	}{
		{"non-perishable", nil, Safe, nil},
		{"one day ago", at(now.Add(-24 * time.Hour)), Expired, intPtr(-1)},
		{"an hour ago", at(now.Add(-time.Hour)), Expired, intPtr(-1)},
		{"expires right now", at(now), Expiring, intPtr(0)},
		{"in two days", at(now.Add(48 * time.Hour)), Expiring, intPtr(2)},
		{"window edge", at(now.Add(3 * 24 * time.Hour)), Expiring, intPtr(3)},
		{"just past window", at(now.Add(4 * 24 * time.Hour)), Safe, intPtr(4)},
		{"in ten days", at(now.Add(10 * 24 * time.Hour)), Safe, intPtr(10)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := c.Classify(tc.expiry, now)
			assert.Equal(t, tc.status, got.Status)
			if tc.days == nil {
				assert.Nil(t, got.DaysRemaining)
				return
			}
			require.NotNil(t, got.DaysRemaining)
			assert.Equal(t, *tc.days, *got.DaysRemaining)
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	expiry := now.Add(36 * time.Hour)
	c := NewClassifier(DefaultWindowDays)

	assert.Equal(t, c.Classify(&expiry, now), c.Classify(&expiry, now))
}

func TestNewClassifierRejectsNegativeWindow(t *testing.T) {
	assert.Equal(t, DefaultWindowDays, NewClassifier(-1).WindowDays)
	assert.Equal(t, 0, NewClassifier(0).WindowDays)
}

func TestStartOfDay(t *testing.T) {
	late := time.Date(2026, 3, 9, 23, 59, 0, 0, time.FixedZone("WIB", 7*3600))
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), StartOfDay(late))

	// Expiring today is still sellable at any time of day
	expiry := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	got := NewClassifier(DefaultWindowDays).Classify(&expiry, StartOfDay(expiry.Add(20*time.Hour)))
	assert.Equal(t, Expiring, got.Status)
	assert.Equal(t, 0, *got.DaysRemaining)
}

func intPtr(i int) *int { return &i }
