package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCadenceWindow(t *testing.T) {
	assert.Equal(t, 24*time.Hour, CadenceDaily.Window())
	assert.Equal(t, 7*24*time.Hour, CadenceWeekly.Window())
	assert.Equal(t, 30*24*time.Hour, CadenceMonthly.Window())
	assert.False(t, Cadence("hourly").IsValid())
}

func TestSavedSearch_IsDue(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		ts := now.Add(-d)
		return &ts
	}

	tests := []struct {
		name    string
		enabled bool
		cadence Cadence
		fired   *time.Time
		want    bool
	}{
		{"never fired is due immediately", true, CadenceDaily, nil, true},
		{"disabled is never due", false, CadenceDaily, nil, false},
		{"weekly idle six days not due", true, CadenceWeekly, at(6 * 24 * time.Hour), false},
		{"weekly exactly seven days is due", true, CadenceWeekly, at(7 * 24 * time.Hour), true},
		{"daily almost a day not due", true, CadenceDaily, at(23 * time.Hour), false},
		{"daily past window is due", true, CadenceDaily, at(25 * time.Hour), true},
		{"monthly thirty days is due", true, CadenceMonthly, at(30 * 24 * time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := SavedSearch{
				NotificationsEnabled: tt.enabled,
				Cadence:              tt.cadence,
				LastFiredAt:          tt.fired,
			}
			assert.Equal(t, tt.want, s.IsDue(now))
		})
	}
}

func TestNewSavedSearch(t *testing.T) {
	ownerID := uuid.New()
	s := NewSavedSearch(ownerID, "cheap rentals", "", FilterDocument{DataType: "rent"}, true, CadenceWeekly)

	require.NotEqual(t, uuid.Nil, s.ID)
	assert.Equal(t, ownerID, s.OwnerID)
	assert.Nil(t, s.LastFiredAt)
	assert.Nil(t, s.LastSummary)
	assert.Equal(t, s.CreatedAt, s.UpdatedAt)
}

func TestBuildDeltaSummary(t *testing.T) {
	current := AggregateSummary{Count: 10, Min: 900, Max: 2800, Avg: 1800}

	t.Run("no prior baseline", func(t *testing.T) {
		delta := BuildDeltaSummary(current, nil)
		assert.False(t, delta.HasBaseline)
		assert.Equal(t, current, delta.Current)
		assert.Nil(t, delta.Avg.Percent)
	})

	t.Run("with baseline", func(t *testing.T) {
		prior := AggregateSummary{Count: 8, Min: 1000, Max: 2500, Avg: 1500}
		delta := BuildDeltaSummary(current, &prior)
		require.True(t, delta.HasBaseline)
		assert.Equal(t, 2.0, delta.Count.Absolute)
		assert.Equal(t, 300.0, delta.Avg.Absolute)
		require.NotNil(t, delta.Avg.Percent)
		assert.InDelta(t, 20.0, *delta.Avg.Percent, 0.001)
	})

	t.Run("zero prior gives nil percent", func(t *testing.T) {
		prior := AggregateSummary{Count: 0, Min: 0, Max: 0, Avg: 0}
		delta := BuildDeltaSummary(current, &prior)
		require.True(t, delta.HasBaseline)
		assert.Nil(t, delta.Count.Percent)
		assert.Equal(t, 10.0, delta.Count.Absolute)
	})
}

func TestSimilarPriceBand(t *testing.T) {
	low, high := AggregateSummary{Avg: 1000}.SimilarPriceBand()
	assert.Equal(t, 800.0, low)
	assert.Equal(t, 1200.0, high)
}
