package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsActiveAt(t *testing.T) {
	now := time.Date(2024, time.July, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		start time.Time
		want  bool
	}{
		{"future start", now.Add(time.Minute), true},
		{"past start", now.Add(-time.Minute), false},
		{"start equals now", now, false},
		{"one nanosecond ahead", now.Add(time.Nanosecond), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsActiveAt(tt.start, now))
		})
	}
}

func TestRecomputeActiveOverridesCallerValue(t *testing.T) {
	now := time.Date(2024, time.July, 10, 12, 0, 0, 0, time.UTC)

	past := Event{StartDatetime: now.Add(-time.Hour), IsActive: true}
	assert.False(t, past.RecomputeActive(now))
	assert.False(t, past.IsActive)

	upcoming := Event{StartDatetime: now.Add(time.Hour), IsActive: false}
	assert.True(t, upcoming.RecomputeActive(now))
	assert.True(t, upcoming.IsActive)
}

func TestEventDistances(t *testing.T) {
	e := Event{Distances: []Distance{{ID: 1, Km: 42}, {ID: 2, Km: 21}}}

	assert.Equal(t, []int{42, 21}, e.DistanceKms())
	assert.True(t, e.OffersDistance(2))
	assert.False(t, e.OffersDistance(3))
}

func TestEventTypeValid(t *testing.T) {
	assert.True(t, EventTypeCycling.Valid())
	assert.False(t, EventType("Rowing").Valid())
	assert.False(t, EventType("running").Valid())
}
