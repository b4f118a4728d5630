// Copyright 2026 fanjia1024
// Calendar recorder tests

package booking

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordSuccess(t *testing.T) {
	c := NewCalendar(0, rand.New(rand.NewSource(5)))

	out := c.Record("Flight to Mumbai", "25-11-2025", "09:30", "6E305 Delhi (DEL) -> Mumbai (BOM)")

	require.True(t, out.IsSuccess(), "observation: %s", out.Observation())
	assert.Regexp(t, `^CAL\d{6}$`, out.GetString("event_id"))

	obs := out.Observation()
	assert.Contains(t, obs, "'event_id': 'CAL")
	assert.Contains(t, obs, "'calendar': 'Primary Calendar'")
	assert.Contains(t, obs, "added to calendar successfully")
}

func TestRecordInvalidDateTime(t *testing.T) {
	c := NewCalendar(0, rand.New(rand.NewSource(5)))

	tests := []struct {
		name  string
		date  string
		clock string
	}{
		{name: "day out of range", date: "31-02-2025", clock: "09:30"},
		{name: "bad time", date: "25-11-2025", clock: "9 am"},
		{name: "wrong date order", date: "2025-11-25", clock: "09:30"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := c.Record("Flight to Mumbai", tc.date, tc.clock, "")
			assert.Equal(t, KindInvalid, out.Kind)
			assert.Contains(t, out.Observation(), "Invalid date/time format")
		})
	}
}

func TestRecordMissingFields(t *testing.T) {
	c := NewCalendar(0, rand.New(rand.NewSource(5)))

	out := c.Record("", "25-11-2025", "09:30", "")
	assert.Equal(t, KindInvalid, out.Kind)
	assert.Contains(t, out.Observation(), "required")
}

func TestRecordSimulatedFailure(t *testing.T) {
	c := NewCalendar(1.0, rand.New(rand.NewSource(5)))

	out := c.Record("Flight to Mumbai", "25-11-2025", "09:30", "")
	assert.Equal(t, KindFailed, out.Kind)
	assert.Contains(t, out.Observation(), "Failed to add event to calendar")
}
