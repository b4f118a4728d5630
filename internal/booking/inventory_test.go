// Copyright 2026 fanjia1024
// Flight inventory tests

package booking

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchDelhiToMumbaiWithinBudget(t *testing.T) {
	inv := NewInventory(rand.New(rand.NewSource(42)))

	out, offers := inv.Search("delhi", "mumbai", 5000, "25-11-2025")

	require.True(t, out.IsSuccess(), "observation: %s", out.Observation())
	require.NotEmpty(t, offers)
	assert.LessOrEqual(t, len(offers), 3)

	for i, o := range offers {
		assert.LessOrEqual(t, float64(o.Price), 5000.0, "offer %d priced above budget", i)
		assert.Equal(t, "Delhi (DEL)", o.Departure)
		assert.Equal(t, "Mumbai (BOM)", o.Destination)
		assert.Equal(t, "25-11-2025", o.Date)
		if i > 0 {
			assert.GreaterOrEqual(t, o.Price, offers[i-1].Price, "offers must be sorted ascending by price")
		}
	}

	obs := out.Observation()
	assert.Contains(t, obs, "'flights_found':")
	assert.Contains(t, obs, "Delhi (DEL)")
}

func TestSearchNeverReturnsOfferAbovePrice(t *testing.T) {
	inv := NewInventory(rand.New(rand.NewSource(7)))

	for i := 0; i < 100; i++ {
		out, offers := inv.Search("delhi", "mumbai", 4000, "25-11-2025")
		if !out.IsSuccess() {
			assert.Contains(t, out.Observation(), "No flights found")
			continue
		}
		for _, o := range offers {
			assert.LessOrEqual(t, o.Price, 4000)
		}
	}
}

func TestSearchNoOffersWithinBudget(t *testing.T) {
	inv := NewInventory(rand.New(rand.NewSource(1)))

	// 最低基础价 3600，扰动下限 -500，500 以下必然无结果
	out, offers := inv.Search("delhi", "mumbai", 500, "25-11-2025")

	assert.Equal(t, KindFailed, out.Kind)
	assert.Empty(t, offers)
	assert.Contains(t, out.Observation(), "No flights found from Delhi (DEL) to Mumbai (BOM)")
}

func TestSearchInvalidDate(t *testing.T) {
	inv := NewInventory(rand.New(rand.NewSource(1)))

	tests := []struct {
		name string
		date string
	}{
		{name: "wrong separator order", date: "2025-11-25"},
		{name: "day out of range", date: "31-02-2025"},
		{name: "garbage", date: "not-a-date"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, offers := inv.Search("delhi", "mumbai", 5000, tc.date)
			assert.Equal(t, KindInvalid, out.Kind)
			assert.Nil(t, offers)
			assert.True(t, strings.Contains(out.Observation(), "DD-MM-YYYY"))
		})
	}
}

func TestSearchUnknownCityPassesThrough(t *testing.T) {
	inv := NewInventory(rand.New(rand.NewSource(3)))

	out, offers := inv.Search("Pune", "Goa", 6000, "25-11-2025")
	require.True(t, out.IsSuccess())
	require.NotEmpty(t, offers)
	assert.Equal(t, "Pune", offers[0].Departure)
	assert.Equal(t, "Goa", offers[0].Destination)
}
