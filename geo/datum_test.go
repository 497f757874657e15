package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorrectIdentityOutsideTerritory(t *testing.T) {
	tests := map[string]struct {
		lat, lon float64
	}{
		"new york":        {lat: 40.0, lon: -74.0},
		"below rectangle": {lat: 0.5, lon: 100.0},
		"west of rectangle": {
			lat: 35.0,
			lon: 71.0,
		},
		"north of rectangle": {
			lat: 56.0,
			lon: 120.0,
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			lat, lon := Correct(test.lat, test.lon)
			assert.Equal(t, test.lat, lat)
			assert.Equal(t, test.lon, lon)
		})
	}
}

func TestCorrectAppliesOffsetInsideTerritory(t *testing.T) {
	lat, lon := Correct(31.2304, 121.4737)
	dLat := math.Abs(lat - 31.2304)
	dLon := math.Abs(lon - 121.4737)
	assert.Greater(t, dLat, 0.0)
	assert.Greater(t, dLon, 0.0)
	// The regional offset never exceeds a few hundred meters.
	assert.Less(t, dLat, 0.01)
	assert.Less(t, dLon, 0.01)
}

func TestCorrectDeterministic(t *testing.T) {
	lat1, lon1 := Correct(39.9042, 116.4074)
	lat2, lon2 := Correct(39.9042, 116.4074)
	assert.Equal(t, lat1, lat2)
	assert.Equal(t, lon1, lon2)
}
