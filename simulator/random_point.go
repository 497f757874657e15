package simulator

import (
	"math/rand"
	"time"

	"golang.org/x/exp/constraints"
)

var randomizer = rand.New(rand.NewSource(time.Now().UnixNano()))

// RandomPoint returns a decimal-degree pair inside the covered territory
// so simulated fixes exercise the datum correction path.
func RandomPoint() (lat, lon float64) {
	lat = randomInRange(18.0, 53.0)
	lon = randomInRange(74.0, 134.0)
	return lat, lon
}

func randomInRange[T constraints.Float](min, max T) T {
	return min + T(randomizer.Float64())*(max-min)
}
