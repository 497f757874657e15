package geo

import "math"

// Reference ellipsoid constants used by the regional offset transform.
const (
	semiMajorAxis       = 6378245.0
	eccentricitySquared = 0.00669342162296594323
)

// Covered territory; outside this rectangle raw WGS-84 values are served
// unmodified.
const (
	territoryLonMin = 72.004
	territoryLonMax = 137.8347
	territoryLatMin = 0.8293
	territoryLatMax = 55.8271
)

// Correct applies the WGS-84 to regional-datum offset required by Chinese
// mapping services. It is the identity for points outside the covered
// territory and is deterministic for any input pair.
func Correct(lat, lon float64) (float64, float64) {
	if outOfTerritory(lat, lon) {
		return lat, lon
	}
	dLat := transformLat(lon-105.0, lat-35.0)
	dLon := transformLon(lon-105.0, lat-35.0)
	radLat := lat / 180.0 * math.Pi
	magic := 1 - eccentricitySquared*math.Sin(radLat)*math.Sin(radLat)
	sqrtMagic := math.Sqrt(magic)
	dLat = (dLat * 180.0) / ((semiMajorAxis * (1 - eccentricitySquared)) / (magic * sqrtMagic) * math.Pi)
	dLon = (dLon * 180.0) / (semiMajorAxis / sqrtMagic * math.Cos(radLat) * math.Pi)
	return lat + dLat, lon + dLon
}

func outOfTerritory(lat, lon float64) bool {
	return lon < territoryLonMin || lon > territoryLonMax ||
		lat < territoryLatMin || lat > territoryLatMax
}

func transformLat(x, y float64) float64 {
	ret := -100.0 + 2.0*x + 3.0*y + 0.2*y*y + 0.1*x*y + 0.2*math.Sqrt(math.Abs(x))
	ret += (20.0*math.Sin(6.0*x*math.Pi) + 20.0*math.Sin(2.0*x*math.Pi)) * 2.0 / 3.0
	ret += (20.0*math.Sin(y*math.Pi) + 40.0*math.Sin(y/3.0*math.Pi)) * 2.0 / 3.0
	ret += (160.0*math.Sin(y/12.0*math.Pi) + 320.0*math.Sin(y*math.Pi/30.0)) * 2.0 / 3.0
	return ret
}

func transformLon(x, y float64) float64 {
	ret := 300.0 + x + 2.0*y + 0.1*x*x + 0.1*x*y + 0.1*math.Sqrt(math.Abs(x))
	ret += (20.0*math.Sin(6.0*x*math.Pi) + 20.0*math.Sin(2.0*x*math.Pi)) * 2.0 / 3.0
	ret += (20.0*math.Sin(x*math.Pi) + 40.0*math.Sin(x/3.0*math.Pi)) * 2.0 / 3.0
	ret += (150.0*math.Sin(x/12.0*math.Pi) + 300.0*math.Sin(x/30.0*math.Pi)) * 2.0 / 3.0
	return ret
}
