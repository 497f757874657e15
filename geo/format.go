package geo

import (
	"fmt"
	"math"
)

// FormatAngle renders decimal degrees as device angle text, the inverse of
// ParseAngle. Used by the simulator to produce realistic payloads.
func FormatAngle(decimal float64, format Format) string {
	degrees := math.Floor(decimal)
	switch format {
	case DegreeMinuteSecond:
		minutes := math.Floor((decimal - degrees) * 60)
		seconds := ((decimal-degrees)*60 - minutes) * 60
		return fmt.Sprintf("%02.0f%02.0f.%04.0f", degrees, minutes, seconds*100)
	default:
		minutes := (decimal - degrees) * 60
		return fmt.Sprintf("%02.0f%07.4f", degrees, minutes)
	}
}
