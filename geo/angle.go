package geo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrMalformedAngle = errors.New("malformed angle")

// Format selects the lexical shape the device firmware uses for angles.
// It is fixed by configuration, never auto-detected.
type Format int

const (
	// DegreeMinute is DDMM.MMMM: two minute digits before the decimal
	// point, fraction read as decimal minutes.
	DegreeMinute Format = iota
	// DegreeMinuteSecond is DDMM.SSss: two minute digits before the
	// decimal point, fraction read as SS.ss seconds.
	DegreeMinuteSecond
)

// ParseFormat maps a config token to a Format.
func ParseFormat(name string) (Format, error) {
	switch name {
	case "dm":
		return DegreeMinute, nil
	case "dms":
		return DegreeMinuteSecond, nil
	}
	return 0, fmt.Errorf("unknown angle format %q", name)
}

// Axis bounds the decoded value: ±90 for latitude, ±180 for longitude.
type Axis int

const (
	Latitude Axis = iota
	Longitude
)

func (a Axis) limit() float64 {
	if a == Latitude {
		return 90
	}
	return 180
}

// ParseAngle converts device angle text to decimal degrees. Hemisphere
// sign is not handled here; the protocol carries unsigned angles.
func ParseAngle(text string, format Format, axis Axis) (float64, error) {
	intPart, fracPart, err := splitAngle(text)
	if err != nil {
		return 0, err
	}

	var degrees float64
	if degText := intPart[:len(intPart)-2]; degText != "" {
		degrees, err = strconv.ParseFloat(degText, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: bad degrees in %q", ErrMalformedAngle, text)
		}
	}

	var decimal float64
	switch format {
	case DegreeMinute:
		minutes, err := strconv.ParseFloat(intPart[len(intPart)-2:]+"."+fracPart, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: bad minutes in %q", ErrMalformedAngle, text)
		}
		decimal = degrees + minutes/60
	case DegreeMinuteSecond:
		minutes, err := strconv.ParseFloat(intPart[len(intPart)-2:], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: bad minutes in %q", ErrMalformedAngle, text)
		}
		seconds, err := parseSeconds(fracPart)
		if err != nil {
			return 0, fmt.Errorf("%w: bad seconds in %q", ErrMalformedAngle, text)
		}
		decimal = degrees + minutes/60 + seconds/3600
	default:
		return 0, fmt.Errorf("%w: unknown format %d", ErrMalformedAngle, format)
	}

	if decimal < -axis.limit() || decimal > axis.limit() {
		return 0, fmt.Errorf("%w: %v out of range for axis", ErrMalformedAngle, decimal)
	}
	return decimal, nil
}

// splitAngle validates the lexical shape: digits with at most one decimal
// point and at least two integer digits for the minute field.
func splitAngle(text string) (intPart, fracPart string, err error) {
	if text == "" {
		return "", "", fmt.Errorf("%w: empty input", ErrMalformedAngle)
	}
	for _, r := range text {
		if (r < '0' || r > '9') && r != '.' {
			return "", "", fmt.Errorf("%w: non-numeric input %q", ErrMalformedAngle, text)
		}
	}
	intPart, fracPart, _ = strings.Cut(text, ".")
	if strings.ContainsRune(fracPart, '.') {
		return "", "", fmt.Errorf("%w: multiple separators in %q", ErrMalformedAngle, text)
	}
	if len(intPart) < 2 {
		return "", "", fmt.Errorf("%w: missing minute digits in %q", ErrMalformedAngle, text)
	}
	return intPart, fracPart, nil
}

// parseSeconds reads a fraction field as SS.ss seconds: the first two
// digits are whole seconds, the rest hundredths.
func parseSeconds(frac string) (float64, error) {
	if frac == "" {
		return 0, nil
	}
	if len(frac) <= 2 {
		return strconv.ParseFloat(frac, 64)
	}
	return strconv.ParseFloat(frac[:2]+"."+frac[2:], 64)
}
