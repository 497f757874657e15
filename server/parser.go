package server

import "strings"

// positionMarker precedes the latitude/longitude pair in a device report.
// Deployed firmware gives no framing guarantees beyond substring
// containment, so the marker is scanned anywhere in the read buffer.
const positionMarker = "pos:"

// ExtractPosition pulls the angle text pair out of a raw read buffer.
// ok reports whether the buffer contained a position marker at all; the
// returned halves may still fail angle parsing. The longitude half is
// stripped of trailing terminator bytes (the device historically appends
// one arbitrary character).
func ExtractPosition(data []byte) (latText, lonText string, ok bool) {
	raw := string(data)
	idx := strings.Index(raw, positionMarker)
	if idx < 0 {
		return "", "", false
	}
	payload := raw[idx+len(positionMarker):]
	latText, lonText, _ = strings.Cut(payload, ",")
	lonText = strings.TrimRightFunc(lonText, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})
	return latText, lonText, true
}
