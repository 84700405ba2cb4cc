package engine

import (
	"errors"
	"fmt"
	"time"

	"threat-intel-service/internal/model"
)

// ErrMalformedEvent marks an event that fails schema or timestamp validation.
// Malformed events are rejected at the boundary and never enter the store.
var ErrMalformedEvent = errors.New("malformed attack event")

const featureDims = 8

// Fixed enumeration tables. Extending them is a configuration change, never a
// runtime one; unknown values map to the 0 sentinel.
var countryCodes = map[string]float64{
	"United States":  1,
	"China":          2,
	"Russia":         3,
	"Germany":        4,
	"United Kingdom": 5,
	"France":         6,
	"Japan":          7,
	"Brazil":         8,
	"India":          9,
	"South Korea":    10,
	"Canada":         11,
	"Australia":      12,
	"Netherlands":    13,
	"Poland":         14,
	"Sweden":         15,
}

var attackTypeCodes = map[string]float64{
	"DDoS":          1,
	"Botnet":        2,
	"Ransomware":    3,
	"Malware":       4,
	"Phishing":      5,
	"SQL Injection": 6,
	"XSS":           7,
	"Brute Force":   8,
}

func countryCode(country string) float64 {
	return countryCodes[country]
}

func attackTypeCode(attackType string) float64 {
	return attackTypeCodes[attackType]
}

// parseTimestamp parses the event's RFC3339 UTC instant.
func parseTimestamp(ev model.AttackEvent) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339, ev.Timestamp)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid timestamp %q", ErrMalformedEvent, ev.Timestamp)
	}
	return ts.UTC(), nil
}

// extractFeatures maps one event to its 8-dimension feature vector:
// hour-of-day, day-of-week (Monday=0), source country code, attack type code,
// intensity, target country code, latitude/90, longitude/180.
func extractFeatures(ev model.AttackEvent) ([featureDims]float64, error) {
	var vec [featureDims]float64

	ts, err := parseTimestamp(ev)
	if err != nil {
		return vec, err
	}

	vec[0] = float64(ts.Hour())
	vec[1] = float64((int(ts.Weekday()) + 6) % 7)
	vec[2] = countryCode(ev.SourceCountry)
	vec[3] = attackTypeCode(ev.AttackType)
	vec[4] = float64(ev.Intensity)
	vec[5] = countryCode(ev.TargetCountry)
	vec[6] = ev.SourceLat / 90
	vec[7] = ev.SourceLng / 180
	return vec, nil
}

// ValidateEvent enforces the event schema invariants before an event may be
// stored: a non-empty id, a parseable timestamp, intensity in [1,10] and
// distinct source/target countries.
func ValidateEvent(ev model.AttackEvent) error {
	if ev.ID == "" {
		return fmt.Errorf("%w: missing id", ErrMalformedEvent)
	}
	if _, err := parseTimestamp(ev); err != nil {
		return err
	}
	if ev.Intensity < 1 || ev.Intensity > 10 {
		return fmt.Errorf("%w: intensity %d out of range [1,10]", ErrMalformedEvent, ev.Intensity)
	}
	if ev.SourceCountry == ev.TargetCountry {
		return fmt.Errorf("%w: source and target country are both %q", ErrMalformedEvent, ev.SourceCountry)
	}
	return nil
}
