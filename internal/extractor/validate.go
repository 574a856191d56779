package extractor

import (
	"strconv"
	"strings"
)

// placeholders are tokens suppliers put where a number should be. They parse
// as "present but unknown" and are always rejected.
var placeholders = map[string]struct{}{
	"tbd": {},
	"tba": {},
	"n/a": {},
	"na":  {},
	"?":   {},
	"-":   {},
	"x":   {},
	"xx":  {},
	"xxx": {},
}

// parseValue parses a captured raw value into a positive number. It returns
// false for placeholders, non-numeric text and non-positive numbers; the
// caller logs and drops the field.
func parseValue(raw string) (float64, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return 0, false
	}
	if _, ok := placeholders[raw]; ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	if v <= 0 {
		return 0, false
	}
	return v, true
}

// inRange rejects magnitudes outside the plausible window for a field.
func inRange(v, max float64) bool {
	return v > 0 && v <= max
}
