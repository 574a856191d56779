package extractor

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

// Plausibility ceilings for electrical attributes.
const (
	maxVoltageVolts = 100_000
	maxPowerWatts   = 1_000_000
)

// voltage/power patterns capture the raw value (including placeholder text
// like "TBD") so the validator decides, not the regex.
var (
	voltageRe = regexp.MustCompile(`(?i)(^|[\s(,/])([a-z0-9?./,-]+?)\s*(kv|volts|volt|v)\b`)
	powerRe   = regexp.MustCompile(`(?i)(^|[\s(,/])([a-z0-9?./,-]+?)\s*(kw|watts|watt|w)\b`)
)

// ElectricalExtractor pulls voltage and power ratings out of product names,
// e.g. "750W 220V Industrial Drill" -> {power_watts: 750, voltage_volts: 220}.
type ElectricalExtractor struct{}

// NewElectricalExtractor constructs the electrical domain extractor.
func NewElectricalExtractor() *ElectricalExtractor {
	return &ElectricalExtractor{}
}

// Name implements Extractor.
func (e *ElectricalExtractor) Name() string { return "electrical" }

// Extract implements Extractor.
func (e *ElectricalExtractor) Extract(text string) map[string]any {
	attrs := make(map[string]any)

	if m := voltageRe.FindStringSubmatch(text); m != nil {
		raw, unit := m[2], strings.ToLower(m[3])
		if v, ok := parseValue(raw); ok {
			if unit == "kv" {
				v *= 1000
			}
			if inRange(v, maxVoltageVolts) {
				attrs["voltage_volts"] = v
			} else {
				log.Debug().Str("extractor", e.Name()).Str("raw", raw).Float64("value", v).Msg("voltage out of range, dropped")
			}
		} else {
			log.Debug().Str("extractor", e.Name()).Str("raw", raw).Msg("invalid voltage value, dropped")
		}
	}

	if m := powerRe.FindStringSubmatch(text); m != nil {
		raw, unit := m[2], strings.ToLower(m[3])
		if v, ok := parseValue(raw); ok {
			if unit == "kw" {
				v *= 1000
			}
			if inRange(v, maxPowerWatts) {
				attrs["power_watts"] = v
			} else {
				log.Debug().Str("extractor", e.Name()).Str("raw", raw).Float64("value", v).Msg("power out of range, dropped")
			}
		} else {
			log.Debug().Str("extractor", e.Name()).Str("raw", raw).Msg("invalid power value, dropped")
		}
	}

	return attrs
}
