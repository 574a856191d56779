package extractor

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

// Plausibility ceilings for physical attributes.
const (
	maxWeightKg = 100_000
	maxLengthMM = 1_000_000
)

var (
	weightRe = regexp.MustCompile(`(?i)(^|[\s(,/])([a-z0-9?./,-]+?)\s*(kg|grams|gram|g)\b`)
	lengthRe = regexp.MustCompile(`(?i)(^|[\s(,/])([0-9]+(?:[.,][0-9]+)?)\s*(mm|cm|m)\b`)
	// WxHxD style triples, e.g. "30x20x10cm".
	dimsRe = regexp.MustCompile(`(?i)\b([0-9]+(?:[.,][0-9]+)?)\s*[x×]\s*([0-9]+(?:[.,][0-9]+)?)\s*[x×]\s*([0-9]+(?:[.,][0-9]+)?)\s*(mm|cm|m)\b`)
)

// PhysicalExtractor pulls weight and linear dimensions out of product names,
// e.g. "USB-C Cable 2m" -> {length_mm: 2000}.
type PhysicalExtractor struct{}

// NewPhysicalExtractor constructs the physical domain extractor.
func NewPhysicalExtractor() *PhysicalExtractor {
	return &PhysicalExtractor{}
}

// Name implements Extractor.
func (e *PhysicalExtractor) Name() string { return "physical" }

// Extract implements Extractor.
func (e *PhysicalExtractor) Extract(text string) map[string]any {
	attrs := make(map[string]any)

	if m := weightRe.FindStringSubmatch(text); m != nil {
		raw, unit := m[2], strings.ToLower(m[3])
		if v, ok := parseValue(raw); ok {
			if unit == "g" || unit == "gram" || unit == "grams" {
				v /= 1000
			}
			if inRange(v, maxWeightKg) {
				attrs["weight_kg"] = v
			} else {
				log.Debug().Str("extractor", e.Name()).Str("raw", raw).Float64("value", v).Msg("weight out of range, dropped")
			}
		} else {
			log.Debug().Str("extractor", e.Name()).Str("raw", raw).Msg("invalid weight value, dropped")
		}
	}

	// A full WxHxD triple wins over a single length.
	if m := dimsRe.FindStringSubmatch(text); m != nil {
		unit := strings.ToLower(m[4])
		w, okW := parseValue(m[1])
		h, okH := parseValue(m[2])
		d, okD := parseValue(m[3])
		if okW && okH && okD {
			w, h, d = toMM(w, unit), toMM(h, unit), toMM(d, unit)
			if inRange(w, maxLengthMM) && inRange(h, maxLengthMM) && inRange(d, maxLengthMM) {
				attrs["width_mm"] = w
				attrs["height_mm"] = h
				attrs["depth_mm"] = d
			}
		}
	} else if m := lengthRe.FindStringSubmatch(text); m != nil {
		raw, unit := m[2], strings.ToLower(m[3])
		if v, ok := parseValue(raw); ok {
			v = toMM(v, unit)
			if inRange(v, maxLengthMM) {
				attrs["length_mm"] = v
			} else {
				log.Debug().Str("extractor", e.Name()).Str("raw", raw).Float64("value", v).Msg("length out of range, dropped")
			}
		}
	}

	return attrs
}

func toMM(v float64, unit string) float64 {
	switch unit {
	case "m":
		return v * 1000
	case "cm":
		return v * 10
	default:
		return v
	}
}
