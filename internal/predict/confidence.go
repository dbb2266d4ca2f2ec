package predict

import "math"

// Confidence grades how plausible a prediction looks.
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// plausible reports whether a value sits inside the typical QM9 range for
// the property. Properties without a known range only have to be finite.
func plausible(code string, value float64) bool {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return false
	}
	switch code {
	case "mu":
		return value >= 0 && value <= 10
	case "alpha":
		return value >= 10 && value <= 300
	case "homo", "lumo":
		return value >= -15 && value <= 5
	case "gap":
		return value >= 0 && value <= 20
	default:
		return true
	}
}

// ModelConfidence grades a full prediction vector by the share of values that
// fall inside their typical ranges: above 85% is High, above 60% Medium,
// anything else Low.
func ModelConfidence(values []float64) Confidence {
	if len(values) == 0 {
		return ConfidenceLow
	}
	score := 0
	for i, v := range values {
		code := ""
		if i < len(Catalog) {
			code = Catalog[i].Code
		}
		if plausible(code, v) {
			score++
		}
	}
	ratio := float64(score) / float64(len(values))
	switch {
	case ratio > 0.85:
		return ConfidenceHigh
	case ratio > 0.6:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
