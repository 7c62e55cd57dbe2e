package policy

// Sensitivity classifies how damaging exposure of a PII instance would be.
// The ordinals are totally ordered for threshold comparisons.
type Sensitivity int

const (
	SensitivityLow    Sensitivity = 1
	SensitivityMedium Sensitivity = 2
	SensitivityHigh   Sensitivity = 3
)

// String returns the string representation of the sensitivity.
func (s Sensitivity) String() string {
	switch s {
	case SensitivityLow:
		return "low"
	case SensitivityMedium:
		return "medium"
	case SensitivityHigh:
		return "high"
	default:
		return "medium"
	}
}

// ParseSensitivity parses a sensitivity name. Unknown names map to
// SensitivityMedium, matching the catalog default.
func ParseSensitivity(s string) Sensitivity {
	switch s {
	case "low":
		return SensitivityLow
	case "medium":
		return SensitivityMedium
	case "high":
		return SensitivityHigh
	default:
		return SensitivityMedium
	}
}
