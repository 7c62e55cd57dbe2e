// Package pii detects and redacts sensitive data in free text using the
// pattern catalog from the policy store.
package pii

import (
	"context"
	"sort"
	"strings"

	"github.com/neuraform/neuraform/internal/log"
	"github.com/neuraform/neuraform/internal/policy"
)

// DefaultMaskChar is the redaction character used by Redact.
const DefaultMaskChar = '*'

// Redaction method names as they appear in the policy catalog.
const (
	MethodMaskAll     = "mask_all"
	MethodMaskPartial = "mask_partial"
	MethodMaskMiddle  = "mask_middle"
)

// Detection is one sensitive-data match. Offsets are rune offsets into
// the scanned text.
type Detection struct {
	Type        string             `json:"type"`
	Value       string             `json:"value"`
	Start       int                `json:"start"`
	End         int                `json:"end"`
	Sensitivity policy.Sensitivity `json:"sensitivity"`
}

// PolicyProvider is the catalog surface the scanner reads.
type PolicyProvider interface {
	PIIPatterns() []*policy.PIIPattern
	RedactionMethod(piiType string) string
}

// Scanner detects and redacts sensitive data. It holds no mutable state;
// pattern changes arrive through the provider's snapshots.
type Scanner struct {
	policies PolicyProvider
}

func NewScanner(policies PolicyProvider) *Scanner {
	return &Scanner{policies: policies}
}

// Detect scans text with every catalog pattern and returns the matches
// ordered ascending by start offset. A pattern that fails at match time
// is skipped; a scan never aborts.
func (s *Scanner) Detect(ctx context.Context, text string) []Detection {
	if text == "" {
		return nil
	}

	runes := []rune(text)

	var detected []Detection

	for _, pattern := range s.policies.PIIPatterns() {
		match, err := pattern.Matcher().FindRunesMatch(runes)
		for err == nil && match != nil {
			detected = append(detected, Detection{
				Type:        pattern.Name,
				Value:       match.String(),
				Start:       match.Index,
				End:         match.Index + match.Length,
				Sensitivity: pattern.Sensitivity,
			})

			match, err = pattern.Matcher().FindNextMatch(match)
		}

		if err != nil {
			log.Warn(ctx, "pattern match failed", log.String("pattern", pattern.Name), log.Cause(err))
		}
	}

	sort.SliceStable(detected, func(i, j int) bool {
		return detected[i].Start < detected[j].Start
	})

	return detected
}

// HasPII reports whether text contains any detection at or above the
// sensitivity threshold.
func (s *Scanner) HasPII(ctx context.Context, text string, minSensitivity policy.Sensitivity) bool {
	for _, detection := range s.Detect(ctx, text) {
		if detection.Sensitivity >= minSensitivity {
			return true
		}
	}

	return false
}

// Redact replaces detected values using the catalog's per-type redaction
// method and '*' as the mask character. The returned detections are in
// ascending start order.
func (s *Scanner) Redact(ctx context.Context, text string) (string, []Detection) {
	return s.RedactWith(ctx, text, DefaultMaskChar)
}

// RedactWith is Redact with a caller-chosen mask character.
func (s *Scanner) RedactWith(ctx context.Context, text string, maskChar rune) (string, []Detection) {
	detections := s.Detect(ctx, text)
	if len(detections) == 0 {
		return text, nil
	}

	// Rewrite from the end so earlier offsets stay valid. Overlapping
	// matches are not merged; the later rewrite wins.
	runes := []rune(text)

	for i := len(detections) - 1; i >= 0; i-- {
		detection := detections[i]

		method := s.policies.RedactionMethod(detection.Type)
		masked := applyRedaction(detection.Value, detection.Type, method, maskChar)

		rewritten := make([]rune, 0, len(runes)-(detection.End-detection.Start)+len([]rune(masked)))
		rewritten = append(rewritten, runes[:detection.Start]...)
		rewritten = append(rewritten, []rune(masked)...)
		rewritten = append(rewritten, runes[detection.End:]...)
		runes = rewritten
	}

	if log.DebugEnabled(ctx) {
		log.Debug(ctx, "redacted sensitive data", log.Int("detections", len(detections)))
	}

	return string(runes), detections
}

// applyRedaction masks one value according to the method. Unknown methods
// fall back to a full mask.
func applyRedaction(value, piiType, method string, maskChar rune) string {
	switch method {
	case MethodMaskPartial:
		return maskPartial(value, piiType, maskChar)
	case MethodMaskMiddle:
		return maskMiddle(value, piiType, maskChar)
	case MethodMaskAll:
		return maskRun(maskChar, len([]rune(value)))
	default:
		return maskRun(maskChar, len([]rune(value)))
	}
}

func maskRun(maskChar rune, n int) string {
	return strings.Repeat(string(maskChar), n)
}

// maskPartial keeps a recognizable prefix. Emails keep the first two
// local-part characters plus a fixed three-character mask run and the
// domain intact, e.g. "johndoe@example.com" -> "jo***@example.com".
func maskPartial(value, piiType string, maskChar rune) string {
	if piiType == "email" {
		local, domain, ok := strings.Cut(value, "@")
		if ok && len([]rune(local)) > 2 {
			prefix := []rune(local)[:2]
			return string(prefix) + maskRun(maskChar, 3) + "@" + domain
		}

		return value
	}

	runes := []rune(value)
	if len(runes) > 6 {
		return string(runes[:2]) + maskRun(maskChar, len(runes)-4) + string(runes[len(runes)-2:])
	}

	return maskRun(maskChar, len(runes))
}

// maskMiddle keeps outer quarters visible. Phone and national-id values
// with separators keep the separators and short groups for readability.
func maskMiddle(value, piiType string, maskChar rune) string {
	runes := []rune(value)
	if len(runes) <= 4 {
		return maskRun(maskChar, len(runes))
	}

	if (piiType == "phone" || piiType == "aadhaar") && strings.ContainsAny(value, " -") {
		return maskGroups(value, maskChar)
	}

	show := len(runes) / 4

	return string(runes[:show]) + maskRun(maskChar, len(runes)-2*show) + string(runes[len(runes)-show:])
}

// maskGroups masks separator-delimited groups independently: groups longer
// than two characters are fully masked, short groups and the separators
// themselves pass through.
func maskGroups(value string, maskChar rune) string {
	var builder strings.Builder

	var group []rune

	flush := func() {
		if len(group) > 2 {
			builder.WriteString(maskRun(maskChar, len(group)))
		} else {
			builder.WriteString(string(group))
		}

		group = group[:0]
	}

	for _, r := range value {
		if r == ' ' || r == '-' {
			flush()
			builder.WriteRune(r)

			continue
		}

		group = append(group, r)
	}

	flush()

	return builder.String()
}
