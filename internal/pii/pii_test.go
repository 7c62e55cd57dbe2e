package pii

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuraform/neuraform/internal/policy"
)

func testScanner(t *testing.T) *Scanner {
	t.Helper()

	store := policy.NewStoreFromDocument(policy.Document{
		PII: policy.PIIDoc{
			Patterns: []policy.PatternDoc{
				{
					Name:        "email",
					Pattern:     `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`,
					Sensitivity: "high",
				},
				{
					Name:        "phone",
					Pattern:     `\+?\d[\d\s-]{8,}\d`,
					Sensitivity: "medium",
				},
				{
					Name:        "employee_id",
					Pattern:     `EMP-\d{6}`,
					Sensitivity: "low",
				},
			},
			Redaction: policy.RedactionDoc{
				DefaultMethod: "mask_all",
				Methods: map[string]string{
					"email":       "mask_partial",
					"phone":       "mask_middle",
					"employee_id": "mask_all",
				},
			},
		},
	})

	return NewScanner(store)
}

func TestDetect(t *testing.T) {
	scanner := testScanner(t)
	ctx := context.Background()

	t.Run("empty text", func(t *testing.T) {
		assert.Empty(t, scanner.Detect(ctx, ""))
	})

	t.Run("clean text", func(t *testing.T) {
		assert.Empty(t, scanner.Detect(ctx, "quarterly revenue grew in the north region"))
	})

	t.Run("single email", func(t *testing.T) {
		detections := scanner.Detect(ctx, "Contact me at test@example.com")
		require.Len(t, detections, 1)

		assert.Equal(t, "email", detections[0].Type)
		assert.Equal(t, "test@example.com", detections[0].Value)
		assert.Equal(t, policy.SensitivityHigh, detections[0].Sensitivity)
		assert.Equal(t, len("Contact me at "), detections[0].Start)
	})

	t.Run("ascending by start across types", func(t *testing.T) {
		detections := scanner.Detect(ctx, "EMP-123456 wrote to ops@corp.io yesterday")
		require.Len(t, detections, 2)

		assert.Equal(t, "employee_id", detections[0].Type)
		assert.Equal(t, "email", detections[1].Type)
		assert.Less(t, detections[0].Start, detections[1].Start)
	})
}

func TestHasPII(t *testing.T) {
	scanner := testScanner(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		text      string
		threshold policy.Sensitivity
		want      bool
	}{
		{
			name:      "clean text",
			text:      "nothing sensitive here",
			threshold: policy.SensitivityLow,
			want:      false,
		},
		{
			name:      "high meets medium threshold",
			text:      "reach me at a.person@corp.io",
			threshold: policy.SensitivityMedium,
			want:      true,
		},
		{
			name:      "low below medium threshold",
			text:      "badge EMP-123456 was reissued",
			threshold: policy.SensitivityMedium,
			want:      false,
		},
		{
			name:      "low meets low threshold",
			text:      "badge EMP-123456 was reissued",
			threshold: policy.SensitivityLow,
			want:      true,
		},
		{
			name:      "medium meets medium threshold",
			text:      "call +91 98765 43210 after lunch",
			threshold: policy.SensitivityMedium,
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scanner.HasPII(ctx, tt.text, tt.threshold))
		})
	}
}

func TestRedact(t *testing.T) {
	scanner := testScanner(t)
	ctx := context.Background()

	t.Run("no matches is identity", func(t *testing.T) {
		text := "summarize the manufacturing backlog"

		redacted, detections := scanner.Redact(ctx, text)
		assert.Equal(t, text, redacted)
		assert.Empty(t, detections)
	})

	t.Run("email mask_partial contract", func(t *testing.T) {
		redacted, detections := scanner.Redact(ctx, "johndoe@example.com")
		assert.Equal(t, "jo***@example.com", redacted)
		require.Len(t, detections, 1)
		assert.Equal(t, "email", detections[0].Type)
	})

	t.Run("short local part stays unchanged", func(t *testing.T) {
		redacted, _ := scanner.Redact(ctx, "ab@example.com")
		assert.Equal(t, "ab@example.com", redacted)
	})

	t.Run("mask_all is length preserving", func(t *testing.T) {
		redacted, detections := scanner.Redact(ctx, "badge EMP-123456 was reissued")
		require.Len(t, detections, 1)
		assert.Equal(t, "badge "+strings.Repeat("*", len("EMP-123456"))+" was reissued", redacted)
	})

	t.Run("phone mask_middle keeps separators", func(t *testing.T) {
		redacted, detections := scanner.Redact(ctx, "call 98765 43210 now")
		require.Len(t, detections, 1)
		assert.Equal(t, "phone", detections[0].Type)
		assert.Equal(t, "call ***** ***** now", redacted)
	})

	t.Run("multiple detections rewritten back to front", func(t *testing.T) {
		redacted, detections := scanner.Redact(ctx, "EMP-123456 wrote to ops@corp.io")
		require.Len(t, detections, 2)

		// Returned order is ascending even though rewrites run descending.
		assert.Equal(t, "employee_id", detections[0].Type)
		assert.Equal(t, "email", detections[1].Type)

		assert.NotContains(t, redacted, "EMP-123456")
		assert.NotContains(t, redacted, "ops@corp.io")
		assert.Contains(t, redacted, "op***@corp.io")
	})

	t.Run("idempotent on already redacted text", func(t *testing.T) {
		redacted, _ := scanner.Redact(ctx, "badge EMP-123456 was reissued")

		again, detections := scanner.Redact(ctx, redacted)
		assert.Equal(t, redacted, again)
		assert.Empty(t, detections)
	})
}

func TestApplyRedaction(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		piiType string
		method  string
		want    string
	}{
		{name: "mask_all", value: "secret", piiType: "other", method: MethodMaskAll, want: "******"},
		{name: "unknown method falls back to mask_all", value: "secret", piiType: "other", method: "rot13", want: "******"},
		{name: "mask_partial email", value: "johndoe@example.com", piiType: "email", method: MethodMaskPartial, want: "jo***@example.com"},
		{name: "mask_partial email short local", value: "jo@example.com", piiType: "email", method: MethodMaskPartial, want: "jo@example.com"},
		{name: "mask_partial long value", value: "ABCDE1234F", piiType: "pan", method: MethodMaskPartial, want: "AB******4F"},
		{name: "mask_partial short value", value: "ABC123", piiType: "pan", method: MethodMaskPartial, want: "******"},
		{name: "mask_middle short full mask", value: "1234", piiType: "other", method: MethodMaskMiddle, want: "****"},
		{name: "mask_middle generic quarters", value: "123456789012", piiType: "other", method: MethodMaskMiddle, want: "123******012"},
		{name: "mask_middle phone with dashes", value: "98765-43210", piiType: "phone", method: MethodMaskMiddle, want: "*****-*****"},
		{name: "mask_middle phone short groups kept", value: "+1 98 7654", piiType: "phone", method: MethodMaskMiddle, want: "+1 98 ****"},
		{name: "mask_middle aadhaar", value: "1234 5678 9012", piiType: "aadhaar", method: MethodMaskMiddle, want: "**** **** ****"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, applyRedaction(tt.value, tt.piiType, tt.method, '*'))
		})
	}
}
