package epoch

import (
	"math/big"
	"testing"
)

func TestScaleThreshold(t *testing.T) {
	tests := []struct {
		name        string
		price       string
		decimals    uint8
		want        int64
		expectError bool
	}{
		{
			name:     "whole-number",
			price:    "2",
			decimals: 5,
			want:     200_000,
		},
		{
			name:     "typical-ftso-price",
			price:    "0.03141",
			decimals: 5,
			want:     3_141,
		},
		{
			name:     "fewer-digits-than-decimals",
			price:    "1.2",
			decimals: 5,
			want:     120_000,
		},
		{
			name:     "exact-decimal-count",
			price:    "1.23456",
			decimals: 5,
			want:     123_456,
		},
		{
			name:     "leading-dot",
			price:    ".5",
			decimals: 5,
			want:     50_000,
		},
		{
			name:     "zero",
			price:    "0",
			decimals: 5,
			want:     0,
		},
		{
			name:     "zero-decimals",
			price:    "42",
			decimals: 0,
			want:     42,
		},
		{
			name:        "too-many-digits-rejected",
			price:       "1.234567",
			decimals:    5,
			expectError: true,
		},
		{
			name:        "negative-rejected",
			price:       "-1.2",
			decimals:    5,
			expectError: true,
		},
		{
			name:        "not-a-number-rejected",
			price:       "1.2.3",
			decimals:    5,
			expectError: true,
		},
		{
			name:        "alpha-rejected",
			price:       "abc",
			decimals:    5,
			expectError: true,
		},
		{
			name:        "empty-rejected",
			price:       "",
			decimals:    5,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ScaleThreshold(tt.price, tt.decimals)

			if tt.expectError {
				if err == nil {
					t.Fatalf("expected error for %q, got %s", tt.price, got)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Int64() != tt.want {
				t.Errorf("ScaleThreshold(%q, %d) = %s, want %d", tt.price, tt.decimals, got, tt.want)
			}
		})
	}
}

func TestFormatThreshold(t *testing.T) {
	tests := []struct {
		name     string
		value    int64
		decimals uint8
		want     string
	}{
		{name: "typical", value: 3_141, decimals: 5, want: "0.03141"},
		{name: "whole", value: 200_000, decimals: 5, want: "2"},
		{name: "trailing-zeros-trimmed", value: 120_000, decimals: 5, want: "1.2"},
		{name: "zero", value: 0, decimals: 5, want: "0"},
		{name: "zero-decimals", value: 42, decimals: 0, want: "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatThreshold(big.NewInt(tt.value), tt.decimals)
			if got != tt.want {
				t.Errorf("FormatThreshold(%d, %d) = %q, want %q", tt.value, tt.decimals, got, tt.want)
			}
		})
	}
}

// Round-trip law: scaling a formatted value reproduces it exactly.
func TestThresholdRoundTrip(t *testing.T) {
	values := []int64{0, 1, 9, 10, 99_999, 100_000, 123_456, 3_141, 50_000, 1_000_000_000}

	for _, decimals := range []uint8{0, 2, 5, 8, 18} {
		for _, v := range values {
			formatted := FormatThreshold(big.NewInt(v), decimals)
			back, err := ScaleThreshold(formatted, decimals)
			if err != nil {
				t.Fatalf("decimals %d value %d (%q): %v", decimals, v, formatted, err)
			}
			if back.Int64() != v {
				t.Errorf("decimals %d: %d -> %q -> %d", decimals, v, formatted, back.Int64())
			}
		}
	}
}
