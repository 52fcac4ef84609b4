package epoch

import (
	"testing"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name        string
		now         int64
		duration    int64
		epochLength int64
		want        uint64
		expectError bool
	}{
		{
			// Two-minute market against 90-second epochs: floor(120/90) = 1.
			name:        "two-minute-market",
			now:         0,
			duration:    120,
			epochLength: 90,
			want:        1,
		},
		{
			name:        "exact-boundary",
			now:         0,
			duration:    180,
			epochLength: 90,
			want:        2,
		},
		{
			name:        "just-below-boundary",
			now:         0,
			duration:    179,
			epochLength: 90,
			want:        1,
		},
		{
			name:        "nonzero-now",
			now:         1_700_000_000,
			duration:    3600,
			epochLength: 90,
			want:        uint64((1_700_000_000 + 3600) / 90),
		},
		{
			name:        "zero-duration",
			now:         95,
			duration:    0,
			epochLength: 90,
			want:        1,
		},
		{
			name:        "zero-epoch-length-rejected",
			now:         0,
			duration:    120,
			epochLength: 0,
			expectError: true,
		},
		{
			name:        "negative-duration-rejected",
			now:         0,
			duration:    -1,
			epochLength: 90,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compute(tt.now, tt.duration, tt.epochLength)

			if tt.expectError {
				if err == nil {
					t.Fatal("expected error, got none")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Compute(%d, %d, %d) = %d, want %d", tt.now, tt.duration, tt.epochLength, got, tt.want)
			}
		})
	}
}

// Epoch must be monotonically non-decreasing as duration grows, for a
// fixed now and epoch length.
func TestComputeMonotonicInDuration(t *testing.T) {
	const now = 1_700_000_000

	prev := uint64(0)
	for duration := int64(0); duration <= 10*DefaultEpochLength; duration++ {
		got, err := Compute(now, duration, DefaultEpochLength)
		if err != nil {
			t.Fatalf("duration %d: %v", duration, err)
		}
		if got < prev {
			t.Fatalf("epoch decreased: duration %d gave %d after %d", duration, got, prev)
		}
		prev = got
	}
}

// Changing the duration must change the submitted epoch: recomputing with
// the duration at submission time never matches a cached value from an
// earlier, different duration.
func TestComputeRecomputeAfterDurationChange(t *testing.T) {
	const now = 1000

	before, err := Compute(now, 120, 90)
	if err != nil {
		t.Fatal(err)
	}
	after, err := Compute(now, 7200, 90)
	if err != nil {
		t.Fatal(err)
	}

	if before == after {
		t.Errorf("expected distinct epochs for 120s vs 7200s, both were %d", before)
	}
}
