package interval

import (
	"errors"
	"testing"
	"time"
)

func mustParse(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("failed to parse %q: %v", value, err)
	}
	return parsed
}

func iv(t *testing.T, start, end string) Interval {
	t.Helper()
	return Interval{Start: mustParse(t, start), End: mustParse(t, end)}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		in      Interval
		wantErr bool
	}{
		{
			name: "start before end",
			in:   iv(t, "2025-01-15T10:00:00Z", "2025-01-15T12:00:00Z"),
		},
		{
			name:    "start equals end",
			in:      iv(t, "2025-01-15T10:00:00Z", "2025-01-15T10:00:00Z"),
			wantErr: true,
		},
		{
			name:    "start after end",
			in:      iv(t, "2025-01-15T12:00:00Z", "2025-01-15T10:00:00Z"),
			wantErr: true,
		},
		{
			name:    "sub-second start",
			in:      iv(t, "2025-01-15T10:00:00.5Z", "2025-01-15T12:00:00Z"),
			wantErr: true,
		},
		{
			name:    "sub-second end",
			in:      iv(t, "2025-01-15T10:00:00Z", "2025-01-15T12:00:00.001Z"),
			wantErr: true,
		},
		{
			name:    "zero start",
			in:      Interval{End: mustParse(t, "2025-01-15T10:00:00Z")},
			wantErr: true,
		},
		{
			name:    "zero value",
			in:      Interval{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInterval) {
					t.Fatalf("expected ErrInvalidInterval, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestNewRejectsInvalid(t *testing.T) {
	_, err := New(mustParse(t, "2025-01-15T12:00:00Z"), mustParse(t, "2025-01-15T10:00:00Z"))
	if !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a    Interval
		b    Interval
		want bool
	}{
		{
			name: "touching boundaries do not conflict",
			a:    iv(t, "2025-01-15T10:00:00Z", "2025-01-15T12:00:00Z"),
			b:    iv(t, "2025-01-15T12:00:00Z", "2025-01-15T14:00:00Z"),
			want: false,
		},
		{
			name: "partial overlap",
			a:    iv(t, "2025-01-15T10:00:00Z", "2025-01-15T12:00:00Z"),
			b:    iv(t, "2025-01-15T11:00:00Z", "2025-01-15T13:00:00Z"),
			want: true,
		},
		{
			name: "containment",
			a:    iv(t, "2025-01-15T09:00:00Z", "2025-01-15T17:00:00Z"),
			b:    iv(t, "2025-01-15T10:00:00Z", "2025-01-15T11:00:00Z"),
			want: true,
		},
		{
			name: "identical",
			a:    iv(t, "2025-01-15T10:00:00Z", "2025-01-15T12:00:00Z"),
			b:    iv(t, "2025-01-15T10:00:00Z", "2025-01-15T12:00:00Z"),
			want: true,
		},
		{
			name: "disjoint",
			a:    iv(t, "2025-01-15T08:00:00Z", "2025-01-15T09:00:00Z"),
			b:    iv(t, "2025-01-15T10:00:00Z", "2025-01-15T11:00:00Z"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Fatalf("Overlaps(a, b) = %v, want %v", got, tt.want)
			}
			// Overlap is symmetric.
			if got := tt.b.Overlaps(tt.a); got != tt.want {
				t.Fatalf("Overlaps(b, a) = %v, want %v", got, tt.want)
			}
		})
	}
}
