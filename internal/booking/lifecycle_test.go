package booking

import (
	"testing"

	"github.com/example/classroom-reservation/internal/persistence"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from persistence.ReservationStatus
		to   persistence.ReservationStatus
		want bool
	}{
		{name: "pending to confirmed", from: persistence.StatusPending, to: persistence.StatusConfirmed, want: true},
		{name: "pending to rejected", from: persistence.StatusPending, to: persistence.StatusRejected, want: true},
		{name: "pending to cancelled", from: persistence.StatusPending, to: persistence.StatusCancelled, want: true},
		{name: "confirmed to cancelled", from: persistence.StatusConfirmed, to: persistence.StatusCancelled, want: true},
		{name: "confirmed to pending", from: persistence.StatusConfirmed, to: persistence.StatusPending, want: false},
		{name: "confirmed to rejected", from: persistence.StatusConfirmed, to: persistence.StatusRejected, want: false},
		{name: "rejected is terminal", from: persistence.StatusRejected, to: persistence.StatusCancelled, want: false},
		{name: "cancelled is terminal", from: persistence.StatusCancelled, to: persistence.StatusPending, want: false},
		{name: "no self transition", from: persistence.StatusPending, to: persistence.StatusPending, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestTransitionSources(t *testing.T) {
	tests := []struct {
		name   string
		target persistence.ReservationStatus
		want   []persistence.ReservationStatus
	}{
		{
			name:   "confirmed only from pending",
			target: persistence.StatusConfirmed,
			want:   []persistence.ReservationStatus{persistence.StatusPending},
		},
		{
			name:   "rejected only from pending",
			target: persistence.StatusRejected,
			want:   []persistence.ReservationStatus{persistence.StatusPending},
		},
		{
			name:   "cancelled from pending or confirmed",
			target: persistence.StatusCancelled,
			want:   []persistence.ReservationStatus{persistence.StatusPending, persistence.StatusConfirmed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := transitionSources(tt.target)
			if len(got) != len(tt.want) {
				t.Fatalf("transitionSources(%s) = %v, want %v", tt.target, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("transitionSources(%s) = %v, want %v", tt.target, got, tt.want)
				}
			}
		})
	}
}

func TestTerminalStatuses(t *testing.T) {
	if persistence.StatusPending.Terminal() || persistence.StatusConfirmed.Terminal() {
		t.Fatal("pending and confirmed must not be terminal")
	}
	if !persistence.StatusRejected.Terminal() || !persistence.StatusCancelled.Terminal() {
		t.Fatal("rejected and cancelled must be terminal")
	}
}
