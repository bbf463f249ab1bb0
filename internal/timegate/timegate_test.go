package timegate

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func gateAt(t *testing.T, utc time.Time) *Gate {
	t.Helper()
	return NewGate(clockwork.NewFakeClockAt(utc))
}

func TestCurrentHour_FixedOffset(t *testing.T) {
	// 14:30 UTC is 20:00 IST regardless of where the host runs.
	g := gateAt(t, time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC))
	if got := g.CurrentHour(); got != 20 {
		t.Errorf("CurrentHour() = %d, want 20", got)
	}

	// 19:00 UTC rolls over to 00:30 IST the next day.
	g = gateAt(t, time.Date(2025, 3, 10, 19, 0, 0, 0, time.UTC))
	if got := g.CurrentHour(); got != 0 {
		t.Errorf("CurrentHour() = %d, want 0", got)
	}
}

func TestIsAtOrAfter(t *testing.T) {
	// 08:30 UTC = 14:00 IST
	g := gateAt(t, time.Date(2025, 3, 10, 8, 30, 0, 0, time.UTC))

	tests := []struct {
		name      string
		threshold int
		want      bool
	}{
		{"before threshold", 20, false},
		{"exactly at threshold", 14, true},
		{"after threshold", 9, true},
		{"midnight threshold", 0, true},
		{"sentinel 24 never fires", 24, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.IsAtOrAfter(tt.threshold); got != tt.want {
				t.Errorf("IsAtOrAfter(%d) = %v, want %v", tt.threshold, got, tt.want)
			}
		})
	}
}

func TestToday_NormalizedToISTMidnight(t *testing.T) {
	g := gateAt(t, time.Date(2025, 3, 10, 8, 30, 45, 0, time.UTC))

	day := g.Today()
	if day.Hour() != 0 || day.Minute() != 0 || day.Second() != 0 || day.Nanosecond() != 0 {
		t.Errorf("Today() = %v, want midnight", day)
	}
	if day.Day() != 10 || day.Month() != time.March || day.Year() != 2025 {
		t.Errorf("Today() = %v, want 2025-03-10", day)
	}
}

func TestToday_DayBoundary(t *testing.T) {
	// 23:59 IST and 00:01 IST the next morning are distinct days.
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 10, 23, 59, 0, 0, IST))
	g := NewGate(clock)

	before := g.Today()
	clock.Advance(2 * time.Minute)
	after := g.Today()

	if !after.After(before) {
		t.Fatalf("day did not roll over: before=%v after=%v", before, after)
	}
	if diff := after.Sub(before); diff != 24*time.Hour {
		t.Errorf("day boundary diff = %v, want 24h", diff)
	}
}

func TestToday_ConsistentWithCurrentHour(t *testing.T) {
	// 20:30 UTC on Mar 10 is already Mar 11 in IST; the day key must agree
	// with the hour computation.
	g := gateAt(t, time.Date(2025, 3, 10, 20, 30, 0, 0, time.UTC))

	if got := g.CurrentHour(); got != 2 {
		t.Fatalf("CurrentHour() = %d, want 2", got)
	}
	if day := g.Today(); day.Day() != 11 {
		t.Errorf("Today() = %v, want IST calendar day 11", day)
	}
}
