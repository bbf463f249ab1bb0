package timegate

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// IST is the fixed reference timezone (UTC+5:30). All gating and day
// partitioning happens in this zone regardless of the host timezone.
var IST = time.FixedZone("IST", 5*60*60+30*60)

// Gate resolves the current moment into the fixed reference timezone and
// answers whether a configured threshold hour has been reached.
// In production construct it with clockwork.NewRealClock(); tests inject a
// FakeClock.
type Gate struct {
	clock clockwork.Clock
}

// NewGate creates a Gate driven by the given clock.
func NewGate(clock clockwork.Clock) *Gate {
	return &Gate{clock: clock}
}

// Now returns the current time in IST, derived purely from the clock's
// instant; the host timezone never participates.
func (g *Gate) Now() time.Time {
	return g.clock.Now().In(IST)
}

// CurrentHour returns the current IST hour (0-23).
func (g *Gate) CurrentHour() int {
	return g.Now().Hour()
}

// IsAtOrAfter reports whether the current IST hour has reached hour.
// Hours are bounded to [0,23], so a threshold of 24 (the "never" sentinel)
// is unreachable and always returns false.
func (g *Gate) IsAtOrAfter(hour int) bool {
	if hour > 23 {
		return false
	}
	return g.CurrentHour() >= hour
}

// Today returns the current calendar day at IST midnight, used as the
// daily counter partition key. It is consistent with CurrentHour: both are
// derived from the same instant in the same zone.
func (g *Gate) Today() time.Time {
	now := g.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, IST)
}
