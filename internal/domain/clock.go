package domain

import "github.com/jonboulle/clockwork"

// clock stamps LoadedAt on summaries. Tests freeze it through SetClock.
var clock = clockwork.NewRealClock()

// SetClock replaces the time source used for load timestamps. Pass nil to
// restore the real clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
