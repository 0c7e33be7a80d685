/**
 * @description
 * This file defines the clock abstraction the engine uses for every expiration and
 * day-boundary decision. Production wires the system clock; tests substitute a
 * manual clock so expiry and daily-reset behavior can be driven deterministically.
 */

package app

import "time"

// Clock supplies the current time to the authorization engine.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// utcDay truncates a timestamp to its UTC calendar day. Spend accounting resets on
// this boundary.
func utcDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
