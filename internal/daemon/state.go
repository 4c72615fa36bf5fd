package daemon

import (
	"time"
)

// ConnectionState tracks the poller's view of the player connection.
// It is only touched from the tick goroutine.
type ConnectionState struct {
	Connected     bool      // Last poll reached the player
	LastSuccessAt time.Time // When the last poll succeeded
	LastAttemptAt time.Time // When the last reconnect was tried
	Failures      int       // Consecutive failed polls
	Reconnects    int       // Successful reconnects since startup
}

// succeeded records a successful poll
func (s *ConnectionState) succeeded(now time.Time) {
	s.Connected = true
	s.LastSuccessAt = now
	s.Failures = 0
}

// failed records a poll that ended offline
func (s *ConnectionState) failed() {
	s.Connected = false
	s.Failures++
}

// OfflineFor reports how long the player has been unreachable. It is zero
// while connected or before the first successful poll.
func (s ConnectionState) OfflineFor(now time.Time) time.Duration {
	if s.Connected || s.LastSuccessAt.IsZero() {
		return 0
	}
	return now.Sub(s.LastSuccessAt)
}
