package input

import "time"

// Scheduler runs fn once after d unless the returned cancel is called first.
// cancel reports whether it stopped fn from running.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) (cancel func() bool)
}

// TimerScheduler schedules on runtime timers.
type TimerScheduler struct{}

// Schedule implements Scheduler with time.AfterFunc
func (TimerScheduler) Schedule(d time.Duration, fn func()) func() bool {
	t := time.AfterFunc(d, fn)
	return t.Stop
}
