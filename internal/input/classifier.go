package input

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultLongPress is how long a button must be held to count as a long press
	DefaultLongPress = 2 * time.Second

	// DefaultDebounce is the window in which repeated transitions are dropped
	DefaultDebounce = 50 * time.Millisecond
)

// ErrInvalidState marks an event that does not fit the press cycle, such as
// an Up with no matching Down. Such events are dropped, never surfaced.
var ErrInvalidState = errors.New("input: invalid press state")

// press is one Down..Up cycle. classified is set by whichever of the
// long-press timer and the Up handler gets there first.
type press struct {
	start      time.Time
	classified atomic.Bool
	cancel     func() bool
}

// Classifier turns press events into Short and Long classifications.
//
// Handle must be called from a single goroutine. The long-press timer fires
// on the scheduler's goroutine and only touches the press it was armed for.
type Classifier struct {
	threshold time.Duration
	scheduler Scheduler
	emit      func(Classification)
	logger    zerolog.Logger

	pressed map[ID]*press
}

// NewClassifier creates a Classifier. emit is called exactly once per press,
// possibly from the scheduler's goroutine.
func NewClassifier(threshold time.Duration, scheduler Scheduler, emit func(Classification), logger zerolog.Logger) *Classifier {
	if threshold <= 0 {
		threshold = DefaultLongPress
	}
	if scheduler == nil {
		scheduler = TimerScheduler{}
	}
	return &Classifier{
		threshold: threshold,
		scheduler: scheduler,
		emit:      emit,
		logger:    logger.With().Str("component", "classifier").Logger(),
		pressed:   make(map[ID]*press),
	}
}

// Handle feeds one event into the state machine
func (c *Classifier) Handle(ev PressEvent) {
	var err error
	switch ev.Kind {
	case Down:
		err = c.down(ev)
	case Up:
		err = c.up(ev)
	}
	if err != nil {
		c.logger.Debug().
			Str("input", string(ev.Input)).
			Str("edge", ev.Kind.String()).
			Msg("Ignoring spurious edge")
	}
}

// Pressed reports whether input is between Down and Up
func (c *Classifier) Pressed(input ID) bool {
	_, ok := c.pressed[input]
	return ok
}

func (c *Classifier) down(ev PressEvent) error {
	if _, ok := c.pressed[ev.Input]; ok {
		return ErrInvalidState
	}

	p := &press{start: ev.At}
	input := ev.Input
	p.cancel = c.scheduler.Schedule(c.threshold, func() {
		if p.classified.CompareAndSwap(false, true) {
			c.logger.Debug().Str("input", string(input)).Msg("Long press detected")
			c.emit(Classification{Input: input, Kind: Long})
		}
	})
	c.pressed[ev.Input] = p
	return nil
}

func (c *Classifier) up(ev PressEvent) error {
	p, ok := c.pressed[ev.Input]
	if !ok {
		return ErrInvalidState
	}
	delete(c.pressed, ev.Input)

	p.cancel()

	// Lost to the timer: Long was already emitted
	if !p.classified.CompareAndSwap(false, true) {
		return nil
	}

	kind := Short
	if ev.At.Sub(p.start) >= c.threshold {
		// Held past the threshold but the timer has not run yet
		kind = Long
	}
	c.logger.Debug().
		Str("input", string(ev.Input)).
		Str("kind", kind.String()).
		Dur("held", ev.At.Sub(p.start)).
		Msg("Press released")
	c.emit(Classification{Input: ev.Input, Kind: kind})
	return nil
}
