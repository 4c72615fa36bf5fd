package input

import (
	"context"
	"fmt"
	"time"

	"github.com/jfmyers9/mpdpanel/internal/board"
	"github.com/rs/zerolog"
	"github.com/stianeikeland/go-rpio/v4"
)

// DefaultSampleInterval is how often GPIOSource samples the pins
const DefaultSampleInterval = 5 * time.Millisecond

// GPIOSource samples active-low push buttons on BCM pins with internal
// pull-ups enabled.
type GPIOSource struct {
	pins     map[ID]int
	interval time.Duration
	debounce *Debouncer
	logger   zerolog.Logger

	// pressed reads one pin; replaced in tests
	pressed func(pin int) bool
	now     func() time.Time
	setup   func(pins map[ID]int) (func(), error)
}

// NewGPIOSource creates a source for the given pin map
func NewGPIOSource(pins map[ID]int, debounce time.Duration, logger zerolog.Logger) *GPIOSource {
	return &GPIOSource{
		pins:     pins,
		interval: DefaultSampleInterval,
		debounce: NewDebouncer(debounce),
		logger:   logger.With().Str("component", "gpio").Logger(),
		pressed:  readActiveLow,
		now:      time.Now,
		setup:    setupPins,
	}
}

// Run samples the pins until ctx is cancelled
func (s *GPIOSource) Run(ctx context.Context, events chan<- PressEvent) error {
	release, err := s.setup(s.pins)
	if err != nil {
		return err
	}
	defer release()

	s.logger.Info().Int("buttons", len(s.pins)).Msg("Watching GPIO buttons")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	state := make(map[ID]EdgeKind, len(s.pins))
	for id := range s.pins {
		state[id] = Up
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.sample(ctx, state, events); err != nil {
				return err
			}
		}
	}
}

func (s *GPIOSource) sample(ctx context.Context, state map[ID]EdgeKind, events chan<- PressEvent) error {
	now := s.now()
	for id, pin := range s.pins {
		kind := Up
		if s.pressed(pin) {
			kind = Down
		}
		if kind == state[id] {
			continue
		}
		ev := PressEvent{Input: id, Kind: kind, At: now}
		if !s.debounce.Accept(ev) {
			continue
		}
		state[id] = kind

		select {
		case events <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func readActiveLow(pin int) bool {
	return rpio.Pin(pin).Read() == rpio.Low
}

func setupPins(pins map[ID]int) (func(), error) {
	if err := board.Open(); err != nil {
		return nil, err
	}
	for id, n := range pins {
		if n < 0 || n > 27 {
			_ = board.Close()
			return nil, fmt.Errorf("button %s: invalid BCM pin %d", id, n)
		}
		pin := rpio.Pin(n)
		pin.Input()
		pin.PullUp()
	}
	return func() { _ = board.Close() }, nil
}
