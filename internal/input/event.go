package input

import (
	"context"
	"time"
)

// ID names one logical button, e.g. "PLAY_PAUSE".
type ID string

// EdgeKind is the direction of a button transition.
type EdgeKind int

const (
	Down EdgeKind = iota
	Up
)

func (k EdgeKind) String() string {
	if k == Down {
		return "down"
	}
	return "up"
}

// PressEvent is one debounced transition of a button.
type PressEvent struct {
	Input ID
	Kind  EdgeKind
	At    time.Time
}

// PressKind is the classification of a completed or held press.
type PressKind int

const (
	Short PressKind = iota
	Long
)

// String returns "short" or "long"
func (k PressKind) String() string {
	if k == Long {
		return "long"
	}
	return "short"
}

// ParsePressKind is the inverse of PressKind.String
func ParsePressKind(s string) (PressKind, bool) {
	switch s {
	case "short":
		return Short, true
	case "long":
		return Long, true
	}
	return Short, false
}

// Classification is emitted once per press.
type Classification struct {
	Input ID
	Kind  PressKind
}

// Source delivers debounced press events until ctx is cancelled.
// Events for one input arrive in order.
type Source interface {
	Run(ctx context.Context, events chan<- PressEvent) error
}

// NopSource never produces events. It is used when the panel has no buttons.
type NopSource struct{}

// Run blocks until ctx is cancelled
func (NopSource) Run(ctx context.Context, events chan<- PressEvent) error {
	<-ctx.Done()
	return ctx.Err()
}
