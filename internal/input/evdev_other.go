//go:build !linux

package input

import (
	"context"
	"errors"
)

// Run is only supported on Linux
func (s *EvdevSource) Run(ctx context.Context, events chan<- PressEvent) error {
	return errors.New("evdev input is only supported on linux")
}
