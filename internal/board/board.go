// Package board shares the Raspberry Pi GPIO register mapping between the
// button reader and the LED driver.
package board

import (
	"fmt"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"
)

var (
	mu   sync.Mutex
	refs int
)

// Open maps the GPIO registers on first use. Every successful Open must be
// paired with a Close.
func Open() error {
	mu.Lock()
	defer mu.Unlock()

	if refs == 0 {
		if err := rpio.Open(); err != nil {
			return fmt.Errorf("failed to open gpio: %w", err)
		}
	}
	refs++
	return nil
}

// Close unmaps the registers once the last user is done
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if refs == 0 {
		return nil
	}
	refs--
	if refs > 0 {
		return nil
	}
	if err := rpio.Close(); err != nil {
		return fmt.Errorf("failed to close gpio: %w", err)
	}
	return nil
}
