package input

import (
	"sort"
	"time"
)

// Debouncer drops repeats of the same edge and holds back transitions that
// arrive within the window of the last delivered transition for the same
// input. A held transition is released by Flush once the window has passed
// without a newer one, so the settled level is never lost.
// It is not safe for concurrent use.
type Debouncer struct {
	window  time.Duration
	last    map[ID]PressEvent
	pending map[ID]PressEvent
}

// NewDebouncer creates a Debouncer. A zero window selects DefaultDebounce.
func NewDebouncer(window time.Duration) *Debouncer {
	if window <= 0 {
		window = DefaultDebounce
	}
	return &Debouncer{
		window:  window,
		last:    make(map[ID]PressEvent),
		pending: make(map[ID]PressEvent),
	}
}

// Accept reports whether ev should be delivered now
func (d *Debouncer) Accept(ev PressEvent) bool {
	prev, ok := d.last[ev.Input]
	if !ok {
		if ev.Kind == Up {
			// Released before we ever saw it pressed
			return false
		}
	} else {
		if prev.Kind == ev.Kind {
			// Bounced back to the delivered level
			delete(d.pending, ev.Input)
			return false
		}
		if ev.At.Sub(prev.At) < d.window {
			d.pending[ev.Input] = ev
			return false
		}
	}
	delete(d.pending, ev.Input)
	d.last[ev.Input] = ev
	return true
}

// Pending reports whether a held transition is waiting for Flush
func (d *Debouncer) Pending() bool {
	return len(d.pending) > 0
}

// Flush delivers held transitions that have been stable for the window as
// of now, oldest first. Sources that only see edges must call it regularly.
func (d *Debouncer) Flush(now time.Time) []PressEvent {
	var settled []PressEvent
	for id, ev := range d.pending {
		if now.Sub(ev.At) < d.window {
			continue
		}
		delete(d.pending, id)
		d.last[id] = ev
		settled = append(settled, ev)
	}
	sort.Slice(settled, func(i, j int) bool { return settled[i].At.Before(settled[j].At) })
	return settled
}
