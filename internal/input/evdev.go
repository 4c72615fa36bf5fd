package input

import (
	"bytes"
	"encoding/binary"
	"time"

	"github.com/rs/zerolog"
)

const (
	evKey = 0x01

	keyRelease = 0
	keyPress   = 1
	keyRepeat  = 2

	// epollTimeoutMs bounds each wait so cancellation is noticed promptly
	epollTimeoutMs = 100
)

// inputEvent mirrors struct input_event on 64-bit Linux
// struct input_event { struct timeval time; __u16 type; __u16 code; __s32 value; };
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

// EvdevSource reads key events from a Linux input device, typically one
// created by the gpio-keys device tree overlay.
type EvdevSource struct {
	path     string
	keys     map[uint16]ID
	debounce *Debouncer
	logger   zerolog.Logger

	now func() time.Time
}

// NewEvdevSource creates a source reading path. keys maps input-event key
// codes to buttons; other keys are ignored.
func NewEvdevSource(path string, keys map[ID]uint16, debounce time.Duration, logger zerolog.Logger) *EvdevSource {
	byCode := make(map[uint16]ID, len(keys))
	for id, code := range keys {
		byCode[code] = id
	}
	return &EvdevSource{
		path:     path,
		keys:     byCode,
		debounce: NewDebouncer(debounce),
		logger:   logger.With().Str("component", "evdev").Str("device", path).Logger(),
		now:      time.Now,
	}
}

// translate converts a raw event, reporting false for events that are not
// a press or release of a mapped key
func (s *EvdevSource) translate(ev inputEvent) (PressEvent, bool) {
	if ev.Type != evKey {
		return PressEvent{}, false
	}
	id, ok := s.keys[ev.Code]
	if !ok {
		return PressEvent{}, false
	}

	var kind EdgeKind
	switch ev.Value {
	case keyPress:
		kind = Down
	case keyRelease:
		kind = Up
	default:
		// autorepeat; the classifier times holds itself
		return PressEvent{}, false
	}

	pe := PressEvent{
		Input: id,
		Kind:  kind,
		At:    time.Unix(ev.Sec, ev.Usec*int64(time.Microsecond)),
	}
	if !s.debounce.Accept(pe) {
		return PressEvent{}, false
	}
	return pe, true
}

// settle returns releases and presses held back by the debouncer that have
// since stopped bouncing
func (s *EvdevSource) settle() []PressEvent {
	return s.debounce.Flush(s.now())
}

// waitTimeout is how long the read loop may block before settling again
func (s *EvdevSource) waitTimeout() int {
	if !s.debounce.Pending() {
		return epollTimeoutMs
	}
	ms := int(s.debounce.window / time.Millisecond)
	if ms < 1 {
		ms = 1
	}
	return ms
}

func decodeInputEvent(buf []byte) (inputEvent, error) {
	var ev inputEvent
	err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &ev)
	return ev, err
}
