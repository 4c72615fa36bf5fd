package render

import (
	"fmt"
	"sync"

	"github.com/jfmyers9/mpdpanel/internal/board"
	"github.com/jfmyers9/mpdpanel/internal/display"
	"github.com/rs/zerolog"
	"github.com/stianeikeland/go-rpio/v4"
)

// DefaultSPISpeed clocks three SPI bits per WS2812 bit
const DefaultSPISpeed = 2400000

// resetBytes of low line after a frame latch the colors (>50us at 2.4MHz)
const resetBytes = 24

// EncodeWS2812 turns colors into the SPI bit stream of a WS2812 chain.
// Each LED takes green, red, blue, most significant bit first; each data
// bit becomes 110 for one and 100 for zero. brightness scales every
// channel, 255 being full.
func EncodeWS2812(colors []display.Color, brightness uint8) []byte {
	out := make([]byte, 0, len(colors)*9+resetBytes)
	var acc uint32
	var n uint
	push := func(bits uint32, width uint) {
		acc = acc<<width | bits
		n += width
		for n >= 8 {
			out = append(out, byte(acc>>(n-8)))
			n -= 8
		}
	}
	for _, c := range colors {
		for _, ch := range [3]uint8{c.G, c.R, c.B} {
			v := uint8(uint16(ch) * uint16(brightness) / 255)
			for i := 7; i >= 0; i-- {
				if v&(1<<uint(i)) != 0 {
					push(0b110, 3)
				} else {
					push(0b100, 3)
				}
			}
		}
	}
	if n > 0 {
		push(0, 8-n)
	}
	for i := 0; i < resetBytes; i++ {
		out = append(out, 0)
	}
	return out
}

// WS2812 drives a single WS2812 LED wired to SPI0 MOSI
type WS2812 struct {
	mu         sync.Mutex
	brightness uint8
	transmit   func([]byte)
	end        func()
	logger     zerolog.Logger
}

// NewWS2812 opens SPI0 at speed Hz. speed <= 0 selects DefaultSPISpeed.
func NewWS2812(speed int, brightness uint8, logger zerolog.Logger) (*WS2812, error) {
	if speed <= 0 {
		speed = DefaultSPISpeed
	}
	if err := board.Open(); err != nil {
		return nil, &ResourceError{Kind: "led", Path: "spi0", Err: err}
	}
	if err := rpio.SpiBegin(rpio.Spi0); err != nil {
		_ = board.Close()
		return nil, &ResourceError{Kind: "led", Path: "spi0", Err: err}
	}
	rpio.SpiSpeed(speed)
	rpio.SpiChipSelect(0)

	return &WS2812{
		brightness: brightness,
		transmit:   func(b []byte) { rpio.SpiTransmit(b...) },
		end: func() {
			rpio.SpiEnd(rpio.Spi0)
			_ = board.Close()
		},
		logger: logger.With().Str("component", "led").Logger(),
	}, nil
}

// SetColor lights the LED
func (w *WS2812) SetColor(c display.Color) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.transmit == nil {
		return fmt.Errorf("led closed")
	}
	w.transmit(EncodeWS2812([]display.Color{c}, w.brightness))
	w.logger.Debug().Uint8("r", c.R).Uint8("g", c.G).Uint8("b", c.B).Msg("LED color set")
	return nil
}

// Off darkens the LED
func (w *WS2812) Off() error {
	return w.SetColor(display.ColorOff)
}

// Close darkens the LED and releases SPI
func (w *WS2812) Close() error {
	err := w.Off()
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.end != nil {
		w.end()
	}
	w.transmit = nil
	w.end = nil
	return err
}

// LogIndicator records color changes in the log instead of driving a LED
type LogIndicator struct {
	logger zerolog.Logger
}

// NewLogIndicator creates a LogIndicator
func NewLogIndicator(logger zerolog.Logger) *LogIndicator {
	return &LogIndicator{logger: logger.With().Str("component", "led").Logger()}
}

func (l *LogIndicator) SetColor(c display.Color) error {
	l.logger.Info().Uint8("r", c.R).Uint8("g", c.G).Uint8("b", c.B).Msg("LED color")
	return nil
}

func (l *LogIndicator) Off() error {
	l.logger.Info().Msg("LED off")
	return nil
}

func (l *LogIndicator) Close() error { return nil }
