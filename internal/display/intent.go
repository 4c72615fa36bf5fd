// Package display derives what the panel shows from player status and time.
//
// The engine is a pure function: given the same observation, time and
// state it returns the same intent and next state. Drawing is done by the
// render package.
package display

import (
	"fmt"
	"image"
	"time"
)

// Mode is the sub-view shown while playing
type Mode int

const (
	ModeTrack Mode = iota
	ModeArtist
	ModeTitle
)

func (m Mode) String() string {
	switch m {
	case ModeTrack:
		return "track"
	case ModeArtist:
		return "artist"
	case ModeTitle:
		return "title"
	}
	return "unknown"
}

// next returns the following mode in the Track, Artist, Title cycle
func (m Mode) next() Mode {
	switch m {
	case ModeTrack:
		return ModeArtist
	case ModeArtist:
		return ModeTitle
	default:
		return ModeTrack
	}
}

// Screen is the macro state of the panel
type Screen int

const (
	ScreenNone Screen = iota
	ScreenSplash
	ScreenPlaying
	ScreenPaused
	ScreenStopped
	ScreenOffline
	ScreenSaver
)

func (s Screen) String() string {
	switch s {
	case ScreenSplash:
		return "splash"
	case ScreenPlaying:
		return "playing"
	case ScreenPaused:
		return "paused"
	case ScreenStopped:
		return "stopped"
	case ScreenOffline:
		return "offline"
	case ScreenSaver:
		return "screensaver"
	}
	return "none"
}

// FontID selects one of the renderer's faces
type FontID int

const (
	FontMain FontID = iota // large text line
	FontTime               // elapsed time
)

// Color is an RGB value for the status LED
type Color struct {
	R, G, B uint8
}

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// LED colours by playback state
var (
	ColorPlaying = Color{0, 25, 20}  // aqua
	ColorPaused  = Color{15, 0, 20}  // violet
	ColorStopped = Color{25, 0, 0}   // red
	ColorOff     = Color{0, 0, 0}
)

// Line is a single draw_text call. Scrolling text is drawn once, shifted
// left by the scroll offset.
type Line struct {
	Text string
	At   image.Point
	Font FontID
}

// Intent is everything needed to draw one frame
type Intent struct {
	Screen Screen
	Mode   Mode
	Lines  []Line
	Image  int // screensaver image index, -1 when not showing one
	LED    Color
	LEDOff bool
}

// Splash returns the intent for the startup banner
func Splash(text string) Intent {
	return Intent{
		Screen: ScreenSplash,
		Lines:  []Line{{Text: text, At: image.Pt(20, 20), Font: FontMain}},
		Image:  -1,
		LEDOff: true,
	}
}

// TrackText formats a track number, or "Stream" when there is none
func TrackText(track *int) string {
	if track == nil {
		return "Stream"
	}
	return fmt.Sprintf("Trk. %02d", *track)
}

// FormatElapsed renders d as mm:ss
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
