package display

import (
	"image"
	"time"

	"github.com/jfmyers9/mpdpanel/internal/player"
)

// Defaults matching the stock panel
const (
	DefaultWidth              = 128
	DefaultModeDuration       = 20 * time.Second
	DefaultScrollStep         = 2
	DefaultScrollInterval     = 20 * time.Millisecond
	DefaultScrollDelay        = 2 * time.Second
	DefaultSeparator          = " >>> "
	DefaultScreensaverTimeout = 20 * time.Second
	DefaultImageDuration      = 5 * time.Second
)

var (
	line1 = image.Pt(0, 10)
	line2 = image.Pt(0, 35)
)

// Measurer reports the rendered width of text in pixels
type Measurer interface {
	TextWidth(text string, font FontID) int
}

// Config holds the engine's cadences and geometry
type Config struct {
	Width              int
	ModeDuration       time.Duration
	ScrollStep         int
	ScrollInterval     time.Duration
	ScrollDelay        time.Duration
	Separator          string
	ScreensaverTimeout time.Duration
	ImageDuration      time.Duration
	ImageCount         int // screensaver never starts when zero
}

// DefaultConfig returns the stock cadences
func DefaultConfig() Config {
	return Config{
		Width:              DefaultWidth,
		ModeDuration:       DefaultModeDuration,
		ScrollStep:         DefaultScrollStep,
		ScrollInterval:     DefaultScrollInterval,
		ScrollDelay:        DefaultScrollDelay,
		Separator:          DefaultSeparator,
		ScreensaverTimeout: DefaultScreensaverTimeout,
		ImageDuration:      DefaultImageDuration,
	}
}

// Observation is what the poller saw on this tick
type Observation struct {
	Status  player.Status
	Offline bool
}

// State is the engine's memory between ticks
type State struct {
	Mode          Mode
	ModeEnteredAt time.Time
	ScrollOffset  int
	IdleSince     time.Time // zero while playing
	SaverActive   bool
	SaverStarted  time.Time
	Screen        Screen // screen produced by the previous tick
}

// NewState returns the startup state
func NewState(now time.Time) State {
	return State{Mode: ModeTrack, ModeEnteredAt: now}
}

// Idle reports how long the player has been continuously not playing
func (s State) Idle(now time.Time) time.Duration {
	if s.IdleSince.IsZero() {
		return 0
	}
	return now.Sub(s.IdleSince)
}

// Engine computes frames. It holds no mutable state.
type Engine struct {
	cfg     Config
	measure Measurer
}

// NewEngine creates an engine. Zero config fields take their defaults.
func NewEngine(cfg Config, measure Measurer) *Engine {
	def := DefaultConfig()
	if cfg.Width <= 0 {
		cfg.Width = def.Width
	}
	if cfg.ModeDuration <= 0 {
		cfg.ModeDuration = def.ModeDuration
	}
	if cfg.ScrollStep <= 0 {
		cfg.ScrollStep = def.ScrollStep
	}
	if cfg.ScrollInterval <= 0 {
		cfg.ScrollInterval = def.ScrollInterval
	}
	if cfg.ScrollDelay <= 0 {
		cfg.ScrollDelay = def.ScrollDelay
	}
	if cfg.Separator == "" {
		cfg.Separator = def.Separator
	}
	if cfg.ScreensaverTimeout <= 0 {
		cfg.ScreensaverTimeout = def.ScreensaverTimeout
	}
	if cfg.ImageDuration <= 0 {
		cfg.ImageDuration = def.ImageDuration
	}
	return &Engine{cfg: cfg, measure: measure}
}

// Config returns the effective configuration
func (e *Engine) Config() Config {
	return e.cfg
}

// Tick derives the frame for now and the next state
func (e *Engine) Tick(obs Observation, now time.Time, st State) (Intent, State) {
	if !obs.Offline && obs.Status.State == player.StatePlaying {
		return e.playing(obs.Status, now, st)
	}
	return e.idle(obs, now, st)
}

func (e *Engine) playing(status player.Status, now time.Time, st State) (Intent, State) {
	if st.Screen != ScreenPlaying {
		// Coming back from pause, stop, offline or the screensaver
		st.Mode = ModeTrack
		st.ModeEnteredAt = now
		st.ScrollOffset = 0
	} else if now.Sub(st.ModeEnteredAt) >= e.cfg.ModeDuration {
		st.Mode = st.Mode.next()
		st.ModeEnteredAt = now
		st.ScrollOffset = 0
	}
	st.IdleSince = time.Time{}
	st.SaverActive = false
	st.Screen = ScreenPlaying

	var first Line
	switch st.Mode {
	case ModeTrack:
		first = Line{Text: TrackText(status.Track), At: line1, Font: FontMain}
		st.ScrollOffset = 0
	case ModeArtist:
		first, st.ScrollOffset = e.scroll(status.Artist, now.Sub(st.ModeEnteredAt))
	case ModeTitle:
		first, st.ScrollOffset = e.scroll(status.Title, now.Sub(st.ModeEnteredAt))
	}

	intent := Intent{
		Screen: ScreenPlaying,
		Mode:   st.Mode,
		Lines: []Line{
			first,
			{Text: FormatElapsed(status.Elapsed), At: line2, Font: FontTime},
		},
		Image: -1,
		LED:   ColorPlaying,
	}
	return intent, st
}

// scroll lays out text that may be wider than the panel. sinceMode is the
// time spent in the current mode.
func (e *Engine) scroll(text string, sinceMode time.Duration) (Line, int) {
	if e.measure.TextWidth(text, FontMain) <= e.cfg.Width {
		return Line{Text: text, At: line1, Font: FontMain}, 0
	}

	cycle := e.measure.TextWidth(text+e.cfg.Separator, FontMain)
	offset := 0
	if sinceMode >= e.cfg.ScrollDelay && cycle > 0 {
		steps := int((sinceMode - e.cfg.ScrollDelay) / e.cfg.ScrollInterval)
		offset = (steps * e.cfg.ScrollStep) % cycle
	}

	wrapped := text + e.cfg.Separator + text
	return Line{Text: wrapped, At: image.Pt(line1.X-offset, line1.Y), Font: FontMain}, offset
}

func (e *Engine) idle(obs Observation, now time.Time, st State) (Intent, State) {
	if st.IdleSince.IsZero() {
		st.IdleSince = now
	}
	st.ScrollOffset = 0

	led, off := ColorStopped, false
	switch {
	case obs.Offline:
		led, off = ColorOff, true
	case obs.Status.State == player.StatePaused:
		led = ColorPaused
	}

	if st.SaverActive {
		idx := int(now.Sub(st.SaverStarted) / e.cfg.ImageDuration)
		if idx < e.cfg.ImageCount {
			st.Screen = ScreenSaver
			return Intent{Screen: ScreenSaver, Mode: st.Mode, Image: idx, LED: led, LEDOff: off}, st
		}
		// Image set exhausted: back to the status screen, idle timer restarts
		st.SaverActive = false
		st.IdleSince = now
	} else if e.cfg.ImageCount > 0 && now.Sub(st.IdleSince) >= e.cfg.ScreensaverTimeout {
		st.SaverActive = true
		st.SaverStarted = now
		st.Screen = ScreenSaver
		return Intent{Screen: ScreenSaver, Mode: st.Mode, Image: 0, LED: led, LEDOff: off}, st
	}

	intent := Intent{Mode: st.Mode, Image: -1, LED: led, LEDOff: off}
	switch {
	case obs.Offline:
		intent.Screen = ScreenOffline
		intent.Lines = []Line{
			{Text: "MPD", At: line1, Font: FontMain},
			{Text: "Offline", At: line2, Font: FontMain},
		}
	case obs.Status.State == player.StatePaused:
		intent.Screen = ScreenPaused
		intent.Lines = []Line{{Text: "Paused", At: line1, Font: FontMain}}
	default:
		intent.Screen = ScreenStopped
		intent.Lines = []Line{
			{Text: "Not", At: line1, Font: FontMain},
			{Text: "Playing", At: line2, Font: FontMain},
		}
	}
	st.Screen = intent.Screen
	return intent, st
}
