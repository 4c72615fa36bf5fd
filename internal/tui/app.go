// Package tui simulates the front panel in a terminal: the OLED is drawn
// with half-block characters, the LED as a coloured swatch, and number keys
// stand in for the buttons.
package tui

import (
	"context"
	"fmt"
	"image"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/jfmyers9/mpdpanel/internal/display"
	"github.com/jfmyers9/mpdpanel/internal/input"
	"github.com/rivo/tview"
)

const maxRecentPresses = 5

// shifted number keys on a US layout, used for long presses
var longKeys = []rune{'!', '@', '#', '$', '%', '^', '&', '*', '('}

// Config holds TUI configuration options
type Config struct {
	Buttons   []input.ID    // Buttons bound to keys 1..9 in order
	LongPress time.Duration // How long a shifted key holds its button
}

// RecentPress stores one simulated button press
type RecentPress struct {
	Input input.ID
	Kind  input.PressKind
	At    time.Time
}

// App is the terminal preview. It is a render.Presenter, a render.Indicator
// and, through Keys, an input.Source.
type App struct {
	app    *tview.Application
	panel  *tview.TextView
	led    *tview.TextView
	recent *tview.TextView
	status *tview.TextView

	// Configuration
	config Config

	keys *Keys

	// mu guards the fields below, touched by the render loop and the UI
	mu sync.Mutex

	// Ring buffer for recent presses
	recentBuf   [maxRecentPresses]RecentPress
	recentCount int

	// Last-rendered content for change detection
	lastPanel  string
	lastLED    display.Color
	lastLEDOff bool
	lastRecent string
	closed     bool
}

// New creates a new preview
func New(cfg Config) *App {
	if cfg.LongPress <= 0 {
		cfg.LongPress = input.DefaultLongPress
	}
	a := &App{
		app:        tview.NewApplication(),
		config:     cfg,
		keys:       &Keys{events: make(chan input.PressEvent, 32)},
		lastLEDOff: true,
	}
	a.setupUI()
	return a
}

// setupUI creates the UI layout
func (a *App) setupUI() {
	// Panel: 128x64 pixels become 128x32 cells
	a.panel = tview.NewTextView().
		SetWrap(false).
		SetTextColor(tcell.ColorLightCyan)
	a.panel.SetBorder(true).
		SetTitle(" OLED ").
		SetTitleAlign(tview.AlignLeft)

	a.led = tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetText("off")
	a.led.SetBorder(true).
		SetTitle(" LED ").
		SetTitleAlign(tview.AlignLeft)

	a.recent = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	a.recent.SetBorder(true).
		SetTitle(" Presses ").
		SetTitleAlign(tview.AlignLeft)

	a.status = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter).
		SetText("[gray]" + tview.Escape(helpText(a.config.Buttons)) + "[-]")

	side := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.led, 3, 0, false).
		AddItem(a.recent, 0, 1, false)

	top := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(a.panel, 130, 0, false).
		AddItem(side, 0, 1, false)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(top, 34, 0, false).
		AddItem(a.status, 1, 0, false)

	a.app.SetInputCapture(a.handleKeyEvent)
	a.app.SetRoot(flex, true)
}

// helpText describes the key bindings
func helpText(buttons []input.ID) string {
	parts := []string{"q:quit"}
	for i, id := range buttons {
		if i >= len(longKeys) {
			break
		}
		parts = append(parts, fmt.Sprintf("%d/%c:%s", i+1, longKeys[i], id))
	}
	return strings.Join(parts, "  ")
}

// handleKeyEvent processes keyboard input
func (a *App) handleKeyEvent(event *tcell.EventKey) *tcell.EventKey {
	r := event.Rune()
	if r == 'q' || r == 'Q' {
		a.app.Stop()
		return nil
	}
	if id, kind, ok := a.binding(r); ok {
		a.press(id, kind)
		return nil
	}
	return event
}

// binding maps a key to a button and press kind
func (a *App) binding(r rune) (input.ID, input.PressKind, bool) {
	if r >= '1' && r <= '9' {
		i := int(r - '1')
		if i < len(a.config.Buttons) {
			return a.config.Buttons[i], input.Short, true
		}
		return "", input.Short, false
	}
	for i, k := range longKeys {
		if k == r && i < len(a.config.Buttons) {
			return a.config.Buttons[i], input.Long, true
		}
	}
	return "", input.Short, false
}

// press simulates a button: a short press releases at once, a long one
// after the long press threshold has passed
func (a *App) press(id input.ID, kind input.PressKind) {
	now := time.Now()
	a.keys.send(input.PressEvent{Input: id, Kind: input.Down, At: now})
	if kind == input.Short {
		a.keys.send(input.PressEvent{Input: id, Kind: input.Up, At: now})
	} else {
		hold := a.config.LongPress + 100*time.Millisecond
		time.AfterFunc(hold, func() {
			a.keys.send(input.PressEvent{Input: id, Kind: input.Up, At: now.Add(hold)})
		})
	}

	a.mu.Lock()
	idx := a.recentCount % maxRecentPresses
	a.recentBuf[idx] = RecentPress{Input: id, Kind: kind, At: now}
	a.recentCount++
	text := a.recentText()
	changed := text != a.lastRecent
	a.lastRecent = text
	a.mu.Unlock()

	if changed {
		a.recent.SetText(text)
	}
}

// recentText renders the recent presses, newest first.
// Must be called with a.mu held.
func (a *App) recentText() string {
	n := a.recentCount
	if n > maxRecentPresses {
		n = maxRecentPresses
	}
	var sb strings.Builder
	for i := 0; i < n; i++ {
		p := a.recentBuf[(a.recentCount-1-i)%maxRecentPresses]
		if i > 0 {
			sb.WriteString("\n")
		}
		color := "green"
		if p.Kind == input.Long {
			color = "yellow"
		}
		sb.WriteString(fmt.Sprintf("[gray]%s[-] [%s]%s %s[-]", p.At.Format("15:04:05"), color, tview.Escape(string(p.Input)), p.Kind))
	}
	return sb.String()
}

// Keys returns the simulated buttons
func (a *App) Keys() *Keys {
	return a.keys
}

// Present implements render.Presenter
func (a *App) Present(frame *image.Gray) error {
	text := HalfBlocks(frame)

	a.mu.Lock()
	if a.closed || text == a.lastPanel {
		a.mu.Unlock()
		return nil
	}
	a.lastPanel = text
	a.mu.Unlock()

	a.app.QueueUpdateDraw(func() {
		a.panel.SetText(text)
	})
	return nil
}

// SetColor implements render.Indicator
func (a *App) SetColor(c display.Color) error {
	a.mu.Lock()
	if a.closed || (!a.lastLEDOff && c == a.lastLED) {
		a.mu.Unlock()
		return nil
	}
	a.lastLED, a.lastLEDOff = c, false
	a.mu.Unlock()

	a.app.QueueUpdateDraw(func() {
		a.led.SetBackgroundColor(SwatchColor(c))
		a.led.SetText(c.String())
	})
	return nil
}

// Off implements render.Indicator
func (a *App) Off() error {
	a.mu.Lock()
	if a.closed || a.lastLEDOff {
		a.mu.Unlock()
		return nil
	}
	a.lastLEDOff = true
	a.mu.Unlock()

	a.app.QueueUpdateDraw(func() {
		a.led.SetBackgroundColor(tcell.ColorDefault)
		a.led.SetText("off")
	})
	return nil
}

// Close stops drawing. The application itself is stopped by Stop.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	return nil
}

// Run runs the terminal UI until the user quits or ctx is cancelled
func (a *App) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		a.app.Stop()
	}()

	err := a.app.Run()

	// Nothing drains queued updates once the application has stopped
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()

	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// Stop stops the TUI application
func (a *App) Stop() {
	a.app.Stop()
}

// Keys delivers simulated presses. It implements input.Source.
type Keys struct {
	events chan input.PressEvent
}

func (k *Keys) send(ev input.PressEvent) {
	select {
	case k.events <- ev:
	default:
	}
}

// Run forwards presses until ctx is cancelled
func (k *Keys) Run(ctx context.Context, events chan<- input.PressEvent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-k.events:
			select {
			case events <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// HalfBlocks renders a monochrome frame as text, two pixel rows per line
func HalfBlocks(frame *image.Gray) string {
	b := frame.Bounds()
	lit := func(x, y int) bool {
		return y < b.Max.Y && frame.GrayAt(x, y).Y >= 0x80
	}

	var sb strings.Builder
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		if y > b.Min.Y {
			sb.WriteByte('\n')
		}
		for x := b.Min.X; x < b.Max.X; x++ {
			top, bottom := lit(x, y), lit(x, y+1)
			switch {
			case top && bottom:
				sb.WriteRune('█')
			case top:
				sb.WriteRune('▀')
			case bottom:
				sb.WriteRune('▄')
			default:
				sb.WriteByte(' ')
			}
		}
	}
	return sb.String()
}

// SwatchColor brightens the dim LED colours so they are visible on screen
func SwatchColor(c display.Color) tcell.Color {
	scale := func(v uint8) int32 {
		s := int32(v) * 10
		if s > 255 {
			s = 255
		}
		return s
	}
	return tcell.NewRGBColor(scale(c.R), scale(c.G), scale(c.B))
}
