// Package render draws display intents onto a panel and drives the
// status LED.
package render

import (
	"errors"
	"fmt"
	"image"

	"github.com/jfmyers9/mpdpanel/internal/display"
)

// ErrResourceMissing is wrapped by every ResourceError
var ErrResourceMissing = errors.New("render resource missing")

// ResourceError reports a font, image or device the renderer needs at
// startup but could not load.
type ResourceError struct {
	Kind string // "font", "images", "display", ...
	Path string
	Err  error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Path, e.Err)
}

func (e *ResourceError) Unwrap() []error {
	return []error{ErrResourceMissing, e.Err}
}

// Renderer is the drawing surface of the panel
type Renderer interface {
	Clear()
	DrawText(text string, at image.Point, font display.FontID)
	DrawImage(bitmap []byte) error
	Show() error
	Close() error
}

// Indicator is the status LED
type Indicator interface {
	SetColor(c display.Color) error
	Off() error
	Close() error
}

// Paint draws one intent. images holds the screensaver bitmaps indexed by
// intent.Image.
func Paint(r Renderer, in display.Intent, images [][]byte) error {
	r.Clear()
	if in.Image >= 0 {
		if in.Image >= len(images) {
			return fmt.Errorf("screensaver image %d out of range (have %d)", in.Image, len(images))
		}
		if err := r.DrawImage(images[in.Image]); err != nil {
			return err
		}
	}
	for _, l := range in.Lines {
		r.DrawText(l.Text, l.At, l.Font)
	}
	return r.Show()
}

// Signal updates the indicator for an intent
func Signal(ind Indicator, in display.Intent) error {
	if in.LEDOff {
		return ind.Off()
	}
	return ind.SetColor(in.LED)
}
