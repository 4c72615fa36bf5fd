package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"

	"github.com/jfmyers9/mpdpanel/internal/display"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Presenter pushes a finished frame to a device
type Presenter interface {
	Present(frame *image.Gray) error
	Close() error
}

// Canvas is a monochrome frame buffer with text faces. It implements
// Renderer by handing each finished frame to its Presenter, and
// display.Measurer using the same faces.
type Canvas struct {
	frame *image.Gray
	faces map[display.FontID]font.Face
	out   Presenter
}

// NewCanvas creates a width x height canvas. Missing faces fall back to
// the built-in 7x13 bitmap font.
func NewCanvas(width, height int, faces map[display.FontID]font.Face, out Presenter) *Canvas {
	if faces == nil {
		faces = make(map[display.FontID]font.Face)
	}
	return &Canvas{
		frame: image.NewGray(image.Rect(0, 0, width, height)),
		faces: faces,
		out:   out,
	}
}

// Bounds returns the canvas size
func (c *Canvas) Bounds() image.Rectangle {
	return c.frame.Bounds()
}

// Frame returns the current frame. It is reused between frames.
func (c *Canvas) Frame() *image.Gray {
	return c.frame
}

func (c *Canvas) face(id display.FontID) font.Face {
	if f, ok := c.faces[id]; ok && f != nil {
		return f
	}
	return basicfont.Face7x13
}

// Clear blanks the frame
func (c *Canvas) Clear() {
	draw.Draw(c.frame, c.frame.Bounds(), image.Black, image.Point{}, draw.Src)
}

// DrawText draws text with its top-left corner at at. Text outside the
// frame is clipped, so scrolling text can start at a negative x.
func (c *Canvas) DrawText(text string, at image.Point, id display.FontID) {
	face := c.face(id)
	d := font.Drawer{
		Dst:  c.frame,
		Src:  image.White,
		Face: face,
		Dot:  fixed.P(at.X, at.Y+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)
}

// DrawImage draws a full-frame 1-bit bitmap: rows top to bottom, most
// significant bit first, each row padded to a whole byte.
func (c *Canvas) DrawImage(bitmap []byte) error {
	b := c.frame.Bounds()
	stride := (b.Dx() + 7) / 8
	if len(bitmap) != stride*b.Dy() {
		return fmt.Errorf("bitmap is %d bytes, want %d for %dx%d", len(bitmap), stride*b.Dy(), b.Dx(), b.Dy())
	}
	for y := 0; y < b.Dy(); y++ {
		row := bitmap[y*stride : (y+1)*stride]
		for x := 0; x < b.Dx(); x++ {
			v := color.Gray{}
			if row[x/8]&(0x80>>uint(x%8)) != 0 {
				v.Y = 0xff
			}
			c.frame.SetGray(b.Min.X+x, b.Min.Y+y, v)
		}
	}
	return nil
}

// Show presents the frame
func (c *Canvas) Show() error {
	if c.out == nil {
		return nil
	}
	return c.out.Present(c.frame)
}

// Close closes the presenter and releases the faces
func (c *Canvas) Close() error {
	for _, f := range c.faces {
		if f != nil {
			_ = f.Close()
		}
	}
	if c.out == nil {
		return nil
	}
	return c.out.Close()
}

// TextWidth implements display.Measurer
func (c *Canvas) TextWidth(text string, id display.FontID) int {
	return font.MeasureString(c.face(id), text).Ceil()
}

// LoadFace parses an OpenType or TrueType font file at the given pixel size
func LoadFace(path string, size float64) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ResourceError{Kind: "font", Path: path, Err: err}
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, &ResourceError{Kind: "font", Path: path, Err: err}
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, &ResourceError{Kind: "font", Path: path, Err: err}
	}
	return face, nil
}

// LoadFaces loads the main and time faces. An empty path selects the
// built-in bitmap font.
func LoadFaces(mainPath string, mainSize float64, timePath string, timeSize float64) (map[display.FontID]font.Face, error) {
	faces := make(map[display.FontID]font.Face)
	for id, fs := range map[display.FontID]struct {
		path string
		size float64
	}{
		display.FontMain: {mainPath, mainSize},
		display.FontTime: {timePath, timeSize},
	} {
		if fs.path == "" {
			continue
		}
		face, err := LoadFace(fs.path, fs.size)
		if err != nil {
			for _, f := range faces {
				_ = f.Close()
			}
			return nil, err
		}
		faces[id] = face
	}
	return faces, nil
}
