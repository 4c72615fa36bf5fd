package render

import (
	"bytes"
	"errors"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jfmyers9/mpdpanel/internal/display"
	"github.com/rs/zerolog"
)

type recordingRenderer struct {
	ops []string
}

func (r *recordingRenderer) Clear() { r.ops = append(r.ops, "clear") }
func (r *recordingRenderer) DrawText(text string, at image.Point, _ display.FontID) {
	r.ops = append(r.ops, "text:"+text+"@"+at.String())
}
func (r *recordingRenderer) DrawImage(b []byte) error {
	r.ops = append(r.ops, "image")
	return nil
}
func (r *recordingRenderer) Show() error  { r.ops = append(r.ops, "show"); return nil }
func (r *recordingRenderer) Close() error { return nil }

type framePresenter struct {
	frames int
	last   *image.Gray
	closed bool
}

func (p *framePresenter) Present(f *image.Gray) error {
	p.frames++
	p.last = f
	return nil
}
func (p *framePresenter) Close() error { p.closed = true; return nil }

func TestPaint_Order(t *testing.T) {
	r := &recordingRenderer{}
	in := display.Intent{
		Image: 0,
		Lines: []display.Line{
			{Text: "Trk. 03", At: image.Pt(0, 10)},
			{Text: "01:02", At: image.Pt(0, 35)},
		},
	}
	if err := Paint(r, in, [][]byte{{0}}); err != nil {
		t.Fatalf("Paint: %v", err)
	}
	got := strings.Join(r.ops, ",")
	want := "clear,image,text:Trk. 03@(0,10),text:01:02@(0,35),show"
	if got != want {
		t.Errorf("ops = %s, want %s", got, want)
	}
}

func TestPaint_ImageOutOfRange(t *testing.T) {
	r := &recordingRenderer{}
	if err := Paint(r, display.Intent{Image: 2}, [][]byte{{0}}); err == nil {
		t.Fatal("expected error for missing image")
	}
}

func TestCanvas_DrawTextLightsPixels(t *testing.T) {
	p := &framePresenter{}
	c := NewCanvas(128, 64, nil, p)
	c.Clear()
	c.DrawText("Hello", image.Pt(0, 10), display.FontMain)
	if err := c.Show(); err != nil {
		t.Fatalf("Show: %v", err)
	}
	if p.frames != 1 {
		t.Fatalf("frames = %d, want 1", p.frames)
	}

	lit := 0
	for y := 0; y < 64; y++ {
		for x := 0; x < 128; x++ {
			if p.last.GrayAt(x, y).Y > 0 {
				if y < 10 {
					t.Fatalf("pixel lit above the text box at (%d,%d)", x, y)
				}
				lit++
			}
		}
	}
	if lit == 0 {
		t.Error("no pixels lit")
	}

	c.Clear()
	for _, v := range c.Frame().Pix {
		if v != 0 {
			t.Fatal("Clear left pixels lit")
		}
	}
}

func TestCanvas_NegativeOffsetClips(t *testing.T) {
	c := NewCanvas(32, 16, nil, nil)
	c.DrawText("abcdefghij", image.Pt(-40, 0), display.FontMain)
	if err := c.Show(); err != nil {
		t.Fatalf("Show with no presenter: %v", err)
	}
}

func TestCanvas_TextWidth(t *testing.T) {
	c := NewCanvas(128, 64, nil, nil)
	// basicfont is 7 pixels per glyph
	if w := c.TextWidth("abcd", display.FontMain); w != 28 {
		t.Errorf("TextWidth = %d, want 28", w)
	}
	if w := c.TextWidth("", display.FontTime); w != 0 {
		t.Errorf("TextWidth(\"\") = %d, want 0", w)
	}
}

func TestCanvas_DrawImage(t *testing.T) {
	c := NewCanvas(10, 2, nil, nil)
	// stride 2 bytes; light (0,0), (9,0) and (1,1)
	bm := []byte{0x80, 0x40, 0x40, 0x00}
	if err := c.DrawImage(bm); err != nil {
		t.Fatalf("DrawImage: %v", err)
	}
	f := c.Frame()
	for _, p := range []image.Point{{0, 0}, {9, 0}, {1, 1}} {
		if f.GrayAt(p.X, p.Y).Y != 0xff {
			t.Errorf("pixel %v not lit", p)
		}
	}
	if f.GrayAt(1, 0).Y != 0 {
		t.Error("pixel (1,0) should be dark")
	}

	if err := c.DrawImage([]byte{0}); err == nil {
		t.Error("expected size mismatch error")
	}
}

func TestCanvas_CloseClosesPresenter(t *testing.T) {
	p := &framePresenter{}
	c := NewCanvas(8, 8, nil, p)
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !p.closed {
		t.Error("presenter not closed")
	}
}

func TestLoadFace_Missing(t *testing.T) {
	_, err := LoadFace(filepath.Join(t.TempDir(), "nope.ttf"), 12)
	if !errors.Is(err, ErrResourceMissing) {
		t.Fatalf("expected ErrResourceMissing, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped os.ErrNotExist, got %v", err)
	}
}

func TestLoadFace_Garbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.ttf")
	if err := os.WriteFile(path, []byte("not a font"), 0o644); err != nil {
		t.Fatal(err)
	}
	var re *ResourceError
	if _, err := LoadFace(path, 12); !errors.As(err, &re) || re.Kind != "font" {
		t.Fatalf("expected font ResourceError, got %v", err)
	}
}

func TestLoadFaces_EmptyPathsUseBuiltin(t *testing.T) {
	faces, err := LoadFaces("", 24, "", 12)
	if err != nil {
		t.Fatalf("LoadFaces: %v", err)
	}
	if len(faces) != 0 {
		t.Errorf("expected no loaded faces, got %d", len(faces))
	}
}

func TestEncodeWS2812(t *testing.T) {
	// green 0x80 -> 110 then seven 100s; red and blue zero
	out := EncodeWS2812([]display.Color{{R: 0, G: 0x80, B: 0}}, 255)
	if len(out) != 9+resetBytes {
		t.Fatalf("len = %d, want %d", len(out), 9+resetBytes)
	}
	// 110 100 100 100 100 100 100 100 -> 1101 0010 0100 1001 0010 0100
	want := []byte{0xD2, 0x49, 0x24}
	if !bytes.Equal(out[:3], want) {
		t.Errorf("green bytes = % x, want % x", out[:3], want)
	}
	zero := []byte{0x92, 0x49, 0x24}
	if !bytes.Equal(out[3:6], zero) || !bytes.Equal(out[6:9], zero) {
		t.Errorf("red/blue bytes = % x, want zeros encoded as % x", out[3:9], zero)
	}
	for _, b := range out[9:] {
		if b != 0 {
			t.Fatal("reset padding must be low")
		}
	}
}

func TestEncodeWS2812_Brightness(t *testing.T) {
	full := EncodeWS2812([]display.Color{{R: 255, G: 255, B: 255}}, 0)
	off := EncodeWS2812([]display.Color{display.ColorOff}, 255)
	if !bytes.Equal(full, off) {
		t.Error("zero brightness should encode as off")
	}
}

func TestWS2812_SetColorAndClose(t *testing.T) {
	var sent [][]byte
	ended := false
	w := &WS2812{
		brightness: 255,
		transmit:   func(b []byte) { sent = append(sent, b) },
		end:        func() { ended = true },
		logger:     zerolog.New(io.Discard),
	}
	if err := Signal(w, display.Intent{LED: display.ColorPlaying}); err != nil {
		t.Fatalf("Signal: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(sent) != 2 {
		t.Fatalf("transmits = %d, want 2", len(sent))
	}
	if !bytes.Equal(sent[1], EncodeWS2812([]display.Color{display.ColorOff}, 255)) {
		t.Error("Close should switch the LED off")
	}
	if !ended {
		t.Error("SPI not released")
	}
	if err := w.SetColor(display.ColorStopped); err == nil {
		t.Error("SetColor after Close should fail")
	}
}

func TestSignal_Off(t *testing.T) {
	var buf bytes.Buffer
	ind := NewLogIndicator(zerolog.New(&buf))
	if err := Signal(ind, display.Intent{LEDOff: true, LED: display.ColorStopped}); err != nil {
		t.Fatalf("Signal: %v", err)
	}
	if !strings.Contains(buf.String(), "LED off") {
		t.Errorf("log = %q, want LED off", buf.String())
	}
}
