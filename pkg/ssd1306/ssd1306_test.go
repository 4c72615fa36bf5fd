package ssd1306

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"
)

type fakeBus struct {
	writes [][]byte
	closed bool
	err    error
}

func (b *fakeBus) Write(p []byte) (int, error) {
	if b.err != nil {
		return 0, b.err
	}
	b.writes = append(b.writes, append([]byte(nil), p...))
	return len(p), nil
}

func (b *fakeBus) Close() error {
	b.closed = true
	return nil
}

func (b *fakeBus) data() []byte {
	var out []byte
	for _, w := range b.writes {
		if len(w) > 0 && w[0] == controlData {
			out = append(out, w[1:]...)
		}
	}
	return out
}

func TestNew_SendsInitSequence(t *testing.T) {
	bus := &fakeBus{}
	if _, err := New(bus, 128, 64); err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(bus.writes) != 1 {
		t.Fatalf("expected 1 write, got %d", len(bus.writes))
	}
	init := bus.writes[0]
	if init[0] != controlCommand {
		t.Errorf("init not sent as command: %#x", init[0])
	}
	if init[1] != cmdDisplayOff || init[len(init)-1] != cmdDisplayOn {
		t.Errorf("init should start with display off and end with display on: % x", init)
	}
	if !bytes.Contains(init, []byte{cmdSetMultiplex, 63}) {
		t.Errorf("multiplex ratio not set for 64 rows: % x", init)
	}
}

func TestNew_RejectsBadSize(t *testing.T) {
	for _, size := range [][2]int{{0, 64}, {256, 64}, {128, 48}} {
		if _, err := New(&fakeBus{}, size[0], size[1]); err == nil {
			t.Errorf("New(%dx%d) should fail", size[0], size[1])
		}
	}
}

func TestPack_PageLayout(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 16, 16))
	img.SetGray(0, 0, color.Gray{Y: 0xff})
	img.SetGray(3, 7, color.Gray{Y: 0xff})
	img.SetGray(5, 9, color.Gray{Y: 0xff})
	img.SetGray(6, 9, color.Gray{Y: 0x40}) // too dark

	dst := make([]byte, 16*16/8)
	Pack(dst, img, 16, 16)

	want := make([]byte, len(dst))
	want[0] = 0x01
	want[3] = 0x80
	want[16+5] = 0x02
	if !bytes.Equal(dst, want) {
		t.Errorf("Pack = % x, want % x", dst, want)
	}
}

func TestPack_OffsetBoundsAndClipping(t *testing.T) {
	img := image.NewGray(image.Rect(10, 10, 40, 30))
	img.SetGray(10, 10, color.Gray{Y: 0xff})
	img.SetGray(39, 29, color.Gray{Y: 0xff}) // outside an 8x8 target

	dst := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	Pack(dst, img, 8, 8)

	if dst[0] != 0x01 {
		t.Errorf("dst[0] = %#x, want 0x01", dst[0])
	}
	for i := 1; i < len(dst); i++ {
		if dst[i] != 0 {
			t.Errorf("dst[%d] = %#x, want 0", i, dst[i])
		}
	}
}

func TestDraw_StreamsWholeFrame(t *testing.T) {
	bus := &fakeBus{}
	dev, err := New(bus, 128, 32)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	bus.writes = nil

	img := image.NewGray(dev.Bounds())
	img.SetGray(127, 31, color.Gray{Y: 0xff})
	if err := dev.Draw(img); err != nil {
		t.Fatalf("Draw: %v", err)
	}

	addr := bus.writes[0]
	want := []byte{controlCommand, cmdColumnAddr, 0, 127, cmdPageAddr, 0, 3}
	if !bytes.Equal(addr, want) {
		t.Errorf("address window = % x, want % x", addr, want)
	}

	data := bus.data()
	if len(data) != 128*32/8 {
		t.Fatalf("streamed %d bytes, want %d", len(data), 128*32/8)
	}
	if data[len(data)-1] != 0x80 {
		t.Errorf("last byte = %#x, want 0x80", data[len(data)-1])
	}
	for _, w := range bus.writes[1:] {
		if len(w) > chunk+1 {
			t.Errorf("write of %d bytes exceeds chunk size", len(w))
		}
	}
}

func TestClose_BlanksAndClosesBus(t *testing.T) {
	bus := &fakeBus{}
	dev, err := New(bus, 128, 64)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	bus.writes = nil

	if err := dev.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !bus.closed {
		t.Error("bus not closed")
	}
	for _, b := range bus.data() {
		if b != 0 {
			t.Fatal("Close should blank the panel")
		}
	}
	last := bus.writes[len(bus.writes)-1]
	if !bytes.Equal(last, []byte{controlCommand, cmdDisplayOff}) {
		t.Errorf("last write = % x, want display off", last)
	}
}

func TestDraw_BusError(t *testing.T) {
	bus := &fakeBus{}
	dev, err := New(bus, 128, 64)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	bus.err = errors.New("nack")
	if err := dev.Draw(image.NewGray(dev.Bounds())); err == nil {
		t.Fatal("expected error from failing bus")
	}
}
