package ssd1306

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/davecheney/i2c"
)

// Control bytes prefixed to every I2C write
const (
	controlCommand = 0x00
	controlData    = 0x40
)

// Commands used by this driver
const (
	cmdDisplayOff       = 0xAE
	cmdDisplayOn        = 0xAF
	cmdSetClockDiv      = 0xD5
	cmdSetMultiplex     = 0xA8
	cmdSetOffset        = 0xD3
	cmdSetStartLine     = 0x40
	cmdChargePump       = 0x8D
	cmdMemoryMode       = 0x20
	cmdSegRemap         = 0xA1
	cmdComScanDec       = 0xC8
	cmdSetComPins       = 0xDA
	cmdSetContrast      = 0x81
	cmdSetPrecharge     = 0xD9
	cmdSetVComDetect    = 0xDB
	cmdDisplayAllOnRes  = 0xA4
	cmdNormalDisplay    = 0xA6
	cmdColumnAddr       = 0x21
	cmdPageAddr         = 0x22
	cmdDeactivateScroll = 0x2E
)

// chunk is the data payload size per I2C write. Many i2c-dev drivers cap
// transfers well below a full frame.
const chunk = 32

// Device is one SSD1306 panel
type Device struct {
	bus    io.WriteCloser
	width  int
	height int
	buf    []byte
}

// Open opens the panel at addr on /dev/i2c-<bus> and initializes it
func Open(bus int, addr uint8, width, height int) (*Device, error) {
	conn, err := i2c.New(addr, bus)
	if err != nil {
		return nil, fmt.Errorf("failed to open i2c bus %d addr %#x: %w", bus, addr, err)
	}
	dev, err := New(conn, width, height)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return dev, nil
}

// New initializes a panel on an already open bus
func New(bus io.WriteCloser, width, height int) (*Device, error) {
	if width <= 0 || width > 128 || (height != 32 && height != 64) {
		return nil, fmt.Errorf("unsupported panel size %dx%d", width, height)
	}
	d := &Device{
		bus:    bus,
		width:  width,
		height: height,
		buf:    make([]byte, width*height/8),
	}
	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Device) init() error {
	comPins := byte(0x12)
	if d.height == 32 {
		comPins = 0x02
	}
	return d.command(
		cmdDisplayOff,
		cmdSetClockDiv, 0x80,
		cmdSetMultiplex, byte(d.height-1),
		cmdSetOffset, 0x00,
		cmdSetStartLine|0x00,
		cmdChargePump, 0x14,
		cmdMemoryMode, 0x00, // horizontal addressing
		cmdSegRemap,
		cmdComScanDec,
		cmdSetComPins, comPins,
		cmdSetContrast, 0xCF,
		cmdSetPrecharge, 0xF1,
		cmdSetVComDetect, 0x40,
		cmdDeactivateScroll,
		cmdDisplayAllOnRes,
		cmdNormalDisplay,
		cmdDisplayOn,
	)
}

// Bounds returns the panel size
func (d *Device) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.width, d.height)
}

// Draw converts img and sends it to the panel
func (d *Device) Draw(img image.Image) error {
	Pack(d.buf, img, d.width, d.height)
	return d.flush()
}

// Clear blanks the panel
func (d *Device) Clear() error {
	for i := range d.buf {
		d.buf[i] = 0
	}
	return d.flush()
}

// Off turns the panel off without clearing its memory
func (d *Device) Off() error {
	return d.command(cmdDisplayOff)
}

// Close blanks the panel, turns it off, and closes the bus
func (d *Device) Close() error {
	clearErr := d.Clear()
	offErr := d.Off()
	if err := d.bus.Close(); err != nil {
		return err
	}
	if clearErr != nil {
		return clearErr
	}
	return offErr
}

func (d *Device) flush() error {
	if err := d.command(
		cmdColumnAddr, 0, byte(d.width-1),
		cmdPageAddr, 0, byte(d.height/8-1),
	); err != nil {
		return err
	}

	msg := make([]byte, chunk+1)
	msg[0] = controlData
	for off := 0; off < len(d.buf); off += chunk {
		end := off + chunk
		if end > len(d.buf) {
			end = len(d.buf)
		}
		n := copy(msg[1:], d.buf[off:end])
		if _, err := d.bus.Write(msg[:n+1]); err != nil {
			return fmt.Errorf("failed to write frame: %w", err)
		}
	}
	return nil
}

func (d *Device) command(cmds ...byte) error {
	msg := make([]byte, 0, len(cmds)+1)
	msg = append(msg, controlCommand)
	msg = append(msg, cmds...)
	if _, err := d.bus.Write(msg); err != nil {
		return fmt.Errorf("failed to send command: %w", err)
	}
	return nil
}

// Pack converts img into the controller's page layout in dst, which must
// hold width*height/8 bytes. Pixels with luminance of at least 50% are lit.
func Pack(dst []byte, img image.Image, width, height int) {
	for i := range dst {
		dst[i] = 0
	}
	b := img.Bounds()
	for y := 0; y < height && y < b.Dy(); y++ {
		for x := 0; x < width && x < b.Dx(); x++ {
			g := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			if g.Y >= 0x80 {
				dst[x+(y/8)*width] |= 1 << uint(y%8)
			}
		}
	}
}
