package render

import (
	"fmt"
	"image"

	"github.com/jfmyers9/mpdpanel/pkg/ssd1306"
)

// OLED presents frames on an SSD1306 panel
type OLED struct {
	dev *ssd1306.Device
}

// OpenOLED opens the panel at addr on the given I2C bus
func OpenOLED(bus int, addr uint8, width, height int) (*OLED, error) {
	dev, err := ssd1306.Open(bus, addr, width, height)
	if err != nil {
		return nil, &ResourceError{Kind: "display", Path: fmt.Sprintf("i2c-%d@%#x", bus, addr), Err: err}
	}
	return &OLED{dev: dev}, nil
}

func (o *OLED) Present(frame *image.Gray) error {
	return o.dev.Draw(frame)
}

// Close blanks and powers down the panel
func (o *OLED) Close() error {
	return o.dev.Close()
}

// Discard is a Presenter that drops frames
type Discard struct{}

func (Discard) Present(*image.Gray) error { return nil }
func (Discard) Close() error              { return nil }
