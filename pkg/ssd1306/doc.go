// Package ssd1306 drives SSD1306 monochrome OLED panels over I2C.
//
// # Overview
//
// The controller stores the picture in pages: each page is eight pixel
// rows, and each byte of a page is one column of those eight rows with the
// least significant bit on top. This package converts Go images into that
// layout and streams them to the panel in horizontal addressing mode.
//
// # Installation
//
//	go get github.com/jfmyers9/mpdpanel/pkg/ssd1306
//
// # Quick Start
//
// Open the panel on I2C bus 1 at the usual address:
//
//	import "github.com/jfmyers9/mpdpanel/pkg/ssd1306"
//
//	dev, err := ssd1306.Open(1, 0x3C, 128, 64)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dev.Close()
//
// Then draw any image.Image. Pixels brighter than mid-grey are lit:
//
//	img := image.NewGray(image.Rect(0, 0, 128, 64))
//	// ... draw ...
//	if err := dev.Draw(img); err != nil {
//	    log.Fatal(err)
//	}
//
// # Buses
//
// Open uses the Linux i2c-dev interface. Any io.WriteCloser that accepts
// one I2C write per call can be passed to New instead, which is how the
// tests run without hardware.
package ssd1306
