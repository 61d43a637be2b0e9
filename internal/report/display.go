// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package report

import (
	"fmt"
	"image"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

const (
	lineHeight    = 13 // basicfont.Face7x13
	charWidth     = 7
	displayWidth  = 128
	displayHeight = 64
)

// drawer is the part of *ssd1306.Dev used here.
type drawer interface {
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
	Bounds() image.Rectangle
}

// Display keeps the last few lines on a 128x64 SSD1306 OLED, newest at
// the bottom.
type Display struct {
	mu       sync.Mutex
	dev      drawer
	lines    []string
	maxLines int
	log      *slog.Logger
}

// OpenDisplay initializes the panel on bus. The driver always talks to
// address 0x3C.
func OpenDisplay(bus i2c.Bus, maxLines int, log *slog.Logger) (*Display, error) {
	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("display: init: %w", err)
	}
	log.Info("display initialized", "lines", maxLines)
	d := newDisplay(dev, maxLines, log)
	d.Report("Crop monitor")
	return d, nil
}

func newDisplay(dev drawer, maxLines int, log *slog.Logger) *Display {
	if fit := displayHeight / lineHeight; maxLines <= 0 || maxLines > fit {
		maxLines = fit
	}
	return &Display{dev: dev, maxLines: maxLines, log: log}
}

func (d *Display) Report(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.lines = append(d.lines, msg)
	if len(d.lines) > d.maxLines {
		d.lines = d.lines[len(d.lines)-d.maxLines:]
	}
	if err := d.dev.Draw(d.dev.Bounds(), renderLines(d.lines), image.Point{}); err != nil {
		d.log.Warn("display draw failed", "err", err)
	}
}

// snapshot returns a copy of what is on screen.
func (d *Display) snapshot() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.lines...)
}

// renderLines draws lines top to bottom, clipped to the panel width.
func renderLines(lines []string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayWidth, displayHeight))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	for i, line := range lines {
		// basicfont has no degree sign
		line = strings.ReplaceAll(line, "°", "")
		if r := []rune(line); len(r) > displayWidth/charWidth {
			line = string(r[:displayWidth/charWidth])
		}
		drawer.Dot = fixed.P(0, lineHeight*(i+1)-2)
		drawer.DrawString(line)
	}
	return img
}
