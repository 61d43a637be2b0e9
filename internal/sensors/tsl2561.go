// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"periph.io/x/conn/v3/i2c"
)

// TSL2561 command/register map (datasheet TAOS059).
const (
	tslCmd      = 0x80
	tslCmdWord  = 0x20
	tslControl  = 0x00
	tslTiming   = 0x01
	tslData0Low = 0x0C
	tslData1Low = 0x0E

	tslPowerOn     = 0x03
	tslInteg13ms   = 0x00
	tslGain1x      = 0x00
	tslClipping13  = 4900
	tslIntegration = 14 * time.Millisecond

	// counts at 13.7 ms / 1x gain scaled to the 402 ms / 16x reference
	tslScale13ms1x = 16 * 322.0 / 11.0
)

// TSL2561 is a light-to-digital converter used for lux readings.
type TSL2561 struct {
	dev   i2c.Dev
	sleep func(time.Duration)
}

// NewTSL2561 powers up the sensor at addr with the fastest integration
// time, which keeps overloads rare in full sun.
func NewTSL2561(bus i2c.Bus, addr uint16) (*TSL2561, error) {
	t := &TSL2561{dev: i2c.Dev{Bus: bus, Addr: addr}, sleep: time.Sleep}
	if err := t.dev.Tx([]byte{tslCmd | tslControl, tslPowerOn}, nil); err != nil {
		return nil, fmt.Errorf("tsl2561: power on: %w", err)
	}
	if err := t.dev.Tx([]byte{tslCmd | tslTiming, tslInteg13ms | tslGain1x}, nil); err != nil {
		return nil, fmt.Errorf("tsl2561: set timing: %w", err)
	}
	return t, nil
}

// ReadLux waits one integration cycle and reads both channels. ok is
// false when either channel clipped.
func (t *TSL2561) ReadLux(ctx context.Context) (float64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	t.sleep(tslIntegration)

	ch0, err := t.readWord(tslData0Low)
	if err != nil {
		return 0, false, fmt.Errorf("tsl2561: channel 0: %w", err)
	}
	ch1, err := t.readWord(tslData1Low)
	if err != nil {
		return 0, false, fmt.Errorf("tsl2561: channel 1: %w", err)
	}

	if ch0 > tslClipping13 || ch1 > tslClipping13 {
		return 0, false, nil
	}
	return LuxFromChannels(ch0, ch1, tslScale13ms1x), true, nil
}

func (t *TSL2561) readWord(reg byte) (uint16, error) {
	r := make([]byte, 2)
	if err := t.dev.Tx([]byte{tslCmd | tslCmdWord | reg}, r); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(r), nil
}

// LuxFromChannels applies the T/FN/CL package lux approximation to raw
// broadband (ch0) and infrared (ch1) counts. scale maps the counts to the
// 402 ms / 16x reference the coefficients are given for.
func LuxFromChannels(ch0, ch1 uint16, scale float64) float64 {
	if ch0 == 0 {
		return 0
	}
	c0 := float64(ch0)
	c1 := float64(ch1)
	ratio := c1 / c0

	var lux float64
	switch {
	case ratio <= 0.50:
		lux = 0.0304*c0 - 0.062*c0*math.Pow(ratio, 1.4)
	case ratio <= 0.61:
		lux = 0.0224*c0 - 0.031*c1
	case ratio <= 0.80:
		lux = 0.0128*c0 - 0.0153*c1
	case ratio <= 1.30:
		lux = 0.00146*c0 - 0.00112*c1
	default:
		lux = 0
	}
	if lux < 0 {
		lux = 0
	}
	return lux * scale
}
