package sensors

import (
	"context"
	"fmt"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"

	"github.com/relabs-tech/crop_monitor/internal/env"
)

const (
	adsFullScale  = 0x7FFF
	adsMaxVoltage = 4096 * physic.MilliVolt
	adsRate       = 128 * physic.Hertz
)

// adcPin is the part of ads1x15.PinADC the gas reader uses.
type adcPin interface {
	Read() (analog.Sample, error)
	Halt() error
}

// ADS1115 reads the analog gas sensor through a 16-bit I2C ADC.
type ADS1115 struct {
	pin     adcPin
	channel int
}

// NewADS1115 binds the ADC at addr on bus, sampling single-ended
// channel 0-3 against ground.
func NewADS1115(bus i2c.Bus, addr uint16, channel int) (*ADS1115, error) {
	if channel < 0 || channel > 3 {
		return nil, fmt.Errorf("ads1115: channel must be 0-3, got %d", channel)
	}
	dev, err := ads1x15.NewADS1115(bus, &ads1x15.Opts{I2cAddress: addr})
	if err != nil {
		return nil, fmt.Errorf("ads1115: init 0x%02X: %w", addr, err)
	}
	pin, err := dev.PinForChannel(ads1x15.Channel0+ads1x15.Channel(channel), adsMaxVoltage, adsRate, ads1x15.BestQuality)
	if err != nil {
		return nil, fmt.Errorf("ads1115: channel %d: %w", channel, err)
	}
	return &ADS1115{pin: pin, channel: channel}, nil
}

// ReadGasLevel runs one conversion and returns the raw count. A reading
// pinned at full scale means the sensor output is shorted or floating.
func (a *ADS1115) ReadGasLevel(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s, err := a.pin.Read()
	if err != nil {
		return 0, fmt.Errorf("ads1115: read channel %d: %w", a.channel, err)
	}
	if s.Raw >= adsFullScale {
		return 0, env.Fault("gas", "ADC channel %d at full scale", a.channel)
	}
	if s.Raw < 0 {
		return 0, nil
	}
	return float64(s.Raw), nil
}

// Close stops the channel.
func (a *ADS1115) Close() error {
	return a.pin.Halt()
}
