package control

import (
	"context"
	"errors"
	"fmt"

	"github.com/relabs-tech/crop_monitor/internal/env"
)

// PerformFullSweep reads gas, temperature and light and reports them.
// With classified set the temperature and light bands are reported too.
//
// Sensor faults are reported and the sweep moves on to the next sensor.
// Any other driver error aborts the sweep and is returned.
func (l *Loop) PerformFullSweep(ctx context.Context, classified bool) error {
	if err := l.sweepGas(ctx); err != nil {
		return err
	}
	if err := l.sweepTemperature(ctx, classified); err != nil {
		return err
	}
	return l.sweepLight(ctx, classified)
}

func (l *Loop) sweepGas(ctx context.Context) error {
	level, err := await(ctx, l.hwGate, l.settings.SensorTimeout, l.hw.Gas.ReadGasLevel)
	if err != nil {
		return l.degraded("gas sensor", err)
	}
	g := env.Gas{Level: level}
	l.hw.Reporter.Report(fmt.Sprintf("%.2f ppm", g.Level))
	return nil
}

func (l *Loop) sweepTemperature(ctx context.Context, classified bool) error {
	celsius, err := await(ctx, l.hwGate, l.settings.SensorTimeout, l.hw.Temperature.ReadTemperatureC)
	if err == nil && l.isTempFault(celsius) {
		err = env.Fault("temperature", "%.2f °C is a fault value", celsius)
	}
	if err != nil {
		return l.degraded("temperature sensor", err)
	}

	t := env.Temperature{Celsius: celsius}
	l.hw.Reporter.Report(fmt.Sprintf("Temperature: %.2f °C", t.Celsius))
	if classified {
		band := l.settings.Classifier.TemperatureBand(t.Celsius)
		l.log.Debug("temperature classified", "temp_c", t.Celsius, "band", band)
		l.hw.Reporter.Report(band.Message())
	}
	return nil
}

func (l *Loop) sweepLight(ctx context.Context, classified bool) error {
	light, err := await(ctx, l.hwGate, l.settings.SensorTimeout, func(ctx context.Context) (env.Light, error) {
		lux, ok, err := l.hw.Light.ReadLux(ctx)
		return env.LightOf(lux, ok), err
	})
	if err != nil {
		return l.degraded("light sensor", err)
	}

	if !light.Valid {
		l.hw.Reporter.Report("Sensor overload")
		return nil
	}
	l.hw.Reporter.Report(fmt.Sprintf("%.2f lux", light.Lux))
	if classified {
		band := l.settings.Classifier.LightBand(light.Lux)
		l.log.Debug("light classified", "lux", light.Lux, "band", band)
		l.hw.Reporter.Report(band.Message())
	}
	return nil
}

// degraded reports sensor faults and swallows them; other errors are
// wrapped and returned.
func (l *Loop) degraded(what string, err error) error {
	if errors.Is(err, env.ErrSensorFault) {
		l.log.Warn("sensor fault", "sensor", what, "err", err)
		l.hw.Reporter.Report(err.Error())
		return nil
	}
	return fmt.Errorf("%s: %w", what, err)
}

func (l *Loop) isTempFault(celsius float64) bool {
	for _, v := range l.settings.TempFaultValues {
		if celsius == v {
			return true
		}
	}
	return false
}
