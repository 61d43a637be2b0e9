// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"periph.io/x/conn/v3/i2c"

	"github.com/relabs-tech/crop_monitor/internal/classify"
	"github.com/relabs-tech/crop_monitor/internal/config"
	"github.com/relabs-tech/crop_monitor/internal/control"
	"github.com/relabs-tech/crop_monitor/internal/growth"
	"github.com/relabs-tech/crop_monitor/internal/report"
	"github.com/relabs-tech/crop_monitor/internal/schedule"
)

// settingsFrom maps configuration onto loop settings.
func settingsFrom(cfg *config.Config) control.Settings {
	return control.Settings{
		GroundReferenceCm:   cfg.GroundReferenceCm,
		HeightGuardCm:       cfg.HeightGuardCm,
		BehindScheduleDelay: cfg.BehindScheduleDelay(),
		IterationDelay:      cfg.IterationDelay(),
		SensorTimeout:       cfg.SensorTimeout(),
		ActuatorTimeout:     cfg.ActuatorTimeout(),
		TempFaultValues:     cfg.TempFaultValues,
		Classifier: classify.Classifier{
			TempLowC:     cfg.TempLowC,
			TempHighC:    cfg.TempHighC,
			LightLowLux:  cfg.LightLowLux,
			LightGoodLux: cfg.LightGoodLux,
		},
	}
}

// newLoop builds the growth tracker, duty cycle and control loop.
func newLoop(cfg *config.Config, hw control.Collaborators, log *slog.Logger) (*control.Loop, error) {
	tracker, err := growth.NewTracker(cfg.GrowthRateCmPerDay, cfg.ElapsedDays)
	if err != nil {
		return nil, err
	}
	duty := schedule.NewDutyCycle(cfg.DutyCycleThreshold)
	return control.New(hw, settingsFrom(cfg), tracker, duty, log)
}

// session holds what a running monitor must release on shutdown.
type session struct {
	log     *slog.Logger
	client  mqtt.Client
	closers []io.Closer
}

func (s *session) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			s.log.Warn("close failed", "err", err)
		}
	}
	if s.client != nil {
		s.client.Disconnect(250)
	}
}

// connect opens the broker connection. It is required for the mqtt sink
// and optional for day commands alone.
func (s *session) connect(cfg *config.Config) error {
	wantSink := cfg.HasSink(config.SinkMQTT)
	if !wantSink && cfg.DayAdvanceTopic == "" {
		return nil
	}
	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientID, s.log)
	if err != nil {
		if wantSink {
			return err
		}
		s.log.Warn("MQTT unavailable, remote day advance disabled", "err", err)
		return nil
	}
	s.client = client
	return nil
}

// buildSinks assembles the configured report sinks. bus may be nil when
// no I2C bus is available, in which case the display sink is skipped.
func (s *session) buildSinks(cfg *config.Config, bus i2c.Bus) (*report.Multi, error) {
	sinks := report.NewMulti()
	for _, name := range cfg.ReportSinks {
		switch name {
		case config.SinkLog:
			sinks.Add(report.NewLog(s.log.With("src", "report")))
		case config.SinkSerial:
			port, err := report.OpenSerial(cfg.SerialPort, cfg.SerialBaudRate, s.log)
			if err != nil {
				return nil, err
			}
			s.closers = append(s.closers, port)
			sinks.Add(port)
		case config.SinkMQTT:
			if s.client == nil {
				return nil, errors.New("mqtt sink configured without a broker connection")
			}
			sinks.Add(report.NewMQTT(s.client, cfg.ReportTopic, s.log))
		case config.SinkDisplay:
			if bus == nil {
				s.log.Warn("no I2C bus, display sink skipped")
				continue
			}
			display, err := report.OpenDisplay(bus, cfg.DisplayLines, s.log)
			if err != nil {
				return nil, err
			}
			sinks.Add(display)
		default:
			return nil, fmt.Errorf("unknown report sink %q", name)
		}
	}
	if sinks.Len() == 0 {
		s.log.Warn("no report sink active, status lines are dropped")
	} else {
		s.log.Info("report sinks ready", "active", sinks.Len(), "configured", len(cfg.ReportSinks))
	}
	return sinks, nil
}

// run drives loop until SIGINT/SIGTERM, feeding day commands from MQTT
// and the optional ticker.
func (s *session) run(cfg *config.Config, loop *control.Loop) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracker := loop.Growth()
	if s.client != nil && cfg.DayAdvanceTopic != "" {
		if err := subscribeDayAdvance(s.client, cfg.DayAdvanceTopic, tracker, s.log); err != nil {
			return err
		}
	}
	if interval := cfg.DayAdvanceInterval(); interval > 0 {
		go runDayTicker(ctx, tracker, interval, s.log)
	}

	s.log.Info("monitor running",
		"days", tracker.ElapsedDays(),
		"expected_cm", tracker.ExpectedHeightCm(),
		"sinks", cfg.ReportSinks)

	err := loop.Run(ctx)
	if errors.Is(err, context.Canceled) {
		s.log.Info("shutting down")
		return nil
	}
	return err
}
