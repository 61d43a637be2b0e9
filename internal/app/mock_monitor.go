// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"time"

	"github.com/relabs-tech/crop_monitor/internal/config"
	"github.com/relabs-tech/crop_monitor/internal/control"
	"github.com/relabs-tech/crop_monitor/internal/sensors"
)

// RunMockMonitor runs the control loop against simulated hardware.
// Serial and MQTT sinks still work; the display sink needs a real bus.
func RunMockMonitor(seed uint64) error {
	cfg := config.Get()
	log := NewLogger(cfg.LogLevel)

	robot := sensors.NewMockRobot(cfg.GroundReferenceCm, seed)

	s := &session{log: log}
	defer s.close()

	if err := s.connect(cfg); err != nil {
		return err
	}
	sinks, err := s.buildSinks(cfg, nil)
	if err != nil {
		return err
	}

	loop, err := newLoop(cfg, control.Collaborators{
		Actuator:    robot,
		Distance:    robot,
		Temperature: robot,
		Gas:         robot,
		Light:       robot,
		Reporter:    sinks,
	}, log)
	if err != nil {
		return err
	}

	log.Info("mock monitor started", "seed", seed, "move", robot.MoveDuration.Round(time.Millisecond))
	return s.run(cfg, loop)
}
