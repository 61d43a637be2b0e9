// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package control runs the crop monitoring loop: move, measure height,
// compare against the growth model and decide how much to sample.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/relabs-tech/crop_monitor/internal/classify"
	"github.com/relabs-tech/crop_monitor/internal/env"
	"github.com/relabs-tech/crop_monitor/internal/growth"
	"github.com/relabs-tech/crop_monitor/internal/schedule"
)

// Settings holds the tunable parameters of the loop.
type Settings struct {
	GroundReferenceCm   float64
	HeightGuardCm       float64 // heights at or below this are not measurable yet
	BehindScheduleDelay time.Duration
	IterationDelay      time.Duration
	SensorTimeout       time.Duration // 0 waits forever
	ActuatorTimeout     time.Duration // bounds one move; 0 waits forever
	TempFaultValues     []float64     // readings equal to one of these are sensor faults
	Classifier          classify.Classifier
}

// DefaultSettings returns the field robot's defaults.
func DefaultSettings() Settings {
	return Settings{
		GroundReferenceCm:   100,
		HeightGuardCm:       1,
		BehindScheduleDelay: 10 * time.Second,
		IterationDelay:      100 * time.Millisecond,
		TempFaultValues:     []float64{-127, 85},
		Classifier:          classify.Default(),
	}
}

// Outcome is the branch a single iteration took.
type Outcome int

const (
	OutcomeAborted Outcome = iota
	OutcomeNotMeasurable
	OutcomeBehindSchedule
	OutcomeIdle
	OutcomeDutySweep
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNotMeasurable:
		return "not_measurable"
	case OutcomeBehindSchedule:
		return "behind_schedule"
	case OutcomeIdle:
		return "idle"
	case OutcomeDutySweep:
		return "duty_sweep"
	}
	return "aborted"
}

// Loop owns the growth tracker and duty cycle for one robot.
type Loop struct {
	hw       Collaborators
	settings Settings
	growth   *growth.Tracker
	duty     *schedule.DutyCycle
	log      *slog.Logger
	hwGate   gate

	sleep func(ctx context.Context, d time.Duration) error
}

// New builds a loop. A nil logger discards logs.
func New(hw Collaborators, settings Settings, tracker *growth.Tracker, duty *schedule.DutyCycle, log *slog.Logger) (*Loop, error) {
	if err := hw.validate(); err != nil {
		return nil, fmt.Errorf("control: %w", err)
	}
	if tracker == nil {
		return nil, errors.New("control: growth tracker is required")
	}
	if duty == nil {
		return nil, errors.New("control: duty cycle is required")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Loop{
		hw:       hw,
		settings: settings,
		growth:   tracker,
		duty:     duty,
		log:      log,
		hwGate:   newGate(),
		sleep:    sleepCtx,
	}, nil
}

// Growth exposes the tracker so day-advance sources can reach it.
func (l *Loop) Growth() *growth.Tracker { return l.growth }

// Run calls RunIteration until ctx is done. A failed iteration is logged
// and reported; the loop keeps going. Every iteration is followed by
// IterationDelay.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info("control loop started",
		"ground_ref_cm", l.settings.GroundReferenceCm,
		"elapsed_days", l.growth.ElapsedDays(),
		"duty_threshold", l.duty.Threshold(),
		"sensor_timeout", l.settings.SensorTimeout,
		"actuator_timeout", l.settings.ActuatorTimeout,
	)

	for {
		outcome, err := l.RunIteration(ctx)
		if ctx.Err() != nil {
			l.log.Info("control loop stopped", "reason", ctx.Err())
			return ctx.Err()
		}
		if err != nil {
			l.log.Error("iteration aborted", "err", err)
			l.hw.Reporter.Report("Iteration aborted: " + err.Error())
		} else {
			l.log.Debug("iteration done", "outcome", outcome)
		}

		if err := l.sleep(ctx, l.settings.IterationDelay); err != nil {
			l.log.Info("control loop stopped", "reason", err)
			return err
		}
	}
}

// RunIteration performs one move-measure-decide cycle.
func (l *Loop) RunIteration(ctx context.Context) (Outcome, error) {
	l.hw.Reporter.Report("Moving")
	if _, err := await(ctx, l.hwGate, l.settings.ActuatorTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, l.hw.Actuator.AdvanceOneRevolution(ctx)
	}); err != nil {
		return OutcomeAborted, fmt.Errorf("actuator: %w", err)
	}

	distance, err := await(ctx, l.hwGate, l.settings.SensorTimeout, l.hw.Distance.MeasureDistanceCm)
	if err != nil {
		return OutcomeAborted, fmt.Errorf("distance sensor: %w", err)
	}
	h := env.Height{GroundReferenceCm: l.settings.GroundReferenceCm, MeasuredDistanceCm: distance}
	height := h.CurrentHeightCm()
	l.hw.Reporter.Report(fmt.Sprintf("Height: %.2f cm", height))

	if height <= l.settings.HeightGuardCm {
		l.log.Debug("crop not measurable", "height_cm", height, "guard_cm", l.settings.HeightGuardCm)
		return OutcomeNotMeasurable, nil
	}

	expected := l.growth.ExpectedHeightCm()
	l.log.Debug("growth check", "height_cm", height, "expected_cm", expected, "elapsed_days", l.growth.ElapsedDays())

	if height < expected {
		if err := l.PerformFullSweep(ctx, true); err != nil {
			return OutcomeAborted, err
		}
		if err := l.sleep(ctx, l.settings.BehindScheduleDelay); err != nil {
			return OutcomeAborted, err
		}
		return OutcomeBehindSchedule, nil
	}

	if l.duty.Tick() == schedule.SweepDue {
		if err := l.PerformFullSweep(ctx, false); err != nil {
			return OutcomeAborted, err
		}
		return OutcomeDutySweep, nil
	}

	l.hw.Reporter.Report("Crop size is optimum")
	return OutcomeIdle, nil
}
