// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package report delivers the loop's status lines to the configured
// outputs: the log, a serial console, an MQTT topic and an OLED panel.
package report

import (
	"log/slog"
	"sync"
)

// Sink is anything that accepts status lines.
type Sink interface {
	Report(msg string)
}

// Log writes each line to a slog logger at info level.
type Log struct {
	log *slog.Logger
}

// NewLog returns a sink for log.
func NewLog(log *slog.Logger) *Log {
	return &Log{log: log}
}

func (l *Log) Report(msg string) {
	l.log.Info(msg)
}

// Multi fans each line out to every sink in order.
type Multi struct {
	mu    sync.Mutex
	sinks []Sink
}

// NewMulti groups sinks; nil entries are skipped.
func NewMulti(sinks ...Sink) *Multi {
	m := &Multi{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Add appends a sink.
func (m *Multi) Add(s Sink) {
	m.mu.Lock()
	m.sinks = append(m.sinks, s)
	m.mu.Unlock()
}

func (m *Multi) Report(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sinks {
		s.Report(msg)
	}
}

// Len returns the number of sinks.
func (m *Multi) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sinks)
}
