package env

import (
	"errors"
	"fmt"
)

// ErrSensorFault marks a reading that is a known sensor failure value
// rather than a valid measurement.
var ErrSensorFault = errors.New("sensor fault")

// FaultError reports which sensor produced a fault value and why.
type FaultError struct {
	Sensor string
	Reason string
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("%s sensor fault: %s", e.Sensor, e.Reason)
}

func (e *FaultError) Unwrap() error {
	return ErrSensorFault
}

// Fault builds a FaultError for sensor.
func Fault(sensor, format string, args ...any) error {
	return &FaultError{Sensor: sensor, Reason: fmt.Sprintf(format, args...)}
}
