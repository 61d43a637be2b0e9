package app

import (
	"sync"

	"github.com/relabs-tech/crop_monitor/internal/control"
	"github.com/relabs-tech/crop_monitor/internal/sensors"
)

type lines struct {
	mu  sync.Mutex
	got []string
}

func (l *lines) Report(msg string) {
	l.mu.Lock()
	l.got = append(l.got, msg)
	l.mu.Unlock()
}

func collaboratorsFor(robot *sensors.MockRobot, r control.Reporter) control.Collaborators {
	return control.Collaborators{
		Actuator:    robot,
		Distance:    robot,
		Temperature: robot,
		Gas:         robot,
		Light:       robot,
		Reporter:    r,
	}
}
