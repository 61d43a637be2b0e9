// Package schedule throttles full sensor sweeps while the crop is on track.
package schedule

// DefaultThreshold is the number of idle ticks allowed between sweeps.
const DefaultThreshold = 10

// Decision is the outcome of a single Tick.
type Decision int

const (
	// Idle means skip the sweep and only report status.
	Idle Decision = iota
	// SweepDue means run a full sweep now.
	SweepDue
)

func (d Decision) String() string {
	if d == SweepDue {
		return "sweep_due"
	}
	return "idle"
}

// DutyCycle counts on-track iterations. Each Tick increments the count;
// once the count exceeds the threshold the tick is SweepDue and the count
// returns to zero. With threshold 10, ticks 1-10 are Idle and tick 11 is
// SweepDue.
//
// Not safe for concurrent use; it belongs to the control loop.
type DutyCycle struct {
	threshold int
	count     int
}

// NewDutyCycle returns a counter at zero. Negative thresholds are clamped
// to zero, which makes every tick a sweep.
func NewDutyCycle(threshold int) *DutyCycle {
	if threshold < 0 {
		threshold = 0
	}
	return &DutyCycle{threshold: threshold}
}

// Tick advances the counter by one on-track iteration.
func (d *DutyCycle) Tick() Decision {
	d.count++
	if d.count > d.threshold {
		d.count = 0
		return SweepDue
	}
	return Idle
}

// Count returns the current count.
func (d *DutyCycle) Count() int { return d.count }

// Threshold returns the configured threshold.
func (d *DutyCycle) Threshold() int { return d.threshold }

// Reset puts the counter back to zero.
func (d *DutyCycle) Reset() { d.count = 0 }
