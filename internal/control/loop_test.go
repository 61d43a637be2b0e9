package control

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/crop_monitor/internal/env"
	"github.com/relabs-tech/crop_monitor/internal/growth"
	"github.com/relabs-tech/crop_monitor/internal/schedule"
)

// fakeRobot implements every collaborator with fixed readings and counts
// how often each was called.
type fakeRobot struct {
	distance    float64
	distanceErr error
	tempC       float64
	tempErr     error
	gas         float64
	gasErr      error
	lux         float64
	luxOK       bool
	luxErr      error
	actuateErr  error

	moves, distanceReads, tempReads, gasReads, lightReads int
	lines                                                 []string
}

func (f *fakeRobot) AdvanceOneRevolution(context.Context) error {
	f.moves++
	return f.actuateErr
}

func (f *fakeRobot) MeasureDistanceCm(context.Context) (float64, error) {
	f.distanceReads++
	return f.distance, f.distanceErr
}

func (f *fakeRobot) ReadTemperatureC(context.Context) (float64, error) {
	f.tempReads++
	return f.tempC, f.tempErr
}

func (f *fakeRobot) ReadGasLevel(context.Context) (float64, error) {
	f.gasReads++
	return f.gas, f.gasErr
}

func (f *fakeRobot) ReadLux(context.Context) (float64, bool, error) {
	f.lightReads++
	return f.lux, f.luxOK, f.luxErr
}

func (f *fakeRobot) Report(msg string) {
	f.lines = append(f.lines, msg)
}

func (f *fakeRobot) collaborators() Collaborators {
	return Collaborators{Actuator: f, Distance: f, Temperature: f, Gas: f, Light: f, Reporter: f}
}

type sleepRecorder struct {
	calls []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.calls = append(s.calls, d)
	return ctx.Err()
}

func newTestLoop(t *testing.T, f *fakeRobot, days int) (*Loop, *sleepRecorder) {
	t.Helper()
	tr, err := growth.NewTracker(growth.DefaultRateCmPerDay, days)
	require.NoError(t, err)

	l, err := New(f.collaborators(), DefaultSettings(), tr, schedule.NewDutyCycle(schedule.DefaultThreshold), nil)
	require.NoError(t, err)

	rec := &sleepRecorder{}
	l.sleep = rec.sleep
	return l, rec
}

func TestNew_RequiresCollaborators(t *testing.T) {
	tr, _ := growth.NewTracker(growth.DefaultRateCmPerDay, 0)
	_, err := New(Collaborators{}, DefaultSettings(), tr, schedule.NewDutyCycle(10), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "actuator is required")
	assert.Contains(t, err.Error(), "reporter is required")

	f := &fakeRobot{}
	_, err = New(f.collaborators(), DefaultSettings(), nil, schedule.NewDutyCycle(10), nil)
	assert.Error(t, err)
}

func TestRunIteration_HeightGuard(t *testing.T) {
	f := &fakeRobot{distance: 99}
	l, rec := newTestLoop(t, f, 5)

	outcome, err := l.RunIteration(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeNotMeasurable, outcome)
	assert.Equal(t, []string{"Moving", "Height: 1.00 cm"}, f.lines)
	assert.Equal(t, 1, f.moves)
	assert.Zero(t, f.gasReads+f.tempReads+f.lightReads)
	assert.Empty(t, rec.calls)
	assert.Equal(t, 0, l.duty.Count())
}

func TestRunIteration_BehindSchedule(t *testing.T) {
	f := &fakeRobot{distance: 95, tempC: 22.5, gas: 312, lux: 3000, luxOK: true}
	l, rec := newTestLoop(t, f, 5)

	outcome, err := l.RunIteration(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeBehindSchedule, outcome)
	assert.Equal(t, []string{
		"Moving",
		"Height: 5.00 cm",
		"312.00 ppm",
		"Temperature: 22.50 °C",
		"Temperature is optimum",
		"3000.00 lux",
		"Moderate sunlight (40% of midday sunlight)",
	}, f.lines)
	assert.Equal(t, []time.Duration{10 * time.Second}, rec.calls)
	assert.Equal(t, 0, l.duty.Count(), "behind schedule does not touch the duty cycle")
}

func TestRunIteration_OnTrackDutyCycle(t *testing.T) {
	f := &fakeRobot{distance: 90, tempC: 19, gas: 100, lux: 5000, luxOK: true}
	l, rec := newTestLoop(t, f, 5)
	ctx := context.Background()

	for i := 1; i <= 10; i++ {
		f.lines = nil
		outcome, err := l.RunIteration(ctx)
		require.NoError(t, err)
		assert.Equal(t, OutcomeIdle, outcome, "iteration %d", i)
		assert.Equal(t, []string{"Moving", "Height: 10.00 cm", "Crop size is optimum"}, f.lines)
	}
	assert.Zero(t, f.gasReads+f.tempReads+f.lightReads)
	assert.Equal(t, 10, l.duty.Count())

	f.lines = nil
	outcome, err := l.RunIteration(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDutySweep, outcome)
	assert.Equal(t, []string{
		"Moving",
		"Height: 10.00 cm",
		"100.00 ppm",
		"Temperature: 19.00 °C",
		"5000.00 lux",
	}, f.lines, "duty sweep reports raw values only")
	assert.Equal(t, 0, l.duty.Count())
	assert.Empty(t, rec.calls)
}

func TestRunIteration_EqualToExpectedIsOnTrack(t *testing.T) {
	f := &fakeRobot{distance: 91}
	l, _ := newTestLoop(t, f, 5)

	outcome, err := l.RunIteration(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeIdle, outcome)
}

func TestPerformFullSweep_LightOverload(t *testing.T) {
	f := &fakeRobot{tempC: 25, gas: 50, luxOK: false}
	l, _ := newTestLoop(t, f, 0)

	require.NoError(t, l.PerformFullSweep(context.Background(), true))

	assert.Equal(t, []string{
		"50.00 ppm",
		"Temperature: 25.00 °C",
		"Temperature is too high for optimum growth",
		"Sensor overload",
	}, f.lines)
	assert.Equal(t, 1, f.gasReads)
	assert.Equal(t, 1, f.tempReads)
	assert.Equal(t, 1, f.lightReads)
}

func TestPerformFullSweep_TemperatureSentinel(t *testing.T) {
	f := &fakeRobot{tempC: -127, gas: 50, lux: 1500, luxOK: true}
	l, _ := newTestLoop(t, f, 0)

	require.NoError(t, l.PerformFullSweep(context.Background(), true))

	assert.Equal(t, []string{
		"50.00 ppm",
		"temperature sensor fault: -127.00 °C is a fault value",
		"1500.00 lux",
		"Low light (below 40% of midday sunlight)",
	}, f.lines)
}

func TestPerformFullSweep_DriverFault(t *testing.T) {
	f := &fakeRobot{gasErr: env.Fault("gas", "ADC at full scale"), tempC: 21, lux: 4000, luxOK: true}
	l, _ := newTestLoop(t, f, 0)

	require.NoError(t, l.PerformFullSweep(context.Background(), true))

	assert.Equal(t, []string{
		"gas sensor fault: ADC at full scale",
		"Temperature: 21.00 °C",
		"Temperature is optimum",
		"4000.00 lux",
		"Good sunlight. Optimal for plants",
	}, f.lines)
}

func TestPerformFullSweep_HardErrorAborts(t *testing.T) {
	boom := errors.New("i2c: no ack")
	f := &fakeRobot{gas: 50, tempErr: boom, lux: 4000, luxOK: true}
	l, _ := newTestLoop(t, f, 0)

	err := l.PerformFullSweep(context.Background(), true)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "temperature sensor")
	assert.Equal(t, 0, f.lightReads)
}

func TestRunIteration_DistanceErrorAborts(t *testing.T) {
	f := &fakeRobot{distanceErr: errors.New("no timing signal detected")}
	l, _ := newTestLoop(t, f, 0)

	outcome, err := l.RunIteration(context.Background())
	require.Error(t, err)
	assert.Equal(t, OutcomeAborted, outcome)
	assert.Equal(t, []string{"Moving"}, f.lines)
}

func TestRunIteration_ActuatorErrorAborts(t *testing.T) {
	f := &fakeRobot{actuateErr: errors.New("gpio busy")}
	l, _ := newTestLoop(t, f, 0)

	_, err := l.RunIteration(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "actuator")
	assert.Equal(t, 0, f.distanceReads)
}

// blockingDistance ignores ctx and blocks until released.
type blockingDistance struct {
	release chan struct{}
}

func (b *blockingDistance) MeasureDistanceCm(context.Context) (float64, error) {
	<-b.release
	return 50, nil
}

func TestRunIteration_SensorTimeout(t *testing.T) {
	f := &fakeRobot{}
	blocker := &blockingDistance{release: make(chan struct{})}
	defer close(blocker.release)

	hw := f.collaborators()
	hw.Distance = blocker
	settings := DefaultSettings()
	settings.SensorTimeout = 20 * time.Millisecond

	tr, _ := growth.NewTracker(growth.DefaultRateCmPerDay, 0)
	l, err := New(hw, settings, tr, schedule.NewDutyCycle(10), nil)
	require.NoError(t, err)

	start := time.Now()
	_, err = l.RunIteration(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

// slowHardware moves instantly but takes 100ms per distance read and
// ignores ctx. It tracks how many hardware calls are in progress at once.
type slowHardware struct {
	inFlight, maxInFlight atomic.Int32
	reads                 atomic.Int32
}

func (s *slowHardware) enter() {
	n := s.inFlight.Add(1)
	for {
		m := s.maxInFlight.Load()
		if n <= m || s.maxInFlight.CompareAndSwap(m, n) {
			return
		}
	}
}

func (s *slowHardware) AdvanceOneRevolution(context.Context) error {
	s.enter()
	defer s.inFlight.Add(-1)
	return nil
}

func (s *slowHardware) MeasureDistanceCm(context.Context) (float64, error) {
	s.enter()
	defer s.inFlight.Add(-1)
	s.reads.Add(1)
	time.Sleep(100 * time.Millisecond)
	return 50, nil
}

func TestRunIteration_TimedOutCallNeverOverlaps(t *testing.T) {
	f := &fakeRobot{}
	slow := &slowHardware{}
	hw := f.collaborators()
	hw.Actuator = slow
	hw.Distance = slow
	settings := DefaultSettings()
	settings.SensorTimeout = 20 * time.Millisecond
	settings.ActuatorTimeout = 20 * time.Millisecond

	tr, _ := growth.NewTracker(growth.DefaultRateCmPerDay, 0)
	l, err := New(hw, settings, tr, schedule.NewDutyCycle(10), nil)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = l.RunIteration(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	for i := 0; i < 2; i++ {
		outcome, err := l.RunIteration(ctx)
		assert.Equal(t, OutcomeAborted, outcome)
		assert.ErrorIs(t, err, ErrDriverBusy)
		assert.Contains(t, err.Error(), "actuator")
	}

	assert.Eventually(t, func() bool { return slow.inFlight.Load() == 0 }, time.Second, 5*time.Millisecond)
	_, err = l.RunIteration(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrDriverBusy)

	assert.Eventually(t, func() bool { return slow.inFlight.Load() == 0 }, time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 1, slow.maxInFlight.Load())
	assert.EqualValues(t, 2, slow.reads.Load())
}

// failOnce fails the first distance read and succeeds afterwards.
type failOnce struct {
	calls int
}

func (f *failOnce) MeasureDistanceCm(context.Context) (float64, error) {
	f.calls++
	if f.calls == 1 {
		return 0, errors.New("echo lost")
	}
	return 99.5, nil
}

func TestRun_ContinuesAfterError(t *testing.T) {
	f := &fakeRobot{}
	dist := &failOnce{}
	hw := f.collaborators()
	hw.Distance = dist

	tr, _ := growth.NewTracker(growth.DefaultRateCmPerDay, 0)
	l, err := New(hw, DefaultSettings(), tr, schedule.NewDutyCycle(10), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var delays []time.Duration
	l.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		if len(delays) == 3 {
			cancel()
		}
		return ctx.Err()
	}

	err = l.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, dist.calls)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 100 * time.Millisecond, 100 * time.Millisecond}, delays)
	assert.Contains(t, f.lines, "Iteration aborted: distance sensor: echo lost")
}

func TestRun_DayAdvanceChangesBranch(t *testing.T) {
	f := &fakeRobot{distance: 95, tempC: 22, gas: 10, lux: 100, luxOK: true}
	l, _ := newTestLoop(t, f, 0)
	ctx := context.Background()

	outcome, err := l.RunIteration(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeIdle, outcome)

	require.NoError(t, l.Growth().SetElapsedDays(5))
	outcome, err = l.RunIteration(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeBehindSchedule, outcome)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "behind_schedule", OutcomeBehindSchedule.String())
	assert.Equal(t, "duty_sweep", OutcomeDutySweep.String())
	assert.Equal(t, "aborted", OutcomeAborted.String())
}
