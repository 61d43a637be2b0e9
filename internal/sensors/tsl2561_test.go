package sensors

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

func noSleep(time.Duration) {}

func tslInitOps() []i2ctest.IO {
	return []i2ctest.IO{
		{Addr: 0x39, W: []byte{0x80, 0x03}},
		{Addr: 0x39, W: []byte{0x81, 0x00}},
	}
}

func TestTSL2561_ReadLux(t *testing.T) {
	ops := append(tslInitOps(),
		i2ctest.IO{Addr: 0x39, W: []byte{0xAC}, R: []byte{0x64, 0x00}}, // ch0 = 100
		i2ctest.IO{Addr: 0x39, W: []byte{0xAE}, R: []byte{0x00, 0x00}}, // ch1 = 0
	)
	bus := &i2ctest.Playback{Ops: ops, DontPanic: true}

	s, err := NewTSL2561(bus, 0x39)
	require.NoError(t, err)
	s.sleep = noSleep

	lux, ok, err := s.ReadLux(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 0.0304*100*tslScale13ms1x, lux, 1e-9)
	assert.NoError(t, bus.Close())
}

func TestTSL2561_Clipped(t *testing.T) {
	ops := append(tslInitOps(),
		i2ctest.IO{Addr: 0x39, W: []byte{0xAC}, R: []byte{0xFF, 0xFF}},
		i2ctest.IO{Addr: 0x39, W: []byte{0xAE}, R: []byte{0x10, 0x00}},
	)
	bus := &i2ctest.Playback{Ops: ops, DontPanic: true}

	s, err := NewTSL2561(bus, 0x39)
	require.NoError(t, err)
	s.sleep = noSleep

	_, ok, err := s.ReadLux(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLuxFromChannels(t *testing.T) {
	assert.Equal(t, 0.0, LuxFromChannels(0, 0, 1))
	assert.InDelta(t, 3.04, LuxFromChannels(100, 0, 1), 1e-9)
	assert.InDelta(t, 0.0224*100-0.031*55, LuxFromChannels(100, 55, 1), 1e-9)
	assert.InDelta(t, 0.0128*100-0.0153*70, LuxFromChannels(100, 70, 1), 1e-9)
	assert.InDelta(t, 0.00146*100-0.00112*100, LuxFromChannels(100, 100, 1), 1e-9)
	assert.Equal(t, 0.0, LuxFromChannels(100, 200, 1))

	// more infrared means less visible light
	assert.Less(t, LuxFromChannels(1000, 400, 1), LuxFromChannels(1000, 100, 1))
}
