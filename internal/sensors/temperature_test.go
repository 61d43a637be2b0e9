package sensors

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/onewire"
)

type fakeOneWire struct {
	addrs    []onewire.Address
	err      error
	searched int
}

func (f *fakeOneWire) Search(bool) ([]onewire.Address, error) {
	f.searched++
	return f.addrs, f.err
}

func TestResolveDS18B20_ConfiguredAddress(t *testing.T) {
	bus := &fakeOneWire{}
	addr, err := resolveDS18B20(bus, "w1", 0x28ff641e0f1c03ab, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	assert.Equal(t, uint64(0x28ff641e0f1c03ab), addr)
	assert.Zero(t, bus.searched)
}

func TestResolveDS18B20_FirstFoundLogsThroughGivenLogger(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	bus := &fakeOneWire{addrs: []onewire.Address{0x2801, 0x2802}}

	addr, err := resolveDS18B20(bus, "w1", 0, log)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x2801), addr)
	assert.Contains(t, buf.String(), "using first device on bus")
	assert.Contains(t, buf.String(), "found=2")
}

func TestResolveDS18B20_Errors(t *testing.T) {
	discard := slog.New(slog.DiscardHandler)

	_, err := resolveDS18B20(&fakeOneWire{}, "w1", 0, discard)
	assert.ErrorContains(t, err, `no device on bus "w1"`)

	boom := errors.New("bus reset failed")
	_, err = resolveDS18B20(&fakeOneWire{err: boom}, "w1", 0, discard)
	assert.ErrorIs(t, err, boom)
}
