package serialterm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeConnection(t *testing.T, bus *fakeBus, opts ...Option) *Connection {
	t.Helper()
	c, err := NewConnection(append(bus.options(), opts...)...)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestNewConnectionDefaults(t *testing.T) {
	c := newFakeConnection(t, newFakeBus())

	assert.Equal(t, DefaultBaudRate, c.BaudRate())
	assert.Equal(t, "", c.Name())
	assert.False(t, c.IsConnected())
	assert.NoError(t, c.Err())
}

func TestConnectionWithoutHandle(t *testing.T) {
	c := newFakeConnection(t, newFakeBus())

	assert.ErrorIs(t, c.Write("x"), ErrNotConnected)
	_, err := c.Read()
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.ErrorIs(t, c.Flush(context.Background()), ErrNotConnected)

	c.Close()
	c.Close()
}

func TestConnectionOpenClose(t *testing.T) {
	bus := newFakeBus()
	bus.echo = true
	c := newFakeConnection(t, bus, WithBaudRate(57600))

	require.NoError(t, c.Open("/dev/fake0"))
	assert.Equal(t, "/dev/fake0", c.Name())
	assert.True(t, c.IsConnected())
	assert.Equal(t, 57600, bus.lastBaud())

	require.NoError(t, c.Write("ping"))
	assert.Equal(t, "ping", readUntil(c, "ping", eventually))

	dev := bus.last()
	c.Close()
	assert.False(t, c.IsConnected())
	assert.Equal(t, "", c.Name())
	assert.True(t, dev.isClosed())
	assert.ErrorIs(t, c.Write("x"), ErrNotConnected)
}

func TestConnectionOpenReplacesHandle(t *testing.T) {
	bus := newFakeBus()
	c := newFakeConnection(t, bus)

	require.NoError(t, c.Open("/dev/fake0"))
	first := bus.last()
	require.NoError(t, c.Open("/dev/fake1"))

	assert.True(t, first.isClosed())
	assert.Equal(t, "/dev/fake1", c.Name())
	assert.Equal(t, 2, bus.opens())
}

func TestConnectionOpenFailure(t *testing.T) {
	bus := newFakeBus()
	bus.bad["/dev/missing"] = true
	c := newFakeConnection(t, bus)

	require.NoError(t, c.Open("/dev/fake0"))
	err := c.Open("/dev/missing")

	assert.ErrorIs(t, err, ErrConnectFailed)
	assert.False(t, c.IsConnected())
	assert.Equal(t, "/dev/fake0", c.Name())
	assert.ErrorIs(t, c.Write("x"), ErrNotConnected)
}

func TestConnectionSetBaudRate(t *testing.T) {
	tests := []struct {
		name      string
		open      bool
		rate      int
		wantErr   error
		wantRate  int
		wantOpens int
	}{
		{"without handle", false, 115200, nil, 115200, 0},
		{"reopens live handle", true, 115200, nil, 115200, 2},
		{"zero rejected", true, 0, ErrInvalidBaudRate, DefaultBaudRate, 1},
		{"negative rejected", false, -9600, ErrInvalidBaudRate, DefaultBaudRate, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := newFakeBus()
			c := newFakeConnection(t, bus)
			if tt.open {
				require.NoError(t, c.Open("/dev/fake0"))
			}

			err := c.SetBaudRate(tt.rate)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantRate, c.BaudRate())
			assert.Equal(t, tt.wantOpens, bus.opens())
			assert.Equal(t, tt.open, c.IsConnected())
		})
	}
}

func TestConnectionSetBaudRateReopensAtNewRate(t *testing.T) {
	bus := newFakeBus()
	c := newFakeConnection(t, bus)
	require.NoError(t, c.Open("/dev/fake0"))
	old := bus.last()

	require.NoError(t, c.SetBaudRate(230400))

	assert.True(t, old.isClosed())
	assert.Equal(t, 230400, bus.lastBaud())
	assert.Equal(t, "/dev/fake0", c.Name())
	assert.True(t, c.IsConnected())
}

func TestConnectionSetBaudRateDeadHandle(t *testing.T) {
	bus := newFakeBus()
	c := newFakeConnection(t, bus)
	require.NoError(t, c.Open("/dev/fake0"))

	bus.last().unplug()
	require.Eventually(t, func() bool { return !c.IsConnected() }, eventually, time.Millisecond)
	assert.ErrorIs(t, c.Err(), errFakeIO)

	require.NoError(t, c.SetBaudRate(19200))
	assert.Equal(t, 19200, c.BaudRate())
	assert.Equal(t, 1, bus.opens())
	assert.False(t, c.IsConnected())
}

func TestConnectionReopenFailureKeepsRate(t *testing.T) {
	bus := newFakeBus()
	c := newFakeConnection(t, bus)
	require.NoError(t, c.Open("/dev/fake0"))

	bus.mu.Lock()
	bus.bad["/dev/fake0"] = true
	bus.mu.Unlock()

	assert.ErrorIs(t, c.SetBaudRate(38400), ErrConnectFailed)
	assert.Equal(t, 38400, c.BaudRate())
	assert.False(t, c.IsConnected())
}

// slowCloseDevice blocks in Close until release is closed.
type slowCloseDevice struct {
	*fakeDevice
	closing chan struct{}
	release chan struct{}
}

func (d *slowCloseDevice) Close() error {
	close(d.closing)
	<-d.release
	return d.fakeDevice.Close()
}

func TestConnectionAccessorsDuringSlowClose(t *testing.T) {
	dev := &slowCloseDevice{
		fakeDevice: newFakeDevice(),
		closing:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	bus := newFakeBus()
	opener := func(string, Config) (Device, error) { return dev, nil }
	c := newFakeConnection(t, bus, WithOpener(opener), WithBaudRate(19200))

	require.NoError(t, c.Open("/dev/slow0"))

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		c.Close()
	}()

	select {
	case <-dev.closing:
	case <-time.After(time.Second):
		t.Fatal("device Close was not called")
	}

	answered := make(chan struct{})
	go func() {
		defer close(answered)
		assert.Equal(t, 19200, c.BaudRate())
		assert.False(t, c.IsConnected())
		assert.ErrorIs(t, c.Write("x"), ErrNotConnected)
	}()

	select {
	case <-answered:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("accessors blocked while the device was closing")
	}

	close(dev.release)
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close did not return")
	}
}
