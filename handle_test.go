package serialterm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const eventually = 2 * time.Second

func openFake(t *testing.T, bus *fakeBus, opts ...Option) (*Handle, *fakeDevice) {
	t.Helper()
	h, err := Open("/dev/fake0", append(bus.options(), opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h, bus.last()
}

func TestOpenFailure(t *testing.T) {
	cause := errors.New("no such file or directory")
	h, err := Open("/dev/missing", WithOpener(func(string, Config) (Device, error) {
		return nil, cause
	}))

	assert.Nil(t, h)
	assert.ErrorIs(t, err, ErrConnectFailed)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "/dev/missing")
}

func TestOpenInvalidOption(t *testing.T) {
	_, err := Open("/dev/fake0", WithBaudRate(-1))
	assert.ErrorIs(t, err, ErrInvalidBaudRate)
}

func TestHandleAccessors(t *testing.T) {
	h, _ := openFake(t, newFakeBus(), WithBaudRate(115200))

	assert.Equal(t, "/dev/fake0", h.Name())
	assert.Equal(t, 115200, h.BaudRate())
	assert.True(t, h.IsConnected())
	assert.NoError(t, h.Err())
}

func TestHandleReadEmpty(t *testing.T) {
	h, _ := openFake(t, newFakeBus())

	msg, err := h.Read()
	require.NoError(t, err)
	assert.Equal(t, "", msg)
}

func TestHandleEcho(t *testing.T) {
	bus := newFakeBus()
	bus.echo = true
	h, dev := openFake(t, bus)

	require.NoError(t, h.Write("hello\n"))
	assert.Equal(t, "hello\n", readUntil(h, "hello\n", eventually))
	assert.Equal(t, "hello\n", dev.Written())
}

func TestHandleWritePreservesOrder(t *testing.T) {
	h, dev := openFake(t, newFakeBus())

	for _, s := range []string{"a", "b", "c", "d"} {
		require.NoError(t, h.Write(s))
	}
	ctx, cancel := context.WithTimeout(context.Background(), eventually)
	defer cancel()
	require.NoError(t, h.Flush(ctx))

	assert.Equal(t, "abcd", dev.Written())
}

func TestHandleSplitRune(t *testing.T) {
	h, dev := openFake(t, newFakeBus())

	euro := []byte("€")
	dev.incoming <- euro[:2]
	dev.incoming <- append(euro[2:], '!')

	assert.Equal(t, "€!", readUntil(h, "€!", eventually))
}

func TestHandleDropsInvalidChunk(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	h, dev := openFake(t, newFakeBus(), WithLogger(zap.New(core)))

	dev.incoming <- []byte{0xff, 0xfe, '\n'}
	dev.feed("ok")

	assert.Equal(t, "ok", readUntil(h, "ok", eventually))
	assert.True(t, h.IsConnected())

	entries := logs.FilterMessage("Dropped received chunk").All()
	require.Len(t, entries, 1)
	assert.Equal(t, ErrInvalidData.Error(), entries[0].ContextMap()["error"])
}

func TestHandleStrayLeadByte(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	h, dev := openFake(t, newFakeBus(), WithLogger(zap.New(core)))

	dev.incoming <- []byte{0xe2}
	time.Sleep(30 * time.Millisecond)
	dev.feed("hello\n")

	assert.Equal(t, "hello\n", readUntil(h, "hello\n", eventually))

	entries := logs.FilterMessage("Dropped received chunk").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].ContextMap()["bytes"])
}

func TestHandleSplitRuneAcrossThreeReads(t *testing.T) {
	h, dev := openFake(t, newFakeBus())

	euro := []byte("€")
	dev.incoming <- euro[:1]
	time.Sleep(10 * time.Millisecond)
	dev.incoming <- euro[1:2]
	time.Sleep(10 * time.Millisecond)
	dev.incoming <- append(euro[2:], 'x')

	assert.Equal(t, "€x", readUntil(h, "€x", eventually))
}

func TestHandleDeviceRemoved(t *testing.T) {
	h, dev := openFake(t, newFakeBus())

	dev.feed("last words")
	dev.unplug()

	require.Eventually(t, func() bool { return isClosed(h.readDone) }, eventually, time.Millisecond)
	assert.False(t, h.IsConnected())

	// Buffered data is still delivered before the disconnect surfaces
	msg, err := h.Read()
	require.NoError(t, err)
	assert.Equal(t, "last words", msg)

	_, err = h.Read()
	assert.ErrorIs(t, err, ErrDisconnected)
	assert.ErrorIs(t, err, errFakeIO)

	assert.ErrorIs(t, h.Write("x"), ErrDisconnected)
	assert.ErrorIs(t, h.Err(), errFakeIO)
	assert.True(t, dev.isClosed())
}

func TestHandleDeviceVanished(t *testing.T) {
	bus := newFakeBus()
	h, _ := openFake(t, bus)

	bus.gone.Store(true)

	require.Eventually(t, func() bool { return !h.IsConnected() }, eventually, time.Millisecond)
	assert.ErrorIs(t, h.Err(), ErrDeviceNotFound)
}

func TestHandleWriteFailureStopsReader(t *testing.T) {
	h, dev := openFake(t, newFakeBus())
	broken := errors.New("broken pipe")
	dev.failWrites(broken)

	require.NoError(t, h.Write("x"))

	require.Eventually(t, func() bool { return !h.IsConnected() }, eventually, time.Millisecond)
	assert.ErrorIs(t, h.Err(), broken)

	select {
	case <-h.readDone:
	case <-time.After(eventually):
		t.Fatal("read task still running after write task failed")
	}
}

func TestHandleClose(t *testing.T) {
	h, dev := openFake(t, newFakeBus())

	require.NoError(t, h.Close())
	require.NoError(t, h.Close())

	assert.False(t, h.IsConnected())
	assert.NoError(t, h.Err())
	assert.True(t, dev.isClosed())
	assert.ErrorIs(t, h.Write("x"), ErrDisconnected)

	select {
	case <-h.Done():
	default:
		t.Fatal("Done not closed after Close")
	}
}

func TestHandleFlushContext(t *testing.T) {
	h, dev := openFake(t, newFakeBus())
	dev.mu.Lock() // stall the write task

	require.NoError(t, h.Write("stuck"))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, h.Flush(ctx), context.DeadlineExceeded)

	dev.mu.Unlock()
}

func TestCompletePrefix(t *testing.T) {
	euro := []byte("€") // e2 82 ac
	tests := []struct {
		name string
		data []byte
		want int
	}{
		{"empty", nil, 0},
		{"ascii", []byte("abc"), 3},
		{"complete multibyte", append([]byte("a"), euro...), 4},
		{"one byte of three", append([]byte("a"), euro[0]), 1},
		{"two bytes of three", append([]byte("a"), euro[:2]...), 1},
		{"only continuation prefix", euro[:2], 0},
		{"invalid lead byte", []byte{'a', 0xff}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, completePrefix(tt.data))
		})
	}
}
