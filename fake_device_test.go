package serialterm

import (
	"bytes"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var errFakeIO = errors.New("read /dev/fake: input/output error")

// fakeDevice simulates an opened serial port. Reads time out after a few
// milliseconds with (0, nil) the way go.bug.st/serial does.
type fakeDevice struct {
	mu       sync.Mutex
	written  bytes.Buffer
	writeErr error
	echo     bool

	incoming  chan []byte
	unplugged chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
	plugOnce  sync.Once
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		incoming:  make(chan []byte, 64),
		unplugged: make(chan struct{}),
		closed:    make(chan struct{}),
	}
}

func (d *fakeDevice) Read(p []byte) (int, error) {
	// Data already received is delivered before a removal is noticed
	select {
	case data := <-d.incoming:
		return copy(p, data), nil
	default:
	}

	select {
	case data := <-d.incoming:
		return copy(p, data), nil
	case <-d.unplugged:
		return 0, errFakeIO
	case <-d.closed:
		return 0, errors.New("port closed")
	case <-time.After(5 * time.Millisecond):
		return 0, nil
	}
}

func (d *fakeDevice) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.writeErr != nil {
		return 0, d.writeErr
	}
	d.written.Write(p)
	if d.echo {
		d.incoming <- append([]byte(nil), p...)
	}
	return len(p), nil
}

func (d *fakeDevice) Close() error {
	d.closeOnce.Do(func() { close(d.closed) })
	return nil
}

func (d *fakeDevice) feed(s string) {
	d.incoming <- []byte(s)
}

func (d *fakeDevice) unplug() {
	d.plugOnce.Do(func() { close(d.unplugged) })
}

func (d *fakeDevice) failWrites(err error) {
	d.mu.Lock()
	d.writeErr = err
	d.mu.Unlock()
}

func (d *fakeDevice) Written() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.written.String()
}

func (d *fakeDevice) isClosed() bool {
	return isClosed(d.closed)
}

// fakeBus hands out fakeDevices and records every open attempt.
type fakeBus struct {
	mu       sync.Mutex
	failures int             // remaining opens that fail
	bad      map[string]bool // names that never open
	echo     bool
	bauds    []int
	devices  []*fakeDevice
	attempts int

	gone atomic.Bool // reported by the presence check
}

func newFakeBus() *fakeBus {
	return &fakeBus{bad: map[string]bool{}}
}

func (b *fakeBus) open(name string, config Config) (Device, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.attempts++
	if b.bad[name] {
		return nil, errors.New("no such file or directory")
	}
	if b.failures > 0 {
		b.failures--
		return nil, errors.New("device busy")
	}

	dev := newFakeDevice()
	dev.echo = b.echo
	b.bauds = append(b.bauds, config.BaudRate)
	b.devices = append(b.devices, dev)
	return dev, nil
}

func (b *fakeBus) present(string) bool {
	return !b.gone.Load()
}

func (b *fakeBus) options() []Option {
	return []Option{WithOpener(b.open), WithPresenceCheck(b.present)}
}

func (b *fakeBus) last() *fakeDevice {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.devices) == 0 {
		return nil
	}
	return b.devices[len(b.devices)-1]
}

func (b *fakeBus) opens() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.devices)
}

func (b *fakeBus) lastBaud() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.bauds) == 0 {
		return 0
	}
	return b.bauds[len(b.bauds)-1]
}

// readUntil drains h until want has arrived or the deadline passes.
func readUntil(h interface{ Read() (string, error) }, want string, timeout time.Duration) string {
	var got string
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) && got != want {
		msg, err := h.Read()
		if err != nil {
			break
		}
		got += msg
		if msg == "" {
			time.Sleep(time.Millisecond)
		}
	}
	return got
}
