package serialterm

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Connection owns at most one Handle and remembers the device name and baud
// rate across reconnects. It is safe for concurrent use.
type Connection struct {
	// life serializes Open, Close and SetBaudRate. mu only guards the fields
	// and is never held while a device is opened or closed.
	life sync.Mutex

	mu       sync.Mutex
	handle   *Handle
	name     string
	baudRate int
	opts     []Option
	logger   *zap.Logger
}

// NewConnection creates a handle-less Connection. opts are applied to every
// Handle it opens; a WithBaudRate among them sets the initial rate.
func NewConnection(opts ...Option) (*Connection, error) {
	config, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	return &Connection{
		baudRate: config.BaudRate,
		opts:     opts,
		logger:   config.Logger,
	}, nil
}

// Open replaces any current handle with a new one for name. On failure the
// Connection is left without a handle and the remembered name is unchanged.
func (c *Connection) Open(name string) error {
	c.life.Lock()
	defer c.life.Unlock()

	c.drop()

	h, err := Open(name, c.handleOptions()...)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.handle = h
	c.name = name
	c.mu.Unlock()
	return nil
}

// Close discards the handle. Calling it without a handle is a no-op.
func (c *Connection) Close() {
	c.life.Lock()
	defer c.life.Unlock()

	c.drop()

	c.mu.Lock()
	c.name = ""
	c.mu.Unlock()
}

// BaudRate returns the remembered baud rate
func (c *Connection) BaudRate() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.baudRate
}

// Name returns the device of the current or last successfully opened handle
func (c *Connection) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name
}

// SetBaudRate commits rate and, when a live handle exists, reopens it at the
// new rate. A reopen failure is returned but the rate stays committed.
func (c *Connection) SetBaudRate(rate int) error {
	if rate <= 0 {
		return ErrInvalidBaudRate
	}

	c.life.Lock()
	defer c.life.Unlock()

	c.mu.Lock()
	c.baudRate = rate
	old, name := c.handle, c.name
	c.mu.Unlock()

	if old == nil {
		return nil
	}

	live := old.IsConnected()
	// The old tasks must be gone before the device path is opened again
	c.drop()
	if !live {
		return nil
	}

	h, err := Open(name, c.handleOptions()...)
	if err != nil {
		c.logger.Warn("Reopen after baud rate change failed",
			zap.String("port", name),
			zap.Int("baud_rate", rate),
			zap.Error(err))
		return err
	}

	c.mu.Lock()
	c.handle = h
	c.mu.Unlock()
	return nil
}

// IsConnected reports whether a handle exists and both its tasks are running
func (c *Connection) IsConnected() bool {
	h := c.current()
	return h != nil && h.IsConnected()
}

// Write queues data on the current handle
func (c *Connection) Write(data string) error {
	h := c.current()
	if h == nil {
		return ErrNotConnected
	}
	return h.Write(data)
}

// Read drains at most one received message from the current handle
func (c *Connection) Read() (string, error) {
	h := c.current()
	if h == nil {
		return "", ErrNotConnected
	}
	return h.Read()
}

// Flush waits for queued writes on the current handle to reach the device
func (c *Connection) Flush(ctx context.Context) error {
	h := c.current()
	if h == nil {
		return ErrNotConnected
	}
	return h.Flush(ctx)
}

// Err returns why the current handle stopped, if it has.
func (c *Connection) Err() error {
	h := c.current()
	if h == nil {
		return nil
	}
	return h.Err()
}

func (c *Connection) current() *Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle
}

func (c *Connection) handleOptions() []Option {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append(append([]Option(nil), c.opts...), WithBaudRate(c.baudRate))
}

// drop detaches the current handle and closes it outside mu.
func (c *Connection) drop() {
	c.mu.Lock()
	h := c.handle
	c.handle = nil
	c.mu.Unlock()

	if h == nil {
		return
	}
	if err := h.Close(); err != nil {
		c.logger.Warn("Closing serial handle failed", zap.Error(err))
	}
}
