package serialterm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State is the supervisor's view of the connection
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// EventType identifies what an Event reports
type EventType int

const (
	// EventConnecting is sent when a connect-retry loop starts.
	EventConnecting EventType = iota
	// EventConnected is sent once per successful connect.
	EventConnected
	// EventConnectFailed is sent once when the connect timeout expires.
	EventConnectFailed
	// EventData carries newly received text.
	EventData
	// EventDisconnected is sent when an established connection is lost.
	EventDisconnected
	// EventClosed is sent after an explicit Disconnect.
	EventClosed
)

func (t EventType) String() string {
	switch t {
	case EventConnecting:
		return "connecting"
	case EventConnected:
		return "connected"
	case EventConnectFailed:
		return "connect_failed"
	case EventData:
		return "data"
	case EventDisconnected:
		return "disconnected"
	case EventClosed:
		return "closed"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

type Event struct {
	Type    EventType
	Port    string
	Data    string // EventData only
	Attempt int    // EventConnected and EventConnectFailed
	Err     error  // EventConnectFailed and EventDisconnected
}

// EventHandler receives supervisor events on the supervisor's loop goroutine.
// It must not call Connect, Disconnect, SetBaudRate or Close synchronously.
type EventHandler func(Event)

// SupervisorConfig holds the loop cadences
type SupervisorConfig struct {
	RetryInterval  time.Duration
	ConnectTimeout time.Duration
	ReadInterval   time.Duration
	ScanInterval   time.Duration
	Enumerator     Enumerator
	Handler        EventHandler
	Logger         *zap.Logger
}

type SupervisorOption func(*SupervisorConfig) error

func DefaultSupervisorConfig() SupervisorConfig {
	return SupervisorConfig{
		RetryInterval:  500 * time.Millisecond,
		ConnectTimeout: 10 * time.Second,
		ReadInterval:   20 * time.Millisecond,
		ScanInterval:   250 * time.Millisecond,
		Enumerator:     ListDevices,
		Logger:         zap.NewNop(),
	}
}

func positiveDuration(name string, d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidConfig, name, d)
	}
	return nil
}

func WithRetryInterval(d time.Duration) SupervisorOption {
	return func(c *SupervisorConfig) error {
		if err := positiveDuration("retry interval", d); err != nil {
			return err
		}
		c.RetryInterval = d
		return nil
	}
}

func WithConnectTimeout(d time.Duration) SupervisorOption {
	return func(c *SupervisorConfig) error {
		if err := positiveDuration("connect timeout", d); err != nil {
			return err
		}
		c.ConnectTimeout = d
		return nil
	}
}

func WithReadInterval(d time.Duration) SupervisorOption {
	return func(c *SupervisorConfig) error {
		if err := positiveDuration("read interval", d); err != nil {
			return err
		}
		c.ReadInterval = d
		return nil
	}
}

func WithScanInterval(d time.Duration) SupervisorOption {
	return func(c *SupervisorConfig) error {
		if err := positiveDuration("scan interval", d); err != nil {
			return err
		}
		c.ScanInterval = d
		return nil
	}
}

// WithEnumerator replaces ListDevices as the source for WatchDevices
func WithEnumerator(e Enumerator) SupervisorOption {
	return func(c *SupervisorConfig) error {
		if e == nil {
			return fmt.Errorf("%w: enumerator is nil", ErrInvalidConfig)
		}
		c.Enumerator = e
		return nil
	}
}

func WithEventHandler(h EventHandler) SupervisorOption {
	return func(c *SupervisorConfig) error {
		c.Handler = h
		return nil
	}
}

func WithSupervisorLogger(logger *zap.Logger) SupervisorOption {
	return func(c *SupervisorConfig) error {
		if logger == nil {
			logger = zap.NewNop()
		}
		c.Logger = logger
		return nil
	}
}

// Supervisor drives a Connection: it retries opening a selected device until
// it succeeds or times out, then drains received data into a Buffer at a
// fixed cadence until the connection is lost.
//
// At most one loop is active. Connect, Disconnect and SetBaudRate stop the
// previous loop and wait for it before acting.
type Supervisor struct {
	conn   *Connection
	config SupervisorConfig
	logger *zap.Logger

	sent     Buffer
	received Buffer

	ctl sync.Mutex // serializes Connect, Disconnect, SetBaudRate and Close

	mu      sync.Mutex
	gen     uint64
	state   State
	target  string
	handler EventHandler
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewSupervisor(conn *Connection, opts ...SupervisorOption) (*Supervisor, error) {
	if conn == nil {
		return nil, fmt.Errorf("%w: connection is nil", ErrInvalidConfig)
	}
	config := DefaultSupervisorConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return nil, err
		}
	}
	return &Supervisor{
		conn:    conn,
		config:  config,
		logger:  config.Logger,
		handler: config.Handler,
	}, nil
}

// Connection returns the supervised connection
func (s *Supervisor) Connection() *Connection {
	return s.conn
}

// Sent holds text successfully handed to Send
func (s *Supervisor) Sent() *Buffer {
	return &s.sent
}

// Received holds text drained from the device
func (s *Supervisor) Received() *Buffer {
	return &s.received
}

func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Target returns the device the supervisor is connecting or connected to
func (s *Supervisor) Target() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

func (s *Supervisor) SetEventHandler(h EventHandler) {
	s.mu.Lock()
	s.handler = h
	s.mu.Unlock()
}

// Connect abandons any in-flight attempt, closes the connection and starts a
// new connect-retry loop for name in the background. An empty name
// disconnects.
func (s *Supervisor) Connect(name string) {
	if name == "" {
		s.Disconnect()
		return
	}

	s.ctl.Lock()
	defer s.ctl.Unlock()

	s.halt()
	s.conn.Close()
	s.start(name, false)
}

// Disconnect stops the active loop and closes the connection.
func (s *Supervisor) Disconnect() {
	s.ctl.Lock()
	defer s.ctl.Unlock()

	s.halt()
	s.conn.Close()

	s.mu.Lock()
	port := s.target
	s.target = ""
	s.state = StateDisconnected
	s.mu.Unlock()

	if port != "" {
		s.logger.Info("Disconnected", zap.String("port", port))
		s.dispatch(Event{Type: EventClosed, Port: port})
	}
}

// SetBaudRate changes the connection's rate. A running loop is restarted so
// that a failed reopen falls back to retrying at the new rate.
func (s *Supervisor) SetBaudRate(rate int) error {
	if rate <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBaudRate, rate)
	}

	s.ctl.Lock()
	defer s.ctl.Unlock()

	s.mu.Lock()
	target := s.target
	s.mu.Unlock()

	s.halt()
	err := s.conn.SetBaudRate(rate)
	if target != "" {
		s.start(target, s.conn.IsConnected())
	}
	return err
}

// Send writes text to the connection and records it in Sent on success.
func (s *Supervisor) Send(text string) error {
	if err := s.conn.Write(text); err != nil {
		return err
	}
	s.sent.Append(text)
	return nil
}

// WatchDevices calls fn with a device snapshot every scan interval. It blocks
// until ctx is done.
func (s *Supervisor) WatchDevices(ctx context.Context, fn func([]DeviceDescriptor)) {
	PollDevices(ctx, s.config.ScanInterval, s.config.Enumerator, fn)
}

// Close stops the active loop and closes the connection without emitting
// events.
func (s *Supervisor) Close() {
	s.ctl.Lock()
	defer s.ctl.Unlock()

	s.halt()
	s.conn.Close()

	s.mu.Lock()
	s.gen++
	s.target = ""
	s.state = StateDisconnected
	s.mu.Unlock()
}

// halt cancels the active loop and waits for it to return. Caller holds ctl.
func (s *Supervisor) halt() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// start launches a new loop generation. Caller holds ctl.
func (s *Supervisor) start(name string, connected bool) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.target = name
	s.cancel = cancel
	s.done = done
	if connected {
		s.state = StateConnected
	} else {
		s.state = StateConnecting
	}
	s.mu.Unlock()

	go s.run(ctx, gen, name, connected, done)
}

func (s *Supervisor) run(ctx context.Context, gen uint64, name string, connected bool, done chan struct{}) {
	defer close(done)

	logger := s.logger.With(zap.String("port", name))

	if !connected {
		s.emit(gen, Event{Type: EventConnecting, Port: name})
		if !s.connectLoop(ctx, gen, name, logger) {
			return
		}
	}
	s.drainLoop(ctx, gen, name, logger)
}

// connectLoop retries Connection.Open until it succeeds, ctx is cancelled or
// the connect timeout expires. Only the timeout is reported as a failure.
func (s *Supervisor) connectLoop(ctx context.Context, gen uint64, name string, logger *zap.Logger) bool {
	deadline := time.NewTimer(s.config.ConnectTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(s.config.RetryInterval)
	defer ticker.Stop()

	var lastErr error
	for attempt := 1; ; attempt++ {
		err := s.conn.Open(name)
		if ctx.Err() != nil {
			return false
		}
		if err == nil {
			logger.Info("Connected",
				zap.Int("attempt", attempt),
				zap.Int("baud_rate", s.conn.BaudRate()))
			s.setState(gen, StateConnected)
			s.emit(gen, Event{Type: EventConnected, Port: name, Attempt: attempt})
			return true
		}

		lastErr = err
		logger.Debug("Connect attempt failed", zap.Int("attempt", attempt), zap.Error(err))

		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			err := fmt.Errorf("%w: %s after %v: %w", ErrConnectTimeout, name, s.config.ConnectTimeout, lastErr)
			logger.Error("Giving up on connect", zap.Int("attempts", attempt), zap.Error(err))
			s.release(gen)
			s.emit(gen, Event{Type: EventConnectFailed, Port: name, Attempt: attempt, Err: err})
			return false
		case <-ticker.C:
		}
	}
}

func (s *Supervisor) drainLoop(ctx context.Context, gen uint64, name string, logger *zap.Logger) {
	ticker := time.NewTicker(s.config.ReadInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := s.drain(gen, name); err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("Connection lost", zap.Error(err))
			s.release(gen)
			s.emit(gen, Event{Type: EventDisconnected, Port: name, Err: err})
			return
		}
	}
}

// drain moves every queued message into the received buffer.
func (s *Supervisor) drain(gen uint64, name string) error {
	for {
		msg, err := s.conn.Read()
		if err != nil {
			return err
		}
		if msg == "" {
			return nil
		}
		s.received.Append(msg)
		s.emit(gen, Event{Type: EventData, Port: name, Data: msg})
	}
}

func (s *Supervisor) setState(gen uint64, state State) {
	s.mu.Lock()
	if gen == s.gen {
		s.state = state
	}
	s.mu.Unlock()
}

// release ends gen as disconnected and forgets its target, so nothing but a
// new Connect brings the device back.
func (s *Supervisor) release(gen uint64) {
	s.mu.Lock()
	if gen == s.gen {
		s.state = StateDisconnected
		s.target = ""
	}
	s.mu.Unlock()
}

// emit dispatches ev unless its generation has been superseded.
func (s *Supervisor) emit(gen uint64, ev Event) {
	s.mu.Lock()
	current := gen == s.gen
	s.mu.Unlock()
	if current {
		s.dispatch(ev)
	}
}

func (s *Supervisor) dispatch(ev Event) {
	s.mu.Lock()
	h := s.handler
	s.mu.Unlock()
	if h != nil {
		h(ev)
	}
}
