package serialterm

import (
	"time"

	"go.uber.org/zap"
)

// DefaultBaudRate is the rate a Connection uses before it is configured.
const DefaultBaudRate = 9600

// Parity represents the parity mode
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
	ParityMark
	ParitySpace
)

func (p Parity) String() string {
	switch p {
	case ParityOdd:
		return "O"
	case ParityEven:
		return "E"
	case ParityMark:
		return "M"
	case ParitySpace:
		return "S"
	default:
		return "N"
	}
}

// StandardBaudRates lists the rates offered for quick selection, ascending.
var StandardBaudRates = []int{
	300, 600, 1200, 2400, 4800, 9600, 19200, 38400, 57600,
	115200, 230400, 460800, 921600,
}

// Config holds the configuration for a transport handle
type Config struct {
	BaudRate        int
	DataBits        int
	StopBits        int
	Parity          Parity
	ReadTimeout     time.Duration // how long one device read waits before the task re-checks for shutdown
	ReadBufferSize  int
	ShutdownTimeout time.Duration // how long Close waits for both tasks to stop

	Logger   *zap.Logger
	Opener   Opener
	Presence PresenceCheck
}

// Option is a functional option for configuring a transport handle
type Option func(*Config) error

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaudRate:        DefaultBaudRate,
		DataBits:        8,
		StopBits:        1,
		Parity:          ParityNone,
		ReadTimeout:     100 * time.Millisecond,
		ReadBufferSize:  1024,
		ShutdownTimeout: 2 * time.Second,
		Logger:          zap.NewNop(),
		Opener:          openSerial,
		Presence:        devicePresent,
	}
}

// newConfig applies opts on top of the defaults.
func newConfig(opts ...Option) (Config, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return Config{}, err
		}
	}
	return config, nil
}

// WithBaudRate sets the baud rate. Any positive rate is accepted, the OS
// decides whether it can drive it.
func WithBaudRate(rate int) Option {
	return func(c *Config) error {
		if rate <= 0 {
			return ErrInvalidBaudRate
		}
		c.BaudRate = rate
		return nil
	}
}

// WithDataBits sets the number of data bits (5, 6, 7, or 8)
func WithDataBits(bits int) Option {
	return func(c *Config) error {
		if bits < 5 || bits > 8 {
			return ErrInvalidConfig
		}
		c.DataBits = bits
		return nil
	}
}

// WithStopBits sets the number of stop bits (1 or 2)
func WithStopBits(bits int) Option {
	return func(c *Config) error {
		if bits != 1 && bits != 2 {
			return ErrInvalidConfig
		}
		c.StopBits = bits
		return nil
	}
}

// WithParity sets the parity mode
func WithParity(parity Parity) Option {
	return func(c *Config) error {
		if parity < ParityNone || parity > ParitySpace {
			return ErrInvalidConfig
		}
		c.Parity = parity
		return nil
	}
}

// WithReadTimeout sets how long a single device read may block
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *Config) error {
		if timeout <= 0 {
			return ErrInvalidConfig
		}
		c.ReadTimeout = timeout
		return nil
	}
}

// WithReadBufferSize sets the size of the read task's buffer
func WithReadBufferSize(size int) Option {
	return func(c *Config) error {
		if size < 16 {
			return ErrInvalidConfig
		}
		c.ReadBufferSize = size
		return nil
	}
}

// WithShutdownTimeout bounds how long Close waits for the background tasks
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(c *Config) error {
		if timeout <= 0 {
			return ErrInvalidConfig
		}
		c.ShutdownTimeout = timeout
		return nil
	}
}

// WithLogger sets the logger used by the handle and its tasks
func WithLogger(logger *zap.Logger) Option {
	return func(c *Config) error {
		if logger == nil {
			logger = zap.NewNop()
		}
		c.Logger = logger
		return nil
	}
}

// WithOpener replaces the function used to open the OS device
func WithOpener(opener Opener) Option {
	return func(c *Config) error {
		if opener == nil {
			return ErrInvalidConfig
		}
		c.Opener = opener
		return nil
	}
}

// WithPresenceCheck replaces the check used to tell an idle device from a removed one
func WithPresenceCheck(check PresenceCheck) Option {
	return func(c *Config) error {
		if check == nil {
			return ErrInvalidConfig
		}
		c.Presence = check
		return nil
	}
}
