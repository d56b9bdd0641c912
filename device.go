package serialterm

import (
	"io"

	"go.bug.st/serial"
)

// Device is an opened OS serial descriptor. Close must unblock a pending Read.
type Device interface {
	io.ReadWriteCloser
}

// Opener opens the named device using the line settings in config.
type Opener func(name string, config Config) (Device, error)

// PresenceCheck reports whether the named device still exists.
type PresenceCheck func(name string) bool

// openSerial is the default Opener, backed by go.bug.st/serial.
func openSerial(name string, config Config) (Device, error) {
	mode := &serial.Mode{
		BaudRate: config.BaudRate,
		DataBits: config.DataBits,
		Parity:   convertParity(config.Parity),
		StopBits: convertStopBits(config.StopBits),
	}

	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, err
	}

	// A bounded read lets the read task notice shutdown and removal
	if err := port.SetReadTimeout(config.ReadTimeout); err != nil {
		port.Close()
		return nil, err
	}

	return port, nil
}

func convertStopBits(bits int) serial.StopBits {
	if bits == 2 {
		return serial.TwoStopBits
	}
	return serial.OneStopBit
}

func convertParity(parity Parity) serial.Parity {
	switch parity {
	case ParityOdd:
		return serial.OddParity
	case ParityEven:
		return serial.EvenParity
	case ParityMark:
		return serial.MarkParity
	case ParitySpace:
		return serial.SpaceParity
	default:
		return serial.NoParity
	}
}
