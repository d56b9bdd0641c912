package serialterm

import (
	"errors"
	"fmt"

	"go.bug.st/serial"
)

// Predefined error types for robust error handling
var (
	ErrConnectFailed  = errors.New("failed to connect to serial device")
	ErrDisconnected   = errors.New("serial connection lost")
	ErrInvalidData    = errors.New("received bytes are not valid UTF-8")
	ErrNotConnected   = errors.New("no serial device connected")
	ErrConnectTimeout = errors.New("timed out connecting to serial device")

	ErrInvalidBaudRate = errors.New("invalid baud rate")
	ErrInvalidConfig   = errors.New("invalid serial configuration")

	// Causes attached to ErrConnectFailed
	ErrDeviceNotFound   = errors.New("serial device not found")
	ErrPermissionDenied = errors.New("permission denied accessing serial device")
	ErrDeviceInUse      = errors.New("serial device already in use")
)

// connectError wraps an open failure so that it matches ErrConnectFailed and,
// when the cause is recognised, one of the more specific sentinels.
func connectError(name string, err error) error {
	var portErr *serial.PortError
	if errors.As(err, &portErr) {
		switch portErr.Code() {
		case serial.PortNotFound:
			return fmt.Errorf("%w: %s: %w", ErrConnectFailed, name, ErrDeviceNotFound)
		case serial.PermissionDenied:
			return fmt.Errorf("%w: %s: %w", ErrConnectFailed, name, ErrPermissionDenied)
		case serial.PortBusy:
			return fmt.Errorf("%w: %s: %w", ErrConnectFailed, name, ErrDeviceInUse)
		}
	}
	return fmt.Errorf("%w: %s: %w", ErrConnectFailed, name, err)
}
