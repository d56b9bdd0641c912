//go:build unix

package serialterm

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// isTransient reports whether a device read error only means "nothing yet".
func isTransient(err error) bool {
	return errors.Is(err, unix.EAGAIN) ||
		errors.Is(err, unix.EINTR) ||
		errors.Is(err, unix.ETIMEDOUT) ||
		errors.Is(err, os.ErrDeadlineExceeded)
}

// devicePresent checks the device node. A USB adapter that is unplugged
// loses its /dev entry, while an idle one just returns empty reads.
func devicePresent(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}
