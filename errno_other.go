//go:build !unix

package serialterm

import (
	"errors"
	"os"
)

func isTransient(err error) bool {
	return errors.Is(err, os.ErrDeadlineExceeded)
}

// COM ports have no filesystem node to stat; removal surfaces as a read error.
func devicePresent(string) bool {
	return true
}
