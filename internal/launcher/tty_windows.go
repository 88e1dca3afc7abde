//go:build windows

package launcher

import (
	"errors"
	"os"
)

var errNoTTY = errors.New("the interactive picker is not supported on Windows")

// OpenTTY always fails on Windows.
func OpenTTY() (*os.File, error) {
	return nil, errNoTTY
}

// CheckTerminal always fails on Windows.
func CheckTerminal(*os.File) error {
	return errNoTTY
}
