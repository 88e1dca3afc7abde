//go:build windows

package cmd

// stdoutIsTerminal returns true on Windows; color detection falls back to
// the environment.
func stdoutIsTerminal() bool {
	return true
}
