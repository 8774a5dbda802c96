package util

import (
	"os"

	"golang.org/x/crypto/ssh/terminal"
)

// InTerminal determines whether we're running in a terminal or not. Colors are only
// used in terminal output.
func InTerminal() bool {
	return terminal.IsTerminal(int(os.Stdout.Fd()))
}
