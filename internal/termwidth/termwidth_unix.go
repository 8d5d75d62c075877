//go:build !windows

package termwidth

import (
	"os"

	"golang.org/x/sys/unix"
)

func get() (int, bool) {
	ws, err := unix.IoctlGetWinsize(int(os.Stdout.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		return 0, false
	}
	return int(ws.Col), true
}
