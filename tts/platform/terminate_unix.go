//go:build unix

package platform

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// terminate asks the helper process to exit so it can drop its inhibitor.
func terminate(p *os.Process) error {
	if err := unix.Kill(p.Pid, unix.SIGTERM); err != nil && !errors.Is(err, unix.ESRCH) {
		return err
	}
	return nil
}
