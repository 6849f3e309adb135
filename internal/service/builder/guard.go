package builder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-ps"
)

// errAlreadyRunning indicates that another build wrapper process is alive.
var errAlreadyRunning = errors.New("another build is already running")

// ensureSingleInstance refuses to start while another process of the same
// executable is alive. The build tool mutates a shared build tree and is not
// safe to run twice at once.
func ensureSingleInstance() error {
	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve own executable: %w", err)
	}

	name := filepath.Base(executable)

	processes, err := ps.Processes()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	thisProcessID := os.Getpid()

	for _, process := range processes {
		if process.Pid() == thisProcessID {
			continue
		}

		if process.Executable() == name {
			return fmt.Errorf("%w: pid %d", errAlreadyRunning, process.Pid())
		}
	}

	return nil
}
