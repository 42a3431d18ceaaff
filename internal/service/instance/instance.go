package instance

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/green-sentinel/internal/logger"
)

// ErrAlreadyRunning is returned when another process with the same executable is alive.
var ErrAlreadyRunning = errors.New("another instance is already running")

// Guard checks for other processes running the same executable.
type Guard struct {
	// name is the executable name to look for.
	name string
	// self is this process id, excluded from the scan.
	self int
	// processes lists running processes.
	processes func() ([]ps.Process, error)
	// kill terminates a process by id.
	kill func(pid int) error
}

// NewGuard creates a guard for executable name. An empty name means the current executable.
func NewGuard(name string) *Guard {
	if name == "" {
		name = currentExecutable()
	}

	return &Guard{
		name:      name,
		self:      os.Getpid(),
		processes: ps.Processes,
		kill:      killProcess,
	}
}

// Acquire fails with ErrAlreadyRunning when another instance is alive.
// With takeover set, the other instances are terminated instead.
func (g *Guard) Acquire(ctx context.Context, takeover bool) error {
	others, err := g.others()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	if len(others) == 0 {
		return nil
	}

	if !takeover {
		return fmt.Errorf("%w: %s (pid %d)", ErrAlreadyRunning, g.name, others[0])
	}

	for _, pid := range others {
		logger.WarnKV(ctx, "Terminating previous instance", "pid", pid, "executable", g.name)

		if err := g.kill(pid); err != nil {
			return fmt.Errorf("terminate pid %d: %w", pid, err)
		}
	}

	return nil
}

// others returns the ids of other processes running the guarded executable.
func (g *Guard) others() ([]int, error) {
	processList, err := g.processes()
	if err != nil {
		return nil, err
	}

	var pids []int

	for _, process := range processList {
		if process.Pid() == g.self {
			continue
		}

		if !sameExecutable(process.Executable(), g.name) {
			continue
		}

		pids = append(pids, process.Pid())
	}

	return pids, nil
}

func sameExecutable(a, b string) bool {
	if runtime.GOOS == "windows" {
		return strings.EqualFold(a, b)
	}

	return a == b
}

func currentExecutable() string {
	path, err := os.Executable()
	if err != nil {
		return filepath.Base(os.Args[0])
	}

	return filepath.Base(path)
}

func killProcess(pid int) error {
	runningProcess, err := os.FindProcess(pid)
	if err != nil {
		return err
	}

	return runningProcess.Kill()
}
