package installer

import (
	"context"
	"fmt"
	"os"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/bds-updater/internal/domain/release"
	"github.com/oshokin/bds-updater/internal/logger"
)

// listProcesses enumerates running processes.
var listProcesses = ps.Processes

// ServerGuard returns a guard that refuses to touch the live tree while a
// bedrock_server process runs. With stop set it kills those processes instead.
func ServerGuard(goos string, stop bool) func(ctx context.Context) error {
	executable := release.ExecutableName(goos)

	return func(ctx context.Context) error {
		processes, err := findProcesses(executable)
		if err != nil {
			return fmt.Errorf("list processes: %w", err)
		}

		if len(processes) == 0 {
			return nil
		}

		if !stop {
			return fmt.Errorf("%s, pid %d: %w", executable, processes[0].Pid(), ErrServerRunning)
		}

		for _, process := range processes {
			logger.WarnKV(ctx, "Stopping running server", "pid", process.Pid())

			var running *os.Process

			running, err = os.FindProcess(process.Pid())
			if err != nil {
				return err
			}

			if err = running.Kill(); err != nil {
				return fmt.Errorf("stop %s, pid %d: %w", executable, process.Pid(), err)
			}
		}

		return nil
	}
}

// findProcesses lists processes named executable, excluding this one.
func findProcesses(executable string) ([]ps.Process, error) {
	processList, err := listProcesses()
	if err != nil {
		return nil, err
	}

	thisProcessID := os.Getpid()

	var found []ps.Process

	for _, process := range processList {
		if process.Pid() == thisProcessID || process.Executable() != executable {
			continue
		}

		found = append(found, process)
	}

	return found, nil
}
