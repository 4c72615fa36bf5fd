package action

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// killWait bounds how long Execute waits for output pipes to close after
// the command's process group was killed
const killWait = 2 * time.Second

// ErrNotExecutable is returned when a command names a local program that
// is missing or lacks the execute bit. The command is not run.
var ErrNotExecutable = errors.New("not executable")

// ShellSink runs commands with /bin/sh -c
type ShellSink struct {
	Shell string
}

// NewShellSink creates a sink using /bin/sh
func NewShellSink() *ShellSink {
	return &ShellSink{Shell: "/bin/sh"}
}

// Execute runs command and waits for it. A non-zero exit is an error
// carrying the exit code and stderr. Cancelling ctx kills the command and
// everything it started.
func (s *ShellSink) Execute(ctx context.Context, command string) error {
	if strings.TrimSpace(command) == "" {
		return errors.New("empty command")
	}
	if err := checkExecutable(command); err != nil {
		return err
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.Shell, "-c", command)
	cmd.Stderr = &stderr
	cmd.WaitDelay = killWait
	killProcessGroup(cmd)

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("command cancelled: %w", ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("exit code %d: %s", exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return fmt.Errorf("failed to run command: %w", err)
	}
	return nil
}

// checkExecutable enforces that a command starting with an absolute path
// refers to an existing executable file
func checkExecutable(command string) error {
	fields := strings.Fields(command)
	if len(fields) == 0 || !filepath.IsAbs(fields[0]) {
		return nil
	}
	path := fields[0]

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s does not exist: %w", path, ErrNotExecutable)
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() || info.Mode().Perm()&0111 == 0 {
		return fmt.Errorf("%s lacks execute permission: %w", path, ErrNotExecutable)
	}
	return nil
}
