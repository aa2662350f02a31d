// Package command turns shell commands into protected task functions.
package command

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// maxErrOutput bounds how much command output is folded into an error message.
const maxErrOutput = 1024

// Runner builds task functions that execute commands through the shell.
type Runner struct {
	shell  string
	logger *slog.Logger
}

// New creates a command runner using /bin/sh.
func New(logger *slog.Logger) *Runner {
	return &Runner{shell: "/bin/sh", logger: logger}
}

// Func wraps commandLine as a task function. The command's combined output is
// the task result on success; on failure the exit status and a bounded slice
// of output are folded into the error. The process is deliberately not bound
// to the context: a timed-out attempt keeps running detached, mirroring the
// engine's best-effort deadline semantics.
func (r *Runner) Func(commandLine string) func(ctx context.Context) (any, error) {
	return func(_ context.Context) (any, error) {
		cmd := exec.Command(r.shell, "-c", commandLine)
		out, err := cmd.CombinedOutput()
		if err != nil {
			return nil, fmt.Errorf("command failed: %w: %s", err, truncate(out))
		}
		r.logger.Debug("command finished", "command", commandLine, "output_bytes", len(out))
		return string(out), nil
	}
}

func truncate(out []byte) string {
	s := strings.TrimSpace(string(out))
	if len(s) > maxErrOutput {
		s = s[:maxErrOutput] + "..."
	}
	return s
}
