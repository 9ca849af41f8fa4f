// Package process runs external tools (docker, doctl) with the terminal
// attached, so their progress output reaches the user unchanged.
package process

//go:generate mockgen -destination=mocks/runner.go -package=mocks github.com/0xa1bed0/dimg/internal/process Runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/0xa1bed0/dimg/internal/logs"
)

// Runner executes a command and waits for it. A nil error means the command
// exited with status 0.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExitError reports a command that ran but exited non-zero.
type ExitError struct {
	Command string
	Code    int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%q exited with status %d", e.Command, e.Code)
}

// ExecRunner runs commands with os/exec. Nil streams inherit the process'
// own stdin, stdout and stderr.
type ExecRunner struct {
	Dir    string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

var _ Runner = &ExecRunner{}

func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmdline := CommandLine(name, args...)
	logs.Debugf("running command: %s", cmdline)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	if r.Stdin != nil {
		cmd.Stdin = r.Stdin
	}
	if r.Stdout != nil {
		cmd.Stdout = r.Stdout
	}
	if r.Stderr != nil {
		cmd.Stderr = r.Stderr
	}

	err := cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Command: cmdline, Code: exitErr.ExitCode()}
	}
	return fmt.Errorf("run %q: %w", cmdline, err)
}

// CommandLine renders a command for logs, quoting arguments with spaces.
func CommandLine(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	for _, a := range append([]string{name}, args...) {
		if a == "" || strings.ContainsAny(a, " \t\"") {
			a = fmt.Sprintf("%q", a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}
