package procexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Spec describes one external command invocation.
type Spec struct {
	Name string
	Args []string
	// Dir is the working directory. Empty inherits the caller's.
	Dir string
	// Env entries are appended to the current environment.
	Env []string
}

// String renders the command line for logs.
func (s Spec) String() string {
	if len(s.Args) == 0 {
		return s.Name
	}
	return s.Name + " " + strings.Join(s.Args, " ")
}

// Output carries the separated output channels of a finished command.
// Stdout is the payload channel; Stderr is diagnostics only.
type Output struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner abstracts process execution for testability.
type Runner interface {
	Run(ctx context.Context, spec Spec) (Output, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, spec Spec) (Output, error)

// Run calls f(ctx, spec).
func (f RunnerFunc) Run(ctx context.Context, spec Spec) (Output, error) {
	return f(ctx, spec)
}

// ExitError reports a command that ran but did not succeed.
type ExitError struct {
	Name     string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExitError) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("%s exited with code %d", e.Name, e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ExitError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// maxStderrDetail bounds how much diagnostic text is attached to errors.
const maxStderrDetail = 4096

// killGrace is how long a canceled process group gets between SIGTERM and SIGKILL.
const killGrace = 5 * time.Second

// ExecRunner executes commands via os/exec. Each command runs in its own
// process group so cancellation reaches helper processes spawned by scripts.
type ExecRunner struct{}

// NewExecRunner returns the production runner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes one command and captures stdout and stderr separately.
func (r *ExecRunner) Run(ctx context.Context, spec Spec) (Output, error) {
	if strings.TrimSpace(spec.Name) == "" {
		return Output{ExitCode: -1}, errors.New("procexec: command name required")
	}
	cmd := exec.CommandContext(ctx, spec.Name, spec.Args...) //nolint:gosec
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	configureProcessGroup(cmd)
	cmd.WaitDelay = killGrace

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := Output{
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}
	if err == nil {
		return out, nil
	}

	out.ExitCode = -1
	if ctxErr := ctx.Err(); ctxErr != nil {
		return out, ctxErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
		return out, &ExitError{
			Name:     spec.Name,
			ExitCode: out.ExitCode,
			Stderr:   tail(strings.TrimSpace(stderr.String()), maxStderrDetail),
			Err:      err,
		}
	}
	return out, fmt.Errorf("%s: %w", spec.Name, err)
}

func tail(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return "..." + value[len(value)-limit:]
}
