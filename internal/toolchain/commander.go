package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ExecResult is what an external command reports back: exit code, stdout and
// stderr. Err is set when the process could not be started at all or was
// interrupted by ctx; ExitCode is then -1.
type ExecResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	Err      error
}

// Succeeded reports whether the command ran and exited zero.
func (r ExecResult) Succeeded() bool {
	return r.Err == nil && r.ExitCode == 0
}

// Commander runs an external program to completion.
type Commander interface {
	Run(ctx context.Context, name string, args ...string) ExecResult
}

// ExecCommander runs commands with os/exec.
type ExecCommander struct {
	// Dir is the working directory; empty means the current directory.
	Dir string

	// Env is appended to the inherited environment.
	Env []string
}

// Run implements Commander.
func (c ExecCommander) Run(ctx context.Context, name string, args ...string) ExecResult {
	if _, err := exec.LookPath(name); err != nil {
		return ExecResult{ExitCode: -1, Err: fmt.Errorf("%s not found in PATH: %w", name, err)}
	}

	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec // G204: program and args come from pebblectl configuration
	cmd.Dir = c.Dir

	if len(c.Env) > 0 {
		cmd.Env = append(cmd.Environ(), c.Env...)
	}

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	startedAt := time.Now()
	err := cmd.Run()

	result := ExecResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(startedAt),
	}

	if err == nil {
		return result
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		result.ExitCode = -1
		result.Err = fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), ctxErr)

		return result
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result
	}

	result.ExitCode = -1
	result.Err = fmt.Errorf("run %s: %w", name, err)

	return result
}

var _ Commander = ExecCommander{}
