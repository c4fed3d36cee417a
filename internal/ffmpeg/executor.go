package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"time"
)

// CommandRunner is the interface for running commands.
type CommandRunner interface {
	Run(ctx context.Context, name string, args []string, stdin io.Reader) (stdout, stderr []byte, err error)
	LookPath(name string) (string, error)
}

// ExecCommandRunner uses os/exec.
type ExecCommandRunner struct{}

// Run runs a command.
func (ExecCommandRunner) Run(ctx context.Context, name string, args []string, stdin io.Reader) (stdout, stderr []byte, err error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err = cmd.Run()
	return outBuf.Bytes(), errBuf.Bytes(), err
}

// LookPath resolves a binary name against PATH.
func (ExecCommandRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Executor runs commands.
type Executor struct {
	runner     CommandRunner
	binaryPath string
	timeout    time.Duration
}

// NewExecutor creates an executor. The binary is resolved lazily so a missing
// toolchain surfaces per call instead of at construction.
func NewExecutor(binaryPath string, timeout time.Duration) *Executor {
	return NewExecutorWithRunner(binaryPath, timeout, ExecCommandRunner{})
}

// NewExecutorWithRunner creates an executor with a custom runner.
func NewExecutorWithRunner(binaryPath string, timeout time.Duration, runner CommandRunner) *Executor {
	return &Executor{
		binaryPath: binaryPath,
		timeout:    timeout,
		runner:     runner,
	}
}

// BinaryPath returns the configured binary.
func (e *Executor) BinaryPath() string {
	return e.binaryPath
}

// Available reports whether the binary can be found.
func (e *Executor) Available() error {
	if _, err := e.runner.LookPath(e.binaryPath); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// Execute runs the command and returns output. The error wraps ErrTimeout only when the
// executor's own timeout ended the run; cancellation of ctx is returned as ctx's error.
func (e *Executor) Execute(ctx context.Context, args []string, stdin io.Reader) (stdout, stderr []byte, err error) {
	runCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	stdout, stderr, err = e.runner.Run(runCtx, e.binaryPath, args, stdin)
	if err == nil || runCtx.Err() == nil {
		return stdout, stderr, err
	}
	if ctx.Err() != nil {
		return stdout, stderr, fmt.Errorf("ffmpeg aborted: %w", ctx.Err())
	}
	return stdout, stderr, fmt.Errorf("%w after %v: %w", ErrTimeout, e.timeout, runCtx.Err())
}
