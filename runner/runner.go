// Package runner executes the external programs the tools drive
// (scp, genomehubs) with a timeout and captured output.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrCommandFailed wraps every non-zero exit.
var ErrCommandFailed = errors.New("command failed")

// Command is one external invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result is what a finished command produced.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Runner is the interface for command execution.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// ExecRunner runs commands with os/exec. Output is captured and, when Stream
// is set, also copied there as it arrives.
type ExecRunner struct {
	Timeout time.Duration
	Stream  io.Writer
	Logger  *zap.Logger
}

func NewExecRunner(timeout time.Duration, logger *zap.Logger) *ExecRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecRunner{Timeout: timeout, Logger: logger.Named("runner")}
}

func (e *ExecRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	execCtx := ctx
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(execCtx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir

	var stdout, stderr bytes.Buffer
	if e.Stream != nil {
		c.Stdout = io.MultiWriter(&stdout, e.Stream)
		c.Stderr = io.MultiWriter(&stderr, e.Stream)
	} else {
		c.Stdout = &stdout
		c.Stderr = &stderr
	}

	e.Logger.Debug("executing", zap.String("command", cmd.String()), zap.String("dir", cmd.Dir))
	start := time.Now()
	err := c.Run()
	res := &Result{
		ExitCode: -1,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if c.ProcessState != nil {
		res.ExitCode = c.ProcessState.ExitCode()
	}

	if err != nil {
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			return res, fmt.Errorf("%s: killed after %s: %w", cmd.Name, e.Timeout, ErrCommandFailed)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return res, fmt.Errorf("%s exited with status %d: %s: %w",
				cmd.Name, res.ExitCode, lastLine(res.Stderr), ErrCommandFailed)
		}
		return res, fmt.Errorf("%s: %w", cmd.Name, err)
	}
	e.Logger.Debug("finished", zap.String("command", cmd.Name), zap.Duration("duration", res.Duration))
	return res, nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
