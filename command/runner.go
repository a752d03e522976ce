package command

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// Result holds what a finished process wrote and how it exited.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// LineFunc receives output lines as they are produced.
type LineFunc func(line string)

// Runner executes commands. ExecRunner is the real implementation; tests
// substitute their own.
type Runner interface {
	// Run starts cmd and blocks until it exits. Each stdout line is passed
	// to onLine when it is non-nil. A non-zero exit returns a *ExitError
	// together with the captured Result.
	Run(ctx context.Context, cmd Command, onLine LineFunc) (*Result, error)
}

// ExitError reports a process that ran but exited unsuccessfully.
type ExitError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("%s exited with status %d", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("%s exited with status %d: %s", e.Command, e.ExitCode, msg)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// NewExecRunner returns a Runner backed by os/exec.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run implements Runner. Cancelling ctx kills the process.
func (r *ExecRunner) Run(ctx context.Context, c Command, onLine LineFunc) (*Result, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s command: %w", c.GetTaskType(), err)
	}

	cmd := exec.CommandContext(ctx, c.Binary(), c.BuildArgs()...)
	// grandchildren holding the pipes must not block Wait after a kill
	cmd.WaitDelay = 2 * time.Second

	var out, stderr bytes.Buffer
	pr, pw := io.Pipe()
	cmd.Stdout = io.MultiWriter(&out, pw)
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		pw.Close()
		return nil, fmt.Errorf("failed to start %s: %w", c.Binary(), err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		streamLines(pr, onLine)
	}()

	waitErr := cmd.Wait()
	pw.Close()
	wg.Wait()

	result := &Result{
		Stdout:   out.String(),
		Stderr:   stderr.String(),
		ExitCode: cmd.ProcessState.ExitCode(),
	}

	if waitErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, fmt.Errorf("%s interrupted: %w", c.Binary(), ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return result, &ExitError{Command: c.Binary(), ExitCode: result.ExitCode, Stderr: result.Stderr}
		}
		return result, fmt.Errorf("%s failed: %w", c.Binary(), waitErr)
	}

	return result, nil
}

func streamLines(r io.Reader, onLine LineFunc) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	scanner.Split(ScanLines)

	for scanner.Scan() {
		if onLine != nil {
			onLine(scanner.Text())
		}
	}
	// Keep draining so the process never blocks on a full pipe.
	_, _ = io.Copy(io.Discard, r)
}

// ScanLines is a bufio.SplitFunc that treats \r, \n and \r\n as line
// terminators. Progress meters rewrite their line with a bare \r.
func ScanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		advance = i + 1
		if data[i] == '\r' && i+1 < len(data) && data[i+1] == '\n' {
			advance++
		} else if data[i] == '\r' && i+1 == len(data) && !atEOF {
			// need more data to tell \r from \r\n
			return 0, nil, nil
		}
		return advance, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// Render formats a command line for display, quoting arguments that
// contain spaces.
func Render(binary string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, binary)
	for _, arg := range args {
		if arg == "" || strings.ContainsAny(arg, " \t\"'") {
			arg = fmt.Sprintf("%q", arg)
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}
