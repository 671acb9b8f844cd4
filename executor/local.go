package executor

import (
	"bytes"
	"context"
	"os/exec"
	"runtime"
)

// LocalExecutor runs commands on the machine the collector itself is
// running on, via /bin/sh -c (or cmd /C on Windows). It exists for
// local-ephemeral collection and for tests; production audits of a
// remote host use SshExecutor or WinRmExecutor instead.
type LocalExecutor struct{}

// NewLocalExecutor returns a LocalExecutor.
func NewLocalExecutor() *LocalExecutor { return &LocalExecutor{} }

func (e *LocalExecutor) Execute(ctx context.Context, command string) (Result, error) {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.Command("cmd", "/C", command)
	} else {
		cmd = exec.Command("sh", "-c", command)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	var exitCode *int32
	if cmd.ProcessState != nil {
		code := int32(cmd.ProcessState.ExitCode())
		exitCode = &code
	}

	// A non-zero exit is expected behaviour for many allow-listed commands
	// (e.g. "dpkg -l" on an rpm host): report it, don't fail the call.
	if runErr != nil {
		if _, ok := runErr.(*exec.ExitError); !ok {
			return Result{Stdout: stdout.String(), Stderr: stderr.String()}, runErr
		}
	}

	return Result{ExitCode: exitCode, Stdout: stdout.String(), Stderr: stderr.String()}, nil
}

func (e *LocalExecutor) Close() error { return nil }
