// Copyright 2025 CoreOS, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package exec runs crucible's child processes. It wraps os/exec with
// the pieces the parent runner needs: a kill that is safe on an
// already-dead child, a wait with a wall-clock limit, and a uniform
// view of how the child ended (normal exit, exit code, fatal signal,
// or killed at the deadline).
package exec

import (
	"context"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/coreos/crucible/util"
)

// ExecCmd is exec.Cmd plus crucible's termination handling. Build one
// with Command or RunTestCommand; the embedded Cmd is configured
// directly (Stdout, Stderr, SysProcAttr).
type ExecCmd struct {
	*exec.Cmd
	cancel context.CancelFunc
	wait   sync.Once
}

func Command(name string, arg ...string) *ExecCmd {
	return CommandContext(context.Background(), name, arg...)
}

func CommandContext(ctx context.Context, name string, arg ...string) *ExecCmd {
	ctx, cancel := context.WithCancel(ctx)
	return &ExecCmd{
		Cmd:    exec.CommandContext(ctx, name, arg...),
		cancel: cancel,
	}
}

// Wait reaps the child exactly once; later callers get nil and read
// the outcome from ProcessState.
func (cmd *ExecCmd) Wait() error {
	var err error
	cmd.wait.Do(func() {
		err = cmd.Cmd.Wait()
	})
	return err
}

// Kill forces the child down and reaps it. Dying by the kill signal
// is not an error; safe to call on a child that already exited.
func (cmd *ExecCmd) Kill() error {
	cmd.cancel()
	err := cmd.Wait()
	if err == nil {
		return nil
	}

	if eerr, ok := err.(*exec.ExitError); ok {
		status := eerr.Sys().(syscall.WaitStatus)
		if status.Signal() == syscall.SIGKILL {
			return nil
		}
	}
	return err
}

// Signaled reports whether a reaped child was terminated by a signal.
func (cmd *ExecCmd) Signaled() bool {
	if cmd.ProcessState == nil {
		return false
	}
	status := cmd.ProcessState.Sys().(syscall.WaitStatus)
	return status.Signaled()
}

// Signal returns the signal that terminated the child, 0 if it exited
// normally or has not been reaped.
func (cmd *ExecCmd) Signal() syscall.Signal {
	if !cmd.Signaled() {
		return 0
	}
	status := cmd.ProcessState.Sys().(syscall.WaitStatus)
	return status.Signal()
}

// ExitCode returns the exit code of a normally exited child, -1
// otherwise.
func (cmd *ExecCmd) ExitCode() int {
	if cmd.ProcessState == nil || cmd.Signaled() {
		return -1
	}
	status := cmd.ProcessState.Sys().(syscall.WaitStatus)
	return status.ExitStatus()
}

// Termination is how a child ended, as the parent runner classifies
// it. A child killed at the deadline has TimedOut set and also reports
// Signaled with the kill signal; ExitCode is -1 unless the child
// exited normally.
type Termination struct {
	TimedOut bool
	Signaled bool
	Signal   syscall.Signal
	ExitCode int
}

// Termination snapshots the reaped child's end state.
func (cmd *ExecCmd) Termination(timedOut bool) Termination {
	return Termination{
		TimedOut: timedOut,
		Signaled: cmd.Signaled(),
		Signal:   cmd.Signal(),
		ExitCode: cmd.ExitCode(),
	}
}

// WaitTimeout waits for a started child, polling every poll interval
// until it exits or limit elapses. A child still alive at the
// deadline is killed and reported as timed out. The child is fully
// reaped on return either way.
func (cmd *ExecCmd) WaitTimeout(limit, poll time.Duration) Termination {
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timedOut := false
	if err := util.WaitUntilReady(limit, poll, func() (bool, error) {
		select {
		case err := <-done:
			done <- err
			return true, nil
		default:
			return false, nil
		}
	}); err != nil {
		timedOut = true
		cmd.Kill()
	}
	<-done

	return cmd.Termination(timedOut)
}
