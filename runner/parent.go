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

// Package runner executes registered tests. The parent half spawns
// one sandboxed child process per test, enforces the wall-clock
// timeout, captures the merged output, and classifies the
// termination; the child half runs exactly one test body and reports
// back over stdout.
package runner

import (
	"io"
	"os"
	"time"

	"github.com/coreos/pkg/capnslog"
	"github.com/kballard/go-shellquote"
	"github.com/pkg/errors"

	"github.com/coreos/crucible/harness/register"
	"github.com/coreos/crucible/harness/testresult"
	"github.com/coreos/crucible/memtrack"
	"github.com/coreos/crucible/system/exec"
)

// TimeoutMessage replaces whatever a timed-out child managed to print.
const TimeoutMessage = "Test exceeded timeout."

var (
	// ErrNoTests means the registry (after filtering) was empty.
	ErrNoTests = errors.New("runner: no tests to run")

	// ErrTestsFailed means at least one executed test did not pass.
	ErrTestsFailed = errors.New("runner: test run failed")
)

var plog = capnslog.NewPackageLogger("github.com/coreos/crucible", "runner")

// Run executes every registered test matching opts in registration
// order and reports the aggregate. Returns ErrTestsFailed when any
// test did not pass, ErrNoTests when nothing matched.
func Run(opts Options) (*testresult.RunSummary, error) {
	opts.init()

	var tests []*register.Test
	for _, t := range register.Tests {
		if opts.Suite == "" || opts.Suite == t.Suite {
			tests = append(tests, t)
		}
	}
	if len(tests) == 0 {
		return nil, ErrNoTests
	}

	run := &testresult.RunSummary{}
	opts.Reporters.RunStarted(len(tests))
	runStart := time.Now()

	var suite *testresult.SuiteSummary
	for _, t := range tests {
		if suite == nil || suite.Name != t.Suite {
			if suite != nil {
				opts.Reporters.SuiteFinished(suite)
			}
			suite = run.BeginSuite(t.Suite)
			opts.Reporters.SuiteStarted(t.Suite)
		}

		r := runOne(t, opts)
		suite.Observe(r)
		run.Observe(r)
		opts.Reporters.TestFinished(r)
	}
	if suite != nil {
		opts.Reporters.SuiteFinished(suite)
	}

	run.Duration = time.Since(runStart)
	opts.Reporters.RunFinished(run)

	if !run.Ok() {
		return run, ErrTestsFailed
	}
	return run, nil
}

// runOne executes a single test in a child process and classifies the
// outcome. Framework errors (failure to spawn) surface as a synthetic
// failed result so the run continues.
func runOne(t *register.Test, opts Options) *testresult.Result {
	start := time.Now()
	r, err := executeChild(t, opts)
	if err != nil {
		plog.Errorf("%s/%q: %v", t.Suite, t.Name, err)
		r = &testresult.Result{
			SuiteName: t.Suite,
			TestName:  t.Name,
			Status:    testresult.Failed,
			Output:    []byte(err.Error()),
			Failures: []testresult.Failure{{
				File:      "runner",
				Condition: "test process could not be run",
				Actual:    err.Error(),
			}},
		}
	}
	r.Duration = time.Since(start)
	return r
}

func executeChild(t *register.Test, opts Options) (*testresult.Result, error) {
	cmd := exec.RunTestCommand(t.Suite, t.Name)

	// One pipe carries the merged stdout and stderr; closing the
	// parent's write end guarantees the read ends at EOF once the
	// child exits.
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, errors.Wrap(err, "output pipe")
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	plog.Debugf("spawning %s", shellquote.Join(exec.SelfPath(), exec.RunTestArg, t.Suite, t.Name))
	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return nil, errors.Wrap(err, "spawning child")
	}
	pw.Close()

	collected := make(chan []byte, 1)
	go func() {
		defer pr.Close()
		b, _ := io.ReadAll(io.LimitReader(pr, int64(opts.MaxOutput)))
		io.Copy(io.Discard, pr) // drain past the cap so the child never blocks
		collected <- b
	}()

	term := cmd.WaitTimeout(opts.Timeout, pollInterval)
	out := <-collected

	return classify(t, term, out), nil
}

// classify is the single-pass outcome decision described by the
// status model: a function of (timeout, signal, exit code, death
// expectation, captured output).
func classify(t *register.Test, term exec.Termination, out []byte) *testresult.Result {
	r := &testresult.Result{
		SuiteName: t.Suite,
		TestName:  t.Name,
		Output:    out,
	}

	switch {
	case term.TimedOut:
		r.Status = testresult.Timeout
		r.Output = []byte(TimeoutMessage)

	case !term.Signaled && memtrack.IsMisuseExit(term.ExitCode):
		r.Status = testresult.Crashed

	case t.Death != nil:
		if ok, diagnosis := evalDeath(t.Death, term, string(out)); ok {
			r.Status = testresult.DeathTestPassed
		} else {
			r.Status = testresult.Failed
			r.Output = []byte(diagnosis)
		}

	case !term.Signaled && term.ExitCode == 0:
		child, err := testresult.UnmarshalWire(out)
		if err != nil {
			plog.Errorf("%s/%q: %v", t.Suite, t.Name, err)
			r.Status = testresult.Failed
			r.Append(testresult.Failure{
				File:      "runner",
				Condition: "malformed result stream from child",
				Actual:    err.Error(),
			})
			break
		}
		r.Status = child.Status
		r.Failures = child.Failures

	default:
		r.Status = testresult.Crashed
	}

	return r
}
