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

package runner

import (
	"fmt"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/coreos/crucible/harness"
	"github.com/coreos/crucible/harness/register"
	"github.com/coreos/crucible/harness/testresult"
	"github.com/coreos/crucible/memtrack"
	"github.com/coreos/crucible/system/exec"
)

// The test binary doubles as the child executable: fixtures are
// registered before MaybeRunTest so a spawned child finds them.
func TestMain(m *testing.M) {
	registerFixtures()
	MaybeRunTest()
	os.Exit(m.Run())
}

func registerFixtures() {
	register.Register(&register.Test{
		Suite: "EndToEnd", Name: "passes",
		Run: func() {},
	})
	register.Register(&register.Test{
		Suite: "EndToEnd", Name: "records failures in order",
		Run: func() {
			fmt.Println("some test chatter")
			harness.RecordFailure("fix.go", 1, "first", "a", "b")
			harness.RecordFailure("fix.go", 2, "second", "", "")
			harness.RecordFailure("fix.go", 3, "third", "x", "y")
		},
	})

	register.Register(&register.Test{
		Suite: "Leaky", Name: "leaks memory",
		Run: func() {
			memtrack.Alloc(100)
		},
	})

	register.Register(&register.Test{
		Suite: "Misuse", Name: "frees NULL",
		Run: func() {
			memtrack.Free(0)
		},
	})
	register.Register(&register.Test{
		Suite: "Misuse", Name: "frees an unknown pointer",
		Run: func() {
			memtrack.Free(memtrack.Ptr(0xdead))
		},
	})

	register.Register(&register.Test{
		Suite: "DeathBySignal", Name: "dies by SIGSEGV",
		Death: &register.DeathExpect{Signal: unix.SIGSEGV, ExitCode: -1},
		Run: func() {
			// The Go runtime turns a SIGSEGV it catches into exit
			// status 2; restore the default disposition so the
			// process really dies by the signal.
			var dfl [4]uint64 // kernel sigaction, all zero: SIG_DFL
			syscall.RawSyscall6(syscall.SYS_RT_SIGACTION, uintptr(unix.SIGSEGV),
				uintptr(unsafe.Pointer(&dfl)), 0, 8, 0, 0)
			unix.Kill(unix.Getpid(), unix.SIGSEGV)
		},
	})
	register.Register(&register.Test{
		Suite: "DeathMismatch", Name: "returns instead of dying",
		Death: &register.DeathExpect{Signal: unix.SIGSEGV, ExitCode: -1},
		Run: func() {},
	})

	register.Register(&register.Test{
		Suite: "Slow", Name: "sleeps past the timeout",
		Run: func() {
			for {
				time.Sleep(time.Second)
			}
		},
	})

	register.Register(&register.Test{
		Suite: "Stdout", Name: "prints mismatched output",
		Run: func() {
			out, _ := harness.CaptureStdout(func() {
				fmt.Print("hello\n")
			})
			if out != "hi\n" {
				harness.RecordFailure("fix.go", 9,
					testresult.StdoutTag+" output matches", "hi\n", out)
			}
		},
	})

	register.Register(&register.Test{
		Suite: "Crashy", Name: "exits nonzero",
		Run: func() {
			os.Exit(3)
		},
	})
	register.Register(&register.Test{
		Suite: "Crashy", Name: "kills itself",
		Run: func() {
			unix.Kill(unix.Getpid(), unix.SIGKILL)
		},
	})

	register.Register(&register.Test{
		Suite: "OrderA", Name: "a1", Run: func() {},
	})
	register.Register(&register.Test{
		Suite: "OrderA", Name: "a2", Run: func() {},
	})
	register.Register(&register.Test{
		Suite: "OrderB", Name: "b1", Run: func() {},
	})
}

// recorder collects reporter events for inspection.
type recorder struct {
	events  []string
	results []*testresult.Result
}

func (r *recorder) RunStarted(total int) {
	r.events = append(r.events, fmt.Sprintf("run:%d", total))
}

func (r *recorder) SuiteStarted(n string) {
	r.events = append(r.events, "suite:"+n)
}
func (r *recorder) TestFinished(res *testresult.Result) {
	r.events = append(r.events, "test:"+res.TestName)
	r.results = append(r.results, res)
}
func (r *recorder) SuiteFinished(s *testresult.SuiteSummary) {
	r.events = append(r.events, fmt.Sprintf("end:%s:%s", s.Name, s.Glyphs))
}
func (r *recorder) RunFinished(run *testresult.RunSummary) {
	r.events = append(r.events, "done")
}

func runSuite(t *testing.T, suite string, opts Options) (*testresult.RunSummary, *recorder, error) {
	t.Helper()
	rec := &recorder{}
	opts.Suite = suite
	opts.Reporters = append(opts.Reporters, rec)
	run, err := Run(opts)
	return run, rec, err
}

func TestPassingAndFailingTests(t *testing.T) {
	run, rec, err := runSuite(t, "EndToEnd", Options{})
	require.Error(t, err) // the failure fixture is in this suite
	require.Len(t, rec.results, 2)

	pass := rec.results[0]
	assert.Equal(t, "passes", pass.TestName)
	assert.Equal(t, testresult.Passed, pass.Status)
	assert.Empty(t, pass.Failures)

	fail := rec.results[1]
	assert.Equal(t, testresult.Failed, fail.Status)
	require.Len(t, fail.Failures, 3)
	assert.Equal(t, "first", fail.Failures[0].Condition)
	assert.Equal(t, "second", fail.Failures[1].Condition)
	assert.Equal(t, "third", fail.Failures[2].Condition)
	assert.Contains(t, string(fail.Output), "some test chatter")

	assert.Equal(t, 2, run.Total)
	assert.Equal(t, 1, run.Passed)
}

func TestLeakDetection(t *testing.T) {
	_, rec, err := runSuite(t, "Leaky", Options{})
	assert.ErrorIs(t, err, ErrTestsFailed)
	require.Len(t, rec.results, 1)

	r := rec.results[0]
	assert.Equal(t, testresult.Failed, r.Status)
	require.Len(t, r.Failures, 1)
	assert.Equal(t, "No memory leaks", r.Failures[0].Condition)
	assert.Contains(t, r.Failures[0].Actual, "100 bytes")
}

func TestAllocatorMisuseCrashes(t *testing.T) {
	_, rec, err := runSuite(t, "Misuse", Options{})
	assert.ErrorIs(t, err, ErrTestsFailed)
	require.Len(t, rec.results, 2)

	nullFree := rec.results[0]
	assert.Equal(t, testresult.Crashed, nullFree.Status)
	assert.Contains(t, string(nullFree.Output), "free of NULL")

	badFree := rec.results[1]
	assert.Equal(t, testresult.Crashed, badFree.Status)
	assert.Contains(t, string(badFree.Output), "invalid or double free")
}

func TestDeathTestPasses(t *testing.T) {
	run, rec, err := runSuite(t, "DeathBySignal", Options{})
	require.NoError(t, err)
	require.Len(t, rec.results, 1)
	assert.Equal(t, testresult.DeathTestPassed, rec.results[0].Status)
	assert.True(t, run.Ok())
}

func TestDeathTestMismatch(t *testing.T) {
	_, rec, err := runSuite(t, "DeathMismatch", Options{})
	assert.ErrorIs(t, err, ErrTestsFailed)
	require.Len(t, rec.results, 1)

	r := rec.results[0]
	assert.Equal(t, testresult.Failed, r.Status)
	assert.Contains(t, string(r.Output), "exited successfully")
}

func TestTimeout(t *testing.T) {
	_, rec, err := runSuite(t, "Slow", Options{Timeout: 300 * time.Millisecond})
	assert.ErrorIs(t, err, ErrTestsFailed)
	require.Len(t, rec.results, 1)

	r := rec.results[0]
	assert.Equal(t, testresult.Timeout, r.Status)
	assert.Equal(t, TimeoutMessage, string(r.Output))
	assert.GreaterOrEqual(t, r.Duration, 300*time.Millisecond)
}

func TestCapturedOutputMismatch(t *testing.T) {
	_, rec, err := runSuite(t, "Stdout", Options{})
	assert.ErrorIs(t, err, ErrTestsFailed)
	require.Len(t, rec.results, 1)

	r := rec.results[0]
	assert.Equal(t, testresult.Failed, r.Status)
	require.Len(t, r.Failures, 1)
	assert.True(t, strings.HasPrefix(r.Failures[0].Condition, testresult.StdoutTag))
	assert.Equal(t, "hello\n", r.Failures[0].Actual)
}

func TestUnexpectedTerminationIsCrash(t *testing.T) {
	_, rec, err := runSuite(t, "Crashy", Options{})
	assert.ErrorIs(t, err, ErrTestsFailed)
	require.Len(t, rec.results, 2)
	assert.Equal(t, testresult.Crashed, rec.results[0].Status)
	assert.Equal(t, testresult.Crashed, rec.results[1].Status)
}

func TestSuiteBoundariesAndOrder(t *testing.T) {
	runA, recA, err := runSuite(t, "OrderA", Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"run:2", "suite:OrderA", "test:a1", "test:a2", "end:OrderA:++", "done"},
		recA.events)
	require.Len(t, runA.Suites, 1)
	assert.Equal(t, "++", runA.Suites[0].Glyphs)

	_, recB, err := runSuite(t, "OrderB", Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"run:1", "suite:OrderB", "test:b1", "end:OrderB:+", "done"},
		recB.events)
}

func TestNoMatchingTests(t *testing.T) {
	_, err := Run(Options{Suite: "NoSuchSuite"})
	assert.ErrorIs(t, err, ErrNoTests)
}

func TestChildNoSuchTest(t *testing.T) {
	cmd := exec.RunTestCommand("Nope", "nothing here")
	out, _ := cmd.CombinedOutput()
	assert.Equal(t, ExitNoSuchTest, cmd.ExitCode())
	assert.Contains(t, string(out), "no such test")
}

func TestChildBadArgs(t *testing.T) {
	cmd := exec.Command(exec.SelfPath(), exec.RunTestArg, "only-one-arg")
	out, _ := cmd.CombinedOutput()
	assert.Equal(t, ExitBadArgs, cmd.ExitCode())
	assert.Contains(t, string(out), "received:")
}
