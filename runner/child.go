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

	"github.com/kballard/go-shellquote"

	"github.com/coreos/crucible/harness"
	"github.com/coreos/crucible/harness/register"
	"github.com/coreos/crucible/memtrack"
	"github.com/coreos/crucible/system/exec"
)

// Reserved child exit codes outside the misuse range.
const (
	// ExitNoSuchTest means no registered descriptor matched the
	// requested suite and test name.
	ExitNoSuchTest = 90

	// ExitBadArgs means the child-mode argv had the wrong shape.
	ExitBadArgs = 91
)

// MaybeRunTest checks whether this process was invoked in child mode
// and, if so, runs the requested test and exits. Must be called before
// any command-line handling; it does not return in child mode.
func MaybeRunTest() {
	if len(os.Args) < 2 || os.Args[1] != exec.RunTestArg {
		return
	}
	if len(os.Args) != 4 {
		// Quote the arguments so whatever came in is unambiguous.
		fmt.Fprintf(os.Stderr, "usage: %s --run_test <suite> <test>; received: %s\n",
			os.Args[0], shellquote.Join(os.Args[1:]...))
		os.Exit(ExitBadArgs)
	}
	os.Exit(runChild(os.Args[2], os.Args[3]))
}

// runChild executes exactly one test. Failures recorded by the body
// and by the leak check accumulate on the current result, which is
// serialized to stdout before the normal exit. Death tests abort the
// process somewhere inside t.Run and never reach serialization.
func runChild(suite, name string) int {
	t := register.Find(suite, name)
	if t == nil {
		fmt.Fprintf(os.Stderr, "no such test: %s\n", shellquote.Join(suite, name))
		return ExitNoSuchTest
	}

	memtrack.Reset()
	memtrack.Enable()
	memtrack.EnableLeakCheck()

	res := harness.BeginTest(suite, name)
	t.Run()

	if memtrack.LeakCheckEnabled() {
		if f := memtrack.LeakFailure(); f != nil {
			res.Append(*f)
		}
	}
	memtrack.Disable()

	res.Finalize()
	os.Stdout.Write(res.MarshalWire())
	return 0
}
