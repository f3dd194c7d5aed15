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

// inspired by github.com/docker/docker/pkg/reexec

package exec

import (
	"os"
	"syscall"
)

// RunTestArg is the first argument of a child-mode invocation. The
// child runs exactly one test and writes its result records to stdout.
const RunTestArg = "--run_test"

var exePath string

func init() {
	// save the program path
	var err error
	exePath, err = os.Readlink("/proc/self/exe")
	if err != nil {
		exePath, err = os.Executable()
		if err != nil {
			panic("cannot get current executable")
		}
	}
}

// SelfPath returns the resolved path of the current executable.
func SelfPath() string {
	return exePath
}

// RunTestCommand prepares the *ExecCmd that re-invokes this executable
// in child mode for one suite/test pair. The child dies with the
// parent.
func RunTestCommand(suite, name string) *ExecCmd {
	cmd := Command(exePath, RunTestArg, suite, name)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Pdeathsig: syscall.SIGTERM,
	}
	return cmd
}
