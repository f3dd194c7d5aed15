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

// Package tests holds the bundled test suites run by the crucible
// binary. Each file registers its suite from init(); the assertion
// helpers here are a thin layer over the harness record-failure sink.
package tests

import (
	"fmt"

	"github.com/coreos/crucible/harness"
	"github.com/coreos/crucible/harness/testresult"
)

// expect records a failure against the current test when ok is false.
// Execution continues so later assertions still run.
func expect(ok bool, condition string) {
	if ok {
		return
	}
	file, line := harness.Caller(1)
	harness.RecordFailure(file, line, condition, "", "")
}

func expectEq(got, want interface{}, condition string) {
	if got == want {
		return
	}
	file, line := harness.Caller(1)
	harness.RecordFailure(file, line, condition,
		fmt.Sprintf("%v", want), fmt.Sprintf("%v", got))
}

// expectOutput compares captured stdout against want; mismatches are
// tagged for escaped printing by the reporter.
func expectOutput(got, want string) {
	if got == want {
		return
	}
	file, line := harness.Caller(1)
	harness.RecordFailure(file, line,
		testresult.StdoutTag+" captured output matches", want, got)
}
