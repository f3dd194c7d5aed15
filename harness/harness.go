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

// Package harness holds the in-child test state: the one current
// result that assertion helpers record failures against, and the
// scoped stdout capture used by output assertions. Assertion
// vocabularies are built on top of RecordFailure; the framework itself
// only defines the sink.
package harness

import (
	"path/filepath"
	"runtime"

	"github.com/coreos/crucible/harness/testresult"
)

// current is the result of the test executing in this process.
// Exactly one test runs per child, so there is no locking; failures
// are appended in the order they are observed.
var current *testresult.Result

// BeginTest installs a fresh current result for the named test and
// returns it.
func BeginTest(suite, name string) *testresult.Result {
	current = &testresult.Result{
		SuiteName: suite,
		TestName:  name,
	}
	return current
}

// Current returns the result of the running test, nil outside a child.
func Current() *testresult.Result {
	return current
}

// RecordFailure appends an assertion failure to the current test
// result. It is the sink every assertion helper funnels into. Calls
// made while no test is running are dropped.
func RecordFailure(file string, line int, condition, expected, actual string) {
	if current == nil {
		return
	}
	current.Append(testresult.Failure{
		File:      file,
		Line:      line,
		Condition: condition,
		Expected:  expected,
		Actual:    actual,
	})
}

// Caller returns the file base name and line of the caller's caller,
// for assertion helpers that stamp failures with their call site.
func Caller(skip int) (string, int) {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return "?", 0
	}
	return filepath.Base(file), line
}
