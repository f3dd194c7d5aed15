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

// Package reporters defines the event callbacks the runner invokes as
// a test run progresses, and the bundled console, CI and JSON
// reporters.
package reporters

import (
	"github.com/coreos/crucible/harness/testresult"
)

// Reporter receives run events in order: RunStarted, then for each
// suite SuiteStarted, TestFinished per test, SuiteFinished, and
// finally RunFinished.
type Reporter interface {
	RunStarted(total int)
	SuiteStarted(name string)
	TestFinished(r *testresult.Result)
	SuiteFinished(s *testresult.SuiteSummary)
	RunFinished(run *testresult.RunSummary)
}

// Reporters fans events out to each member in order.
type Reporters []Reporter

func (reps Reporters) RunStarted(total int) {
	for _, r := range reps {
		r.RunStarted(total)
	}
}

func (reps Reporters) SuiteStarted(name string) {
	for _, r := range reps {
		r.SuiteStarted(name)
	}
}

func (reps Reporters) TestFinished(res *testresult.Result) {
	for _, r := range reps {
		r.TestFinished(res)
	}
}

func (reps Reporters) SuiteFinished(s *testresult.SuiteSummary) {
	for _, r := range reps {
		r.SuiteFinished(s)
	}
}

func (reps Reporters) RunFinished(run *testresult.RunSummary) {
	for _, r := range reps {
		r.RunFinished(run)
	}
}
