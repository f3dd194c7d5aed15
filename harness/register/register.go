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

// Package register holds the process-wide test registry. Tests are
// registered from init() functions before main runs; the runner then
// iterates them in registration order. Registration and iteration are
// disjoint phases, so the registry is not locked.
package register

import (
	"fmt"
	"syscall"
)

// DefaultMinSimilarity is the fuzzy-match threshold applied to death
// test assertion messages when a test does not set its own.
const DefaultMinSimilarity = 0.95

// DeathExpect declares the abnormal termination a death test expects.
// The zero value of each field means "no expectation" except ExitCode,
// which uses -1 for that purpose.
type DeathExpect struct {
	// Signal is the fatal signal the child must die from, 0 if none
	// is expected.
	Signal syscall.Signal

	// ExitCode is the code the child must exit with, -1 if none is
	// expected.
	ExitCode int

	// AssertMsg, when non-empty, must match the custom assertion
	// message extracted from the child's output.
	AssertMsg string

	// MatchExact selects exact comparison of AssertMsg instead of
	// fuzzy similarity matching.
	MatchExact bool

	// MinSimilarity overrides DefaultMinSimilarity when non-zero.
	MinSimilarity float64
}

// Test binds a suite and test name to the function executed in the
// child process. Descriptors are immutable once registered.
type Test struct {
	// Suite groups consecutive registrations; should be
	// identifier-like.
	Suite string

	// Name is a free-form description, unique within the suite.
	Name string

	// Run is the test body. It records failures through the harness
	// package; a death test is expected to abort the process instead
	// of returning.
	Run func()

	// Death, when set, marks this as a death test.
	Death *DeathExpect
}

// Tests is the ordered registry. Do not mutate directly; use Register.
var Tests []*Test

var index = map[string]*Test{}

func key(suite, name string) string {
	return suite + "\x00" + name
}

// Register is called in init() functions and is how the runner knows
// which tests exist. Panics if the suite/name pair is already taken.
func Register(t *Test) {
	k := key(t.Suite, t.Name)
	if _, ok := index[k]; ok {
		panic(fmt.Sprintf("test %s/%q already registered", t.Suite, t.Name))
	}
	if t.Run == nil {
		panic(fmt.Sprintf("test %s/%q has no body", t.Suite, t.Name))
	}
	if t.Death != nil && t.Death.ExitCode == 0 {
		// A death test can never end with a successful exit; treat
		// the zero value as "no exit-code expectation".
		t.Death.ExitCode = -1
	}
	index[k] = t
	Tests = append(Tests, t)
}

// Find returns the descriptor matching both names exactly, or nil.
func Find(suite, name string) *Test {
	return index[key(suite, name)]
}

// Suites returns the suite names in first-registration order.
func Suites() []string {
	var names []string
	seen := map[string]bool{}
	for _, t := range Tests {
		if !seen[t.Suite] {
			seen[t.Suite] = true
			names = append(names, t.Suite)
		}
	}
	return names
}
