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
	"time"

	"github.com/coreos/crucible/harness/reporters"
)

const (
	// DefaultTimeout is the per-test wall-clock limit.
	DefaultTimeout = 2 * time.Second

	// DefaultMaxOutput caps how much child output the parent keeps.
	DefaultMaxOutput = 1 << 20

	// pollInterval is the sleep between child liveness checks.
	pollInterval = 10 * time.Millisecond
)

// Options configures a test run.
type Options struct {
	// Suite restricts the run to tests whose suite name matches
	// exactly; empty runs everything.
	Suite string

	// Timeout is the per-test wall-clock limit; 0 means
	// DefaultTimeout.
	Timeout time.Duration

	// MaxOutput caps the captured output per test; 0 means
	// DefaultMaxOutput.
	MaxOutput int

	// Reporters receive run events.
	Reporters reporters.Reporters
}

func (o *Options) init() {
	if o.Timeout == 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MaxOutput == 0 {
		o.MaxOutput = DefaultMaxOutput
	}
}
