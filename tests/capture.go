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

package tests

import (
	"fmt"

	"github.com/coreos/crucible/harness"
	"github.com/coreos/crucible/harness/register"
)

func init() {
	register.Register(&register.Test{
		Suite: "Capture",
		Name:  "captures stdout for the scope of a block",
		Run: func() {
			out, err := harness.CaptureStdout(func() {
				fmt.Println("hello")
			})
			expect(err == nil, "capture succeeds")
			expectOutput(out, "hello\n")
		},
	})
	register.Register(&register.Test{
		Suite: "Capture",
		Name:  "restores stdout after the block",
		Run: func() {
			_, err := harness.CaptureStdout(func() {})
			expect(err == nil, "capture succeeds")

			// This write must reach the parent's captured output,
			// not the drained pipe.
			fmt.Println("after capture")
		},
	})
}
