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
	"github.com/coreos/crucible/harness/register"
)

func init() {
	register.Register(&register.Test{
		Suite: "Arithmetic",
		Name:  "adds two positives",
		Run: func() {
			expect(2+3 == 5, "2+3 == 5")
			expect(1+1 == 2, "1+1 == 2")
			expect(1+1 != 3, "1+1 != 3")
		},
	})
	register.Register(&register.Test{
		Suite: "Arithmetic",
		Name:  "multiplication distributes over addition",
		Run: func() {
			a, b, c := 7, 4, 9
			expectEq(a*(b+c), a*b+a*c, "a*(b+c) == a*b + a*c")
		},
	})
}
