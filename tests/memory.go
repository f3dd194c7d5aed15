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
	"github.com/coreos/crucible/memtrack"
)

func init() {
	register.Register(&register.Test{
		Suite: "Memory",
		Name:  "counts allocations and frees",
		Run: func() {
			p := memtrack.Alloc(64)
			q := memtrack.Calloc(4, 8)
			stats := memtrack.Counters()
			expectEq(stats.AllocCount, uint64(2), "two allocations recorded")
			expectEq(stats.BytesAllocated, uint64(96), "96 bytes allocated")

			memtrack.Free(p)
			memtrack.Free(q)
			stats = memtrack.Counters()
			expectEq(stats.FreeCount, uint64(2), "two frees recorded")
			expectEq(stats.BytesFreed, uint64(96), "96 bytes freed")
		},
	})
	register.Register(&register.Test{
		Suite: "Memory",
		Name:  "realloc preserves contents and moves the record",
		Run: func() {
			p := memtrack.Alloc(4)
			copy(memtrack.Bytes(p), "abcd")

			q := memtrack.Realloc(p, 8)
			expectEq(string(memtrack.Bytes(q)[:4]), "abcd", "contents preserved across realloc")

			stats := memtrack.Counters()
			expectEq(stats.AllocCount, uint64(1), "realloc does not count as an allocation")
			expectEq(stats.BytesAllocated, uint64(8), "grow adds only the delta")

			memtrack.Free(q)
		},
	})
	register.Register(&register.Test{
		Suite: "Memory",
		Name:  "baseline allocations are ignored by the leak check",
		Run: func() {
			// Setup state that intentionally outlives the test.
			memtrack.Alloc(32)
			memtrack.MarkAllBaseline()

			p := memtrack.Alloc(16)
			memtrack.Free(p)
		},
	})
}
