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

package memtrack

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fresh() {
	Reset()
	Enable()
}

func TestCountersTrackLiveRecords(t *testing.T) {
	fresh()
	p := Alloc(100)
	q := Calloc(3, 8)

	stats := Counters()
	assert.Equal(t, uint64(2), stats.AllocCount)
	assert.Equal(t, uint64(124), stats.BytesAllocated)
	assert.Len(t, Live(), 2)

	Free(p)
	stats = Counters()
	assert.Equal(t, uint64(1), stats.FreeCount)
	assert.Equal(t, uint64(100), stats.BytesFreed)
	assert.Len(t, Live(), 1)

	Free(q)
	stats = Counters()
	// alloc_count - free_count equals the number of live records.
	assert.Equal(t, stats.AllocCount, stats.FreeCount)
	assert.Empty(t, Live())
	assert.Equal(t, stats.BytesAllocated, stats.BytesFreed)
}

func TestReallocDeltaSemantics(t *testing.T) {
	fresh()
	p := Alloc(50)

	p = Realloc(p, 80)
	stats := Counters()
	assert.Equal(t, uint64(1), stats.AllocCount, "realloc is not an allocation")
	assert.Equal(t, uint64(80), stats.BytesAllocated, "grow adds the delta")
	assert.Equal(t, uint64(0), stats.BytesFreed)

	p = Realloc(p, 30)
	stats = Counters()
	assert.Equal(t, uint64(80), stats.BytesAllocated)
	assert.Equal(t, uint64(50), stats.BytesFreed, "shrink frees the delta")

	live := Live()
	require.Len(t, live, 1)
	assert.Equal(t, 30, live[0].Size)

	Free(p)
	assert.Equal(t, uint64(1), Counters().FreeCount)
}

func TestReallocNilIsAlloc(t *testing.T) {
	fresh()
	p := Realloc(0, 25)
	require.NotZero(t, p)
	stats := Counters()
	assert.Equal(t, uint64(1), stats.AllocCount)
	assert.Equal(t, uint64(25), stats.BytesAllocated)
	Free(p)
}

func TestReallocPreservesContents(t *testing.T) {
	fresh()
	p := Alloc(4)
	copy(Bytes(p), "data")
	q := Realloc(p, 16)
	assert.Equal(t, "data", string(Bytes(q)[:4]))
	assert.Nil(t, Bytes(p), "old block is gone")
	Free(q)
}

func TestBaselineExcludedFromLeaks(t *testing.T) {
	fresh()
	Alloc(32)
	Alloc(64)
	MarkAllBaseline()
	require.Nil(t, LeakFailure())

	Alloc(100)
	f := LeakFailure()
	require.NotNil(t, f)
	assert.Equal(t, "No memory leaks", f.Condition)
	assert.Contains(t, f.Actual, "Memory leak detected")
	assert.Contains(t, f.Actual, "100 bytes")
	assert.False(t, strings.Contains(f.Actual, "32 bytes"))

	// The check is idempotent.
	again := LeakFailure()
	require.NotNil(t, again)
	assert.Equal(t, f.Actual, again.Actual)
}

func TestMarkRecentBaseline(t *testing.T) {
	fresh()
	old := Alloc(10)
	Alloc(20)
	Alloc(30)
	MarkRecentBaseline(2)

	f := LeakFailure()
	require.NotNil(t, f)
	assert.Contains(t, f.Actual, "10 bytes")
	assert.NotContains(t, f.Actual, "20 bytes")
	assert.NotContains(t, f.Actual, "30 bytes")

	// Baseline records stay tracked, so freeing them still counts.
	Free(old)
	assert.Equal(t, uint64(1), Counters().FreeCount)
}

func TestBaselineFreeIsNotMisuse(t *testing.T) {
	fresh()
	p := Alloc(8)
	MarkAllBaseline()
	Free(p)
	assert.Empty(t, Live())
}

func TestDisabledOpsAreInvisible(t *testing.T) {
	fresh()
	Disable()
	p := Alloc(40)
	require.NotZero(t, p)
	assert.Equal(t, uint64(0), Counters().AllocCount)
	assert.Empty(t, Live())
	assert.Nil(t, LeakFailure())

	Free(p)
	assert.Equal(t, uint64(0), Counters().FreeCount)
}

func TestEnableIdempotent(t *testing.T) {
	fresh()
	Enable()
	Enable()
	assert.True(t, Enabled())
	Disable()
	Disable()
	assert.False(t, Enabled())
}

func TestFreeNilWhileDisabledIsNoop(t *testing.T) {
	Reset()
	Free(0) // must not abort
	assert.Equal(t, uint64(0), Counters().FreeCount)
}

func TestLeakCheckToggle(t *testing.T) {
	Reset()
	assert.False(t, LeakCheckEnabled())
	EnableLeakCheck()
	assert.True(t, LeakCheckEnabled())
	DisableLeakCheck()
	assert.False(t, LeakCheckEnabled())
}

func TestIsMisuseExit(t *testing.T) {
	assert.True(t, IsMisuseExit(ExitInvalidRealloc))
	assert.True(t, IsMisuseExit(ExitInvalidFree))
	assert.True(t, IsMisuseExit(ExitNullFree))
	assert.False(t, IsMisuseExit(0))
	assert.False(t, IsMisuseExit(1))
	assert.False(t, IsMisuseExit(90))
}

func TestBlockContentsZeroed(t *testing.T) {
	fresh()
	p := Calloc(8, 4)
	for _, b := range Bytes(p) {
		require.Zero(t, b)
	}
	assert.Len(t, Bytes(p), 32)
	Free(p)
}
