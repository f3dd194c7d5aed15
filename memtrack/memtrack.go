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

// Package memtrack is a tracked allocator for test bodies. Every live
// allocation is recorded with its size and call site, operations and
// bytes are counted, and records can be flagged as baseline so the
// end-of-test leak check ignores them. Misuse (realloc or free of an
// unknown pointer, free of the nil pointer while tracking is active)
// aborts the process with a reserved exit code that the parent runner
// classifies as a crash.
//
// The tracker state is process-wide and single-threaded; test bodies
// must not call it from goroutines they spawn.
package memtrack

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/coreos/crucible/harness/testresult"
)

// Reserved exit codes for fatal allocator misuse. The parent treats
// any of these as a crashed child.
const (
	ExitInvalidRealloc = 86
	ExitInvalidFree    = 87
	ExitNullFree       = 88
)

// IsMisuseExit reports whether an exit code is one of the reserved
// misuse codes.
func IsMisuseExit(code int) bool {
	return code == ExitInvalidRealloc || code == ExitInvalidFree || code == ExitNullFree
}

// Ptr is an opaque handle to a tracked block. The zero value plays the
// role of the nil pointer.
type Ptr uintptr

// Record describes one live allocation.
type Record struct {
	Addr     Ptr
	Size     int
	File     string
	Line     int
	Baseline bool
}

// Stats are the monotonic operation counters. Realloc changes only the
// byte totals, and only by the size delta.
type Stats struct {
	AllocCount     uint64
	FreeCount      uint64
	BytesAllocated uint64
	BytesFreed     uint64
}

var (
	tracking  bool
	leakCheck bool
	stats     Stats

	nextAddr Ptr = 0x1000

	// records holds tracked live allocations; order preserves their
	// recording order for MarkRecentBaseline.
	records map[Ptr]*Record
	order   []Ptr

	// blocks backs every live allocation, tracked or not.
	blocks map[Ptr][]byte
)

func init() {
	Reset()
}

// Reset discards all records, blocks and counters and disables both
// tracking and the leak check. The child runner calls this before
// every test.
func Reset() {
	tracking = false
	leakCheck = false
	stats = Stats{}
	records = make(map[Ptr]*Record)
	order = nil
	blocks = make(map[Ptr][]byte)
}

// Enable turns tracking on. Enabling already-enabled tracking is a
// no-op.
func Enable() { tracking = true }

// Disable turns tracking off; allocations made while disabled are not
// recorded and are invisible to the leak check.
func Disable() { tracking = false }

// Enabled reports whether tracking is active.
func Enabled() bool { return tracking }

// EnableLeakCheck arms the end-of-test leak check.
func EnableLeakCheck() { leakCheck = true }

// DisableLeakCheck disarms it; used by tests that allocate setup state
// they intentionally never free.
func DisableLeakCheck() { leakCheck = false }

// LeakCheckEnabled reports whether the leak check is armed.
func LeakCheckEnabled() bool { return leakCheck }

// Counters returns a copy of the operation counters.
func Counters() Stats { return stats }

// Live returns copies of the live tracked records in recording order.
func Live() []Record {
	out := make([]Record, 0, len(order))
	for _, p := range order {
		out = append(out, *records[p])
	}
	return out
}

// pause disables tracking around the tracker's own bookkeeping so it
// never records itself; resume restores the prior state.
func pause() bool {
	prev := tracking
	tracking = false
	return prev
}

func resume(prev bool) { tracking = prev }

func callsite(skip int) (string, int) {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "?", 0
	}
	return filepath.Base(file), line
}

func fatalMisuse(code int, format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "memtrack: "+format+"\n", args...)
	os.Exit(code)
}

func newBlock(size int) Ptr {
	p := nextAddr
	nextAddr += Ptr(size) + 16
	blocks[p] = make([]byte, size)
	return p
}

// Alloc allocates a block of size bytes and, while tracking is active,
// records it against the caller's location.
func Alloc(size int) Ptr {
	file, line := callsite(2)
	return alloc(size, file, line)
}

// Calloc allocates a zeroed block of n*size bytes.
func Calloc(n, size int) Ptr {
	file, line := callsite(2)
	return alloc(n*size, file, line)
}

func alloc(size int, file string, line int) Ptr {
	p := newBlock(size)
	if !tracking {
		return p
	}
	prev := pause()
	records[p] = &Record{Addr: p, Size: size, File: file, Line: line}
	order = append(order, p)
	stats.AllocCount++
	stats.BytesAllocated += uint64(size)
	resume(prev)
	return p
}

// Realloc resizes the block at p, preserving its contents up to the
// smaller of the two sizes. The record is updated in place: neither
// AllocCount nor FreeCount changes, and the byte totals move only by
// the size delta. Realloc of the nil pointer is an allocation; realloc
// of an unknown pointer while tracking is active is fatal misuse.
func Realloc(p Ptr, size int) Ptr {
	file, line := callsite(2)
	if p == 0 {
		return alloc(size, file, line)
	}

	old, live := blocks[p]
	if !tracking {
		if !live {
			return 0
		}
		np := newBlock(size)
		copy(blocks[np], old)
		delete(blocks, p)
		return np
	}

	rec := records[p]
	if rec == nil {
		fatalMisuse(ExitInvalidRealloc,
			"realloc of unknown pointer 0x%x at %s:%d", uintptr(p), file, line)
	}

	prev := pause()
	np := newBlock(size)
	copy(blocks[np], old)
	delete(blocks, p)

	if size > rec.Size {
		stats.BytesAllocated += uint64(size - rec.Size)
	} else if size < rec.Size {
		stats.BytesFreed += uint64(rec.Size - size)
	}

	delete(records, p)
	rec.Addr = np
	rec.Size = size
	rec.File = file
	rec.Line = line
	records[np] = rec
	for i, q := range order {
		if q == p {
			order[i] = np
			break
		}
	}
	resume(prev)
	return np
}

// Free releases the block at p. Freeing the nil pointer is a no-op
// unless tracking is active, in which case it is fatal misuse, as is
// freeing a pointer with no record (double or invalid free).
func Free(p Ptr) {
	file, line := callsite(2)
	if p == 0 {
		if tracking {
			fatalMisuse(ExitNullFree, "free of NULL at %s:%d", file, line)
		}
		return
	}

	if !tracking {
		delete(blocks, p)
		return
	}

	rec := records[p]
	if rec == nil {
		fatalMisuse(ExitInvalidFree,
			"invalid or double free of pointer 0x%x at %s:%d", uintptr(p), file, line)
	}

	prev := pause()
	stats.FreeCount++
	stats.BytesFreed += uint64(rec.Size)
	delete(records, p)
	delete(blocks, p)
	for i, q := range order {
		if q == p {
			order = append(order[:i], order[i+1:]...)
			break
		}
	}
	resume(prev)
}

// Bytes exposes the backing storage of a live block, nil if p is not
// live.
func Bytes(p Ptr) []byte { return blocks[p] }

// MarkAllBaseline flags every live record as baseline, excluding it
// from the leak check while keeping it tracked so a later free still
// succeeds.
func MarkAllBaseline() {
	for _, rec := range records {
		rec.Baseline = true
	}
}

// MarkRecentBaseline flags the n most recently recorded allocations as
// baseline.
func MarkRecentBaseline(n int) {
	for i := len(order) - 1; i >= 0 && n > 0; i-- {
		records[order[i]].Baseline = true
		n--
	}
}

// LeakFailure enumerates live non-baseline records and, if any exist,
// returns the single failure describing them. The check itself is
// idempotent.
func LeakFailure() *testresult.Failure {
	var leaks []string
	for _, p := range order {
		rec := records[p]
		if rec.Baseline {
			continue
		}
		leaks = append(leaks, fmt.Sprintf("%d bytes at %s:%d", rec.Size, rec.File, rec.Line))
	}
	if len(leaks) == 0 {
		return nil
	}
	return &testresult.Failure{
		File:      "memtrack",
		Line:      0,
		Condition: "No memory leaks",
		Expected:  "all tracked allocations freed",
		Actual:    "Memory leak detected: " + strings.Join(leaks, ", "),
	}
}
