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
	"os"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/coreos/crucible/harness/register"
)

func init() {
	register.Register(&register.Test{
		Suite: "Death",
		Name:  "dies by segmentation fault",
		Death: &register.DeathExpect{
			Signal:   syscall.SIGSEGV,
			ExitCode: -1,
		},
		Run: func() {
			// The Go runtime turns a SIGSEGV it catches into exit
			// status 2; restore the default disposition so the
			// process really dies by the signal.
			var dfl [4]uint64 // kernel sigaction, all zero: SIG_DFL
			syscall.RawSyscall6(syscall.SYS_RT_SIGACTION, uintptr(syscall.SIGSEGV),
				uintptr(unsafe.Pointer(&dfl)), 0, 8, 0, 0)
			unix.Kill(unix.Getpid(), unix.SIGSEGV)
		},
	})
	register.Register(&register.Test{
		Suite: "Death",
		Name:  "reports the assertion message",
		Death: &register.DeathExpect{
			ExitCode:  134,
			AssertMsg: "queue must not be empty",
		},
		Run: func() {
			fmt.Fprintln(os.Stderr,
				`Assertion failed: q->len > 0 && "queue must not be empty" on file queue.c line 87`)
			os.Exit(134)
		},
	})
}
