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

package harness

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// CaptureStdout redirects file descriptor 1 into a pipe for the scope
// of fn and returns everything written to it. The redirection is at
// the descriptor level so writes that bypass os.Stdout are caught too.
// The original descriptor is restored on the way out, panics included;
// if fn aborts the process instead, restoration never happens, which
// is fine since the process is gone.
func CaptureStdout(fn func()) (out string, err error) {
	r, w, err := os.Pipe()
	if err != nil {
		return "", errors.Wrap(err, "harness: capture pipe")
	}

	savedFd, err := unix.Dup(1)
	if err != nil {
		r.Close()
		w.Close()
		return "", errors.Wrap(err, "harness: dup stdout")
	}

	collected := make(chan string, 1)
	go func() {
		b, _ := io.ReadAll(r)
		collected <- string(b)
	}()

	oldStdout := os.Stdout
	if err := unix.Dup2(int(w.Fd()), 1); err != nil {
		unix.Close(savedFd)
		r.Close()
		w.Close()
		return "", errors.Wrap(err, "harness: redirect stdout")
	}
	os.Stdout = w

	defer func() {
		os.Stdout = oldStdout
		unix.Dup2(savedFd, 1)
		unix.Close(savedFd)
		w.Close()
		out = <-collected
		r.Close()
	}()

	fn()
	return
}
