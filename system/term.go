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

package system

import (
	"os"

	"golang.org/x/term"
)

// IsTerminal reports whether f refers to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// ColorEnabled reports whether the runner may emit ANSI color codes:
// stdout must be a terminal and NO_COLOR must be unset. Detection runs
// once at parent start; children never emit color on their own.
func ColorEnabled() bool {
	if _, noColor := os.LookupEnv("NO_COLOR"); noColor {
		return false
	}
	return IsTerminal(os.Stdout)
}

// EnableANSI turns on virtual-terminal processing where terminals need
// an explicit opt-in for ANSI sequences. POSIX terminals do not, so
// this is a no-op here.
func EnableANSI() error {
	return nil
}
