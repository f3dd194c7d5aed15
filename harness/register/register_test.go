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

package register

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reset() {
	Tests = nil
	index = map[string]*Test{}
}

func TestRegistrationOrderPreserved(t *testing.T) {
	reset()
	names := []string{"one", "two", "three", "four"}
	for _, n := range names {
		Register(&Test{Suite: "S", Name: n, Run: func() {}})
	}
	require.Len(t, Tests, len(names))
	for i, tt := range Tests {
		assert.Equal(t, names[i], tt.Name)
	}
}

func TestFindExactMatch(t *testing.T) {
	reset()
	Register(&Test{Suite: "S", Name: "a test", Run: func() {}})

	assert.NotNil(t, Find("S", "a test"))
	assert.Nil(t, Find("S", "a Test"))
	assert.Nil(t, Find("s", "a test"))
	assert.Nil(t, Find("S", "a test "))
}

func TestDuplicatePanics(t *testing.T) {
	reset()
	Register(&Test{Suite: "S", Name: "dup", Run: func() {}})
	assert.Panics(t, func() {
		Register(&Test{Suite: "S", Name: "dup", Run: func() {}})
	})
}

func TestSuitesInFirstRegistrationOrder(t *testing.T) {
	reset()
	Register(&Test{Suite: "B", Name: "1", Run: func() {}})
	Register(&Test{Suite: "A", Name: "1", Run: func() {}})
	Register(&Test{Suite: "B", Name: "2", Run: func() {}})
	assert.Equal(t, []string{"B", "A"}, Suites())
}

func TestDeathExitCodeDefault(t *testing.T) {
	reset()
	Register(&Test{Suite: "S", Name: "d", Run: func() {}, Death: &DeathExpect{}})
	assert.Equal(t, -1, Find("S", "d").Death.ExitCode)
}
