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
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/coreos/crucible/harness/register"
	"github.com/coreos/crucible/system/exec"
)

// evalDeath checks every present expectation of a death test against
// the observed termination and output. When any clause is unmet it
// returns false and a diagnosis enumerating the failed clauses with
// the observed values.
func evalDeath(exp *register.DeathExpect, term exec.Termination, output string) (bool, string) {
	var unmet []string

	if !term.Signaled && term.ExitCode == 0 {
		unmet = append(unmet, "process exited successfully (code 0)")
	}

	if exp.Signal != 0 {
		switch {
		case !term.Signaled:
			unmet = append(unmet, fmt.Sprintf(
				"expected termination by signal %d, but process exited with code %d",
				exp.Signal, term.ExitCode))
		case term.Signal != exp.Signal:
			unmet = append(unmet, fmt.Sprintf(
				"expected termination by signal %d, got signal %d",
				exp.Signal, term.Signal))
		}
	}

	if exp.ExitCode != -1 {
		switch {
		case term.Signaled:
			unmet = append(unmet, fmt.Sprintf(
				"expected exit code %d, but process was terminated by signal %d",
				exp.ExitCode, term.Signal))
		case term.ExitCode != exp.ExitCode:
			unmet = append(unmet, fmt.Sprintf(
				"expected exit code %d, got %d", exp.ExitCode, term.ExitCode))
		}
	}

	if exp.AssertMsg != "" {
		msg, found := extractAssertMessage(output)
		threshold := exp.MinSimilarity
		if threshold == 0 {
			threshold = register.DefaultMinSimilarity
		}
		switch {
		case !found:
			unmet = append(unmet, "no assertion message found in output")
		case exp.MatchExact && msg != exp.AssertMsg:
			unmet = append(unmet, fmt.Sprintf(
				"assertion message %q does not equal expected %q", msg, exp.AssertMsg))
		case !exp.MatchExact:
			if sim := similarity(msg, exp.AssertMsg); sim < threshold {
				unmet = append(unmet, fmt.Sprintf(
					"assertion message %q has similarity %.3f to expected %q, below %.2f",
					msg, sim, exp.AssertMsg, threshold))
			}
		}
	}

	if len(unmet) == 0 {
		return true, ""
	}
	return false, "death test expectation not met:\n  " + strings.Join(unmet, "\n  ")
}

// extractAssertMessage pulls the custom message out of output produced
// by the assert(expr && "message") idiom, whose failure line reads
// `Assertion failed: <expr> on file <path> line <N>`. The last
// double-quoted string before " on file " qualifies only when it is
// preceded, across whitespace, by &&.
func extractAssertMessage(output string) (string, bool) {
	idx := strings.Index(output, " on file ")
	if idx < 0 {
		return "", false
	}
	head := output[:idx]

	endQ := strings.LastIndex(head, `"`)
	if endQ < 0 {
		return "", false
	}
	startQ := strings.LastIndex(head[:endQ], `"`)
	if startQ < 0 {
		return "", false
	}

	pre := strings.TrimRight(head[:startQ], " \t\r\n")
	if !strings.HasSuffix(pre, "&&") {
		return "", false
	}
	return head[startQ+1 : endQ], true
}

// similarity is 1 - levenshtein/maxlen over the lowercased strings.
// Two empty strings are fully similar.
func similarity(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	la := len([]rune(a))
	lb := len([]rune(b))
	if la == 0 && lb == 0 {
		return 1
	}
	max := la
	if lb > max {
		max = lb
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(max)
}
