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

package reporters

import (
	"fmt"
	"io"
	"strings"

	"github.com/coreos/crucible/harness/testresult"
)

// ciReporter emits the machine-parseable summary block used by CI
// pipelines, one line per metric:
//
//	passed/total per suite, space-separated
//	glyph matrix, ';' between tests and ';;' between suites
//	passed count per suite, ';'-separated
//	pass rate per suite to three decimals, ';'-separated
type ciReporter struct {
	w io.Writer
}

// NewCI returns the CI summary reporter. The crucible binary attaches
// it when the CI environment variable is set.
func NewCI(w io.Writer) Reporter {
	return &ciReporter{w: w}
}

func (c *ciReporter) RunStarted(total int)                     {}
func (c *ciReporter) SuiteStarted(name string)                 {}
func (c *ciReporter) TestFinished(r *testresult.Result)        {}
func (c *ciReporter) SuiteFinished(s *testresult.SuiteSummary) {}

func (c *ciReporter) RunFinished(run *testresult.RunSummary) {
	var ratios, passed, glyphs, totals []string
	for _, s := range run.Suites {
		totals = append(totals, fmt.Sprintf("%d/%d", s.Passed, s.Total))
		glyphs = append(glyphs, strings.Join(strings.Split(s.Glyphs, ""), ";"))
		passed = append(passed, fmt.Sprintf("%d", s.Passed))
		ratios = append(ratios, fmt.Sprintf("%.3f", s.PassRate()))
	}
	fmt.Fprintln(c.w, strings.Join(totals, " "))
	fmt.Fprintln(c.w, strings.Join(glyphs, ";;"))
	fmt.Fprintln(c.w, strings.Join(passed, ";"))
	fmt.Fprintln(c.w, strings.Join(ratios, ";"))
}
