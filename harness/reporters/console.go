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
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/kylelemons/godebug/diff"

	"github.com/coreos/crucible/harness/testresult"
)

// consoleReporter is the default human/CI console output: a line per
// test, a glyph summary per suite, and a closing run table.
type consoleReporter struct {
	w     io.Writer
	color bool
}

// NewConsole returns the default console reporter. Color output must
// be decided by the caller (TTY detection happens once at parent
// start).
func NewConsole(w io.Writer, color bool) Reporter {
	return &consoleReporter{w: w, color: color}
}

func fmtDuration(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}

func (c *consoleReporter) RunStarted(total int) {
	fmt.Fprintf(c.w, "Running %d tests\n", total)
}

func (c *consoleReporter) SuiteStarted(name string) {
	fmt.Fprintf(c.w, "=== %s\n", name)
}

func (c *consoleReporter) TestFinished(r *testresult.Result) {
	fmt.Fprintf(c.w, "--- %s: %q (%s)\n",
		r.Status.Display(c.color), r.TestName, fmtDuration(r.Duration))

	for _, f := range r.Failures {
		c.printFailure(f)
	}

	switch r.Status {
	case testresult.Crashed, testresult.Timeout:
		c.printOutput(r.Output)
	case testresult.Failed:
		if len(r.Failures) == 0 {
			// Death-test mismatch; the output is the diagnosis.
			c.printOutput(r.Output)
		}
	}
}

func (c *consoleReporter) printFailure(f testresult.Failure) {
	fmt.Fprintf(c.w, "    %s:%d: %s\n", f.File, f.Line, f.Condition)
	if f.Expected == "" && f.Actual == "" {
		return
	}
	if strings.HasPrefix(f.Condition, testresult.StdoutTag) {
		// Captured-output comparison: escape non-printables so
		// newlines and control bytes are visible, and show a diff.
		fmt.Fprintf(c.w, "        expected: %s\n", strconv.Quote(f.Expected))
		fmt.Fprintf(c.w, "        actual:   %s\n", strconv.Quote(f.Actual))
		if d := diff.Diff(f.Expected, f.Actual); d != "" {
			for _, line := range strings.Split(d, "\n") {
				fmt.Fprintf(c.w, "        | %s\n", line)
			}
		}
		return
	}
	fmt.Fprintf(c.w, "        expected: %s\n", f.Expected)
	fmt.Fprintf(c.w, "        actual:   %s\n", f.Actual)
}

func (c *consoleReporter) printOutput(out []byte) {
	s := strings.TrimRight(string(out), "\n")
	if s == "" {
		return
	}
	for _, line := range strings.Split(s, "\n") {
		fmt.Fprintf(c.w, "        %s\n", line)
	}
}

func (c *consoleReporter) SuiteFinished(s *testresult.SuiteSummary) {
	fmt.Fprintf(c.w, "    %d/%d passed [%s]\n", s.Passed, s.Total, s.Glyphs)
}

func (c *consoleReporter) RunFinished(run *testresult.RunSummary) {
	header := func(s string) string {
		if c.color {
			return text.Colors{text.FgHiBlue, text.Bold}.Sprint(s)
		}
		return s
	}

	t := table.NewWriter()
	t.SetOutputMirror(c.w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		header("SUITE"), header("TESTS"), header("PASSED"),
		header("FAILED"), header("RATE"),
	})
	for _, s := range run.Suites {
		t.AppendRow(table.Row{
			s.Name, s.Total, s.Passed, s.Total - s.Passed,
			fmt.Sprintf("%.1f%%", s.PassRate()*100),
		})
	}
	t.AppendFooter(table.Row{
		"TOTAL", run.Total, run.Passed, run.Total - run.Passed,
		fmt.Sprintf("%.1f%%", run.PassRate()*100),
	})
	t.Render()

	fmt.Fprintf(c.w, "%d/%d tests passed in %s\n",
		run.Passed, run.Total, fmtDuration(run.Duration))
}
