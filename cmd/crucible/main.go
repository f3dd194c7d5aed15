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

package main

import (
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/coreos/crucible/cli"
	"github.com/coreos/crucible/harness/register"
	"github.com/coreos/crucible/harness/reporters"
	"github.com/coreos/crucible/runner"
	"github.com/coreos/crucible/system"

	// Register the bundled test suites.
	_ "github.com/coreos/crucible/tests"
)

var (
	root = &cobra.Command{
		Use:   "crucible",
		Short: "Sandboxed unit-test runner for native code",
		Run:   runMain,
	}

	cmdList = &cobra.Command{
		Use:   "list",
		Short: "List registered tests without running them",
		Run:   runList,
	}

	optSuite      string
	optTimeout    time.Duration
	optJSONReport string
	optNoColor    bool
)

func init() {
	root.Flags().StringVar(&optSuite, "suite", "",
		"run only tests of the named suite")
	root.Flags().DurationVar(&optTimeout, "timeout", runner.DefaultTimeout,
		"per-test wall-clock timeout")
	root.Flags().StringVar(&optJSONReport, "json-report", "",
		"write a machine-readable report to `file`")
	root.Flags().BoolVar(&optNoColor, "no-color", false,
		"disable ANSI color output")
	root.AddCommand(cmdList)
}

func runMain(cmd *cobra.Command, args []string) {
	color := !optNoColor && system.ColorEnabled()
	if color {
		if err := system.EnableANSI(); err != nil {
			color = false
		}
	}

	reps := reporters.Reporters{reporters.NewConsole(os.Stdout, color)}
	if os.Getenv("CI") != "" {
		reps = append(reps, reporters.NewCI(os.Stdout))
	}
	if optJSONReport != "" {
		reps = append(reps, reporters.NewJSON(optJSONReport))
	}

	_, err := runner.Run(runner.Options{
		Suite:     optSuite,
		Timeout:   optTimeout,
		Reporters: reps,
	})
	switch err {
	case nil:
	case runner.ErrTestsFailed:
		os.Exit(1)
	default:
		log.Fatal(err)
	}
}

func runList(cmd *cobra.Command, args []string) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"SUITE", "TEST", "KIND"})
	for _, tt := range register.Tests {
		kind := "test"
		if tt.Death != nil {
			kind = "death test"
		}
		t.AppendRow(table.Row{tt.Suite, tt.Name, kind})
	}
	t.Render()
}

func main() {
	cli.Execute(root)
}
