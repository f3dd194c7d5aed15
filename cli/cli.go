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

// Package cli carries the plumbing every crucible binary shares: the
// child-mode dispatch, the version subcommand, and the log-level
// flags. A binary registers its test suites, builds its root command
// and hands it to Execute.
package cli

import (
	"github.com/coreos/pkg/capnslog"
	"github.com/spf13/cobra"

	"github.com/coreos/crucible/runner"
	"github.com/coreos/crucible/version"
)

var (
	logDebug   bool
	logVerbose bool
	logLevel   = capnslog.NOTICE

	plog = capnslog.NewPackageLogger("github.com/coreos/crucible", "cli")
)

// Execute runs root. Child-mode invocations are dispatched before any
// flag handling so a test name can never be mistaken for an argument;
// in that case the process exits inside MaybeRunTest and cobra never
// runs.
func Execute(root *cobra.Command) {
	runner.MaybeRunTest()

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number and exit.",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("%s version %s\n", cmd.Root().Name(), version.Version)
		},
	})

	root.PersistentFlags().Var(&logLevel, "log-level",
		"Set global log level.")
	root.PersistentFlags().BoolVarP(&logVerbose, "verbose", "v", false,
		"Alias for --log-level=INFO")
	root.PersistentFlags().BoolVarP(&logDebug, "debug", "d", false,
		"Alias for --log-level=DEBUG")

	// Chain logging setup in front of whatever pre-run the command
	// already declared; cobra only invokes the innermost one.
	preRun, preRunE := root.PersistentPreRun, root.PersistentPreRunE
	root.PersistentPreRun = nil
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		startLogging(cmd)
		if preRun != nil {
			preRun(cmd, args)
			return nil
		}
		if preRunE != nil {
			return preRunE(cmd, args)
		}
		return nil
	}

	if err := root.Execute(); err != nil {
		plog.Fatal(err)
	}
}

func startLogging(cmd *cobra.Command) {
	switch {
	case logDebug:
		logLevel = capnslog.DEBUG
	case logVerbose:
		logLevel = capnslog.INFO
	}

	capnslog.SetFormatter(capnslog.NewStringFormatter(cmd.OutOrStderr()))
	capnslog.SetGlobalLogLevel(logLevel)

	plog.Infof("Started logging at level %s", logLevel)
}
