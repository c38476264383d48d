/*
Copyright 2018 Gravitational, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package cli wires the nodestack command-line surface: run and
// generate-config, plus the flags that filter and drive a run.
package cli

import (
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/nodestack/nodestack/lib/defaults"
	"github.com/nodestack/nodestack/lib/utils"
)

// App is the parsed command-line application
type App struct {
	app *kingpin.Application

	run      *runCommand
	generate *generateCommand
}

// NewApp builds the nodestack kingpin application and its subcommands
func NewApp() *App {
	kapp := kingpin.New("nodestack", "Provision software across a fleet of hosts over SSH.")

	a := &App{app: kapp}
	a.run = newRunCommand(kapp)
	a.generate = newGenerateCommand(kapp)
	return a
}

// Run parses args and dispatches to the selected subcommand
func (a *App) Run(args []string) error {
	cmd, err := a.app.Parse(args)
	if err != nil {
		return newExitError(ExitConfigError, err)
	}
	switch cmd {
	case a.run.cmd.FullCommand():
		return a.run.run()
	case a.generate.cmd.FullCommand():
		return a.generate.run()
	}
	return nil
}

// defaultConfigFlag is the shared default for --config across subcommands;
// NODESTACK_CONFIG overrides the built-in default when set
var defaultConfigFlag = utils.GetenvWithDefault("NODESTACK_CONFIG", defaults.ConfigFile)
