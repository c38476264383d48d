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

package cli

import (
	"fmt"
	"io/ioutil"

	"github.com/gravitational/trace"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/nodestack/nodestack/lib/config"
)

// generateCommand implements `nodestack generate-config`
type generateCommand struct {
	cmd    *kingpin.CmdClause
	output string
}

func newGenerateCommand(app *kingpin.Application) *generateCommand {
	g := &generateCommand{}
	g.cmd = app.Command("generate-config", "Print a sample configuration document.")
	g.cmd.Flag("output", "Write the sample to a file instead of stdout.").
		Short('o').StringVar(&g.output)
	return g
}

func (g *generateCommand) run() error {
	if g.output == "" {
		fmt.Print(config.Template)
		return nil
	}
	if err := ioutil.WriteFile(g.output, []byte(config.Template), 0644); err != nil {
		return newExitError(ExitConfigError, trace.ConvertSystemError(err))
	}
	fmt.Printf("wrote sample configuration to %v\n", g.output)
	return nil
}
