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

package utils

import (
	"context"
	"io"
	"os/exec"

	"github.com/gravitational/trace"
	log "github.com/sirupsen/logrus"
)

// CommandRunner abstracts command execution.
// stdout and stderr specify the sinks for command's output.
// The command is given with args
type CommandRunner interface {
	// RunStream executes a command specified with args and streams
	// output to stdout and stderr using ctx for cancellation
	RunStream(ctx context.Context, stdout, stderr io.Writer, args ...string) error
}

// Runner is the default CommandRunner
var Runner CommandRunner = CommandRunnerFunc(RunStream)

// CommandRunnerFunc is the wrapper that allows standalone functions
// to act as CommandRunners
type CommandRunnerFunc func(ctx context.Context, stdout, stderr io.Writer, args ...string) error

// RunStream invokes r with the specified arguments.
// Implements CommandRunner
func (r CommandRunnerFunc) RunStream(ctx context.Context, stdout, stderr io.Writer, args ...string) error {
	return r(ctx, stdout, stderr, args...)
}

// RunStream executes a command specified with args and streams output to
// stdout/stderr
func RunStream(ctx context.Context, stdout, stderr io.Writer, args ...string) error {
	name := args[0]
	args = args[1:]
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	log.WithField("cmd", cmd.Args).Debug("Execute.")
	if err := cmd.Start(); err != nil {
		return trace.Wrap(err)
	}
	return trace.Wrap(cmd.Wait())
}
