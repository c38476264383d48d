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

const (
	// ExitSuccess means every host completed every task
	ExitSuccess = 0
	// ExitConfigError means the configuration document failed to load or validate
	ExitConfigError = 1
	// ExitAllHostsUnreachable means no host could be connected to
	ExitAllHostsUnreachable = 2
	// ExitTaskFailures means at least one task failed on a reachable host
	ExitTaskFailures = 3
	// ExitCancelled means the run was cancelled before it finished
	ExitCancelled = 4
)

// exitError carries a process exit code alongside the underlying error
type exitError struct {
	code int
	err  error
}

func newExitError(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// Error implements error
func (e *exitError) Error() string {
	return e.err.Error()
}

// ExitCode is read by main to decide the process exit status
func (e *exitError) ExitCode() int {
	return e.code
}
