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

package executor

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/gravitational/trace"

	"github.com/nodestack/nodestack/lib/config"
	"github.com/nodestack/nodestack/lib/defaults"
	"github.com/nodestack/nodestack/lib/utils"
)

// PlaybookRunner invokes an installer's playbook against a single host and
// streams its output line by line to onLine.
type PlaybookRunner interface {
	RunPlaybook(ctx context.Context, runDir string, host config.HostSpec, playbook string,
		vars map[string]interface{}, onLine func(string)) error
}

// AnsibleRunner shells out to the ansible-playbook binary. This is the
// production PlaybookRunner; tests use a fake.
type AnsibleRunner struct{}

// RunPlaybook implements PlaybookRunner by materializing a per-host INI
// inventory under runDir and invoking ansible-playbook against it.
func (AnsibleRunner) RunPlaybook(ctx context.Context, runDir string, host config.HostSpec, playbook string,
	vars map[string]interface{}, onLine func(string)) error {

	inventoryPath, err := writeInventory(runDir, host)
	if err != nil {
		return trace.Wrap(err)
	}

	args := []string{"-i", inventoryPath}
	for _, kv := range extraVars(vars) {
		args = append(args, "--extra-vars", kv)
	}
	args = append(args, playbook)

	ctx, cancel := context.WithTimeout(ctx, defaults.PlaybookTimeout)
	defer cancel()

	w := newLineWriter(onLine)
	runArgs := append([]string{defaults.PlaybookBin}, args...)
	err = utils.RunStream(ctx, w, w, runArgs...)
	w.flush()
	if err != nil {
		return trace.Wrap(err, "%v %v failed", defaults.PlaybookBin, playbook)
	}
	return nil
}

// lineWriter buffers written bytes and invokes onLine once per complete line,
// flushing any trailing partial line once the command exits.
type lineWriter struct {
	onLine func(string)
	buf    bytes.Buffer
}

func newLineWriter(onLine func(string)) *lineWriter {
	return &lineWriter{onLine: onLine}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	for {
		b := w.buf.Bytes()
		i := bytes.IndexByte(b, '\n')
		if i < 0 {
			break
		}
		line := string(b[:i])
		w.buf.Next(i + 1)
		w.emit(line)
	}
	return len(p), nil
}

func (w *lineWriter) flush() {
	if w.buf.Len() > 0 {
		w.emit(w.buf.String())
		w.buf.Reset()
	}
}

func (w *lineWriter) emit(line string) {
	if w.onLine != nil {
		w.onLine(line)
	}
}

// writeInventory materializes a minimal single-host INI inventory under
// runDir/<host>/inventory.ini and returns its path
func writeInventory(runDir string, host config.HostSpec) (string, error) {
	dir := filepath.Join(runDir, host.Name)
	if err := utils.MkdirAll(dir, defaults.SharedDirMask); err != nil {
		return "", trace.Wrap(err)
	}
	owner := host.Owner()
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "[%v]\n", host.Name)
	fmt.Fprintf(&buf, "%v ansible_host=%v ansible_port=%v ansible_user=%v\n",
		host.Name, host.Host, host.Port, owner.User)
	if owner.KeyPath != "" {
		fmt.Fprintf(&buf, "ansible_ssh_private_key_file=%v\n", owner.KeyPath)
	}
	path := filepath.Join(dir, "inventory.ini")
	if err := utils.WritePath(path, buf.Bytes(), defaults.SharedReadMask); err != nil {
		return "", trace.Wrap(err)
	}
	return path, nil
}

// extraVars flattens a variable map into deterministic "key=value" pairs
// suitable for --extra-vars
func extraVars(vars map[string]interface{}) []string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, fmt.Sprintf("%v=%v", k, vars[k]))
	}
	return out
}
