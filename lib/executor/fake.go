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
	"context"
	"sync"

	"github.com/nodestack/nodestack/lib/config"
)

// FakePlaybookRunner is a PlaybookRunner test double that records every
// invocation and plays back a scripted error per playbook name.
type FakePlaybookRunner struct {
	mu       sync.Mutex
	Errs     map[string]error
	Lines    map[string][]string
	Invoked  []string
}

// RunPlaybook implements PlaybookRunner
func (f *FakePlaybookRunner) RunPlaybook(ctx context.Context, runDir string, host config.HostSpec, playbook string,
	vars map[string]interface{}, onLine func(string)) error {

	f.mu.Lock()
	f.Invoked = append(f.Invoked, host.Name+"/"+playbook)
	f.mu.Unlock()

	for _, line := range f.Lines[playbook] {
		if onLine != nil {
			onLine(line)
		}
	}
	if f.Errs != nil {
		return f.Errs[playbook]
	}
	return nil
}
