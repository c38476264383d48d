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

// Package task builds and tracks the catalog of install tasks a run plans
// to execute: one task per host/package pair, derived from the loaded
// configuration.
package task

import (
	"fmt"
	"sync"
	"time"

	"github.com/gravitational/trace"

	"github.com/nodestack/nodestack/lib/config"
	"github.com/nodestack/nodestack/lib/utils"
)

// Status is a task's position in its lifecycle. A task only ever moves
// forward: Pending -> Running -> {Completed, Failed, Skipped}.
type Status string

const (
	// Pending means the task has not started
	Pending Status = "pending"
	// Running means the task's installer is currently executing
	Running Status = "running"
	// Completed means the task's installer finished without error
	Completed Status = "completed"
	// Failed means the task's installer returned an error
	Failed Status = "failed"
	// Skipped means the task ended without installing: an earlier task on
	// the same host failed, the host could not be connected to or failed its
	// preflight checks, the run was cancelled, or the installer's PreCheck
	// found the package already installed
	Skipped Status = "skipped"
)

// terminal reports whether s is one of the states a task does not leave
func (s Status) terminal() bool {
	switch s {
	case Completed, Failed, Skipped:
		return true
	default:
		return false
	}
}

// validTransition reports whether moving from s to next respects the
// task state machine: forward-only, no leaving a terminal state.
func validTransition(from, to Status) bool {
	if from.terminal() {
		return false
	}
	switch from {
	case Pending:
		return to == Running || to == Skipped || to == Failed
	case Running:
		return to == Completed || to == Failed || to == Skipped
	}
	return false
}

// Task is a single host/package install unit planned for a run
type Task struct {
	mu sync.Mutex

	// ID uniquely identifies the task within a run: "{host}_{package}_{version}"
	ID string
	// Host is the name of the target HostSpec
	Host string
	// Package is the package spec this task installs
	Package config.PackageSpec
	// Status is the task's current lifecycle state
	status Status
	// Progress is a percentage in [0, 100], meaningful while Running
	progress int
	// StartedAt is set when the task transitions to Running
	startedAt time.Time
	// EndedAt is set when the task reaches a terminal state
	endedAt time.Time
	// Err holds the failure reason when Status is Failed or Skipped
	err error
}

// ID builds the canonical task identifier for a host/package pair
func ID(host string, pkg config.PackageSpec) string {
	return fmt.Sprintf("%v_%v_%v", host, pkg.Name, pkg.Version)
}

// Status returns the task's current status
func (t *Task) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Progress returns the task's current progress percentage
func (t *Task) Progress() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progress
}

// Err returns the task's failure reason, if any
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Duration returns how long the task ran; zero if it has not started
func (t *Task) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.startedAt.IsZero() {
		return 0
	}
	end := t.endedAt
	if end.IsZero() {
		end = time.Now()
	}
	return end.Sub(t.startedAt)
}

// Start transitions the task from Pending to Running
func (t *Task) Start() error {
	return t.transition(Running, nil, func() {
		t.startedAt = time.Now()
		utils.UTC(&t.startedAt)
	})
}

// SetProgress updates the task's progress percentage; clamped to [0, 100]
func (t *Task) SetProgress(pct int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.progress = utils.Min(utils.Max(pct, 0), 100)
}

// Complete transitions the task from Running to Completed
func (t *Task) Complete() error {
	return t.transition(Completed, nil, func() {
		t.progress = 100
		t.endedAt = time.Now()
		utils.UTC(&t.endedAt)
	})
}

// Fail transitions the task to Failed, recording cause
func (t *Task) Fail(cause error) error {
	return t.transition(Failed, cause, func() {
		t.endedAt = time.Now()
		utils.UTC(&t.endedAt)
	})
}

// Skip transitions a Pending or Running task to Skipped, recording the
// reason. A Pending task is skipped when an earlier task on the same host
// failed, when the host could not be connected to or failed its preflight
// checks, or when the run was cancelled; a Running task is skipped when its
// installer's PreCheck finds the package already satisfied.
func (t *Task) Skip(reason string) error {
	return t.transition(Skipped, trace.Errorf(reason), func() {
		t.endedAt = time.Now()
		utils.UTC(&t.endedAt)
	})
}

func (t *Task) transition(to Status, cause error, apply func()) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !validTransition(t.status, to) {
		return trace.BadParameter("task %v: invalid transition %v -> %v", t.ID, t.status, to)
	}
	t.status = to
	if cause != nil {
		t.err = cause
	}
	apply()
	return nil
}

// Catalog is the set of tasks planned for a run, grouped by host in
// declaration order.
type Catalog struct {
	tasks  map[string]*Task
	byHost map[string][]*Task
	order  []string
}

// Build constructs a Catalog with one Pending task per host/package pair
// in the configuration
func Build(cfg *config.Config) *Catalog {
	cat := &Catalog{
		tasks:  make(map[string]*Task),
		byHost: make(map[string][]*Task),
	}
	for _, host := range cfg.Nodes {
		for _, pkg := range host.Install {
			t := &Task{
				ID:      ID(host.Name, pkg),
				Host:    host.Name,
				Package: pkg,
				status:  Pending,
			}
			cat.tasks[t.ID] = t
			cat.byHost[host.Name] = append(cat.byHost[host.Name], t)
			cat.order = append(cat.order, t.ID)
		}
	}
	return cat
}

// Get returns the task with the given ID, or nil if none exists
func (c *Catalog) Get(id string) *Task {
	return c.tasks[id]
}

// ByHost returns the tasks for the named host, in declared order
func (c *Catalog) ByHost(host string) []*Task {
	return c.byHost[host]
}

// All returns every task in the catalog, in declared order
func (c *Catalog) All() []*Task {
	tasks := make([]*Task, 0, len(c.order))
	for _, id := range c.order {
		tasks = append(tasks, c.tasks[id])
	}
	return tasks
}

// Stats summarizes the catalog's tasks by status
type Stats struct {
	Total     int
	Pending   int
	Running   int
	Completed int
	Failed    int
	Skipped   int
}

// Stats computes a snapshot of the catalog's task statuses
func (c *Catalog) Stats() Stats {
	var s Stats
	for _, t := range c.All() {
		s.Total++
		switch t.Status() {
		case Pending:
			s.Pending++
		case Running:
			s.Running++
		case Completed:
			s.Completed++
		case Failed:
			s.Failed++
		case Skipped:
			s.Skipped++
		}
	}
	return s
}
