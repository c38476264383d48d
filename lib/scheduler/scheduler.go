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

// Package scheduler is the deployment engine: it drives every host's
// install pipeline concurrently, bounded by a worker pool, and reports
// progress through the run's event publisher.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/gravitational/trace"
	"github.com/sirupsen/logrus"

	"github.com/nodestack/nodestack/lib/checks"
	"github.com/nodestack/nodestack/lib/config"
	"github.com/nodestack/nodestack/lib/events"
	"github.com/nodestack/nodestack/lib/install"
	"github.com/nodestack/nodestack/lib/runctx"
	"github.com/nodestack/nodestack/lib/task"
	"github.com/nodestack/nodestack/lib/utils"
)

// HostConn is a connected, checkable remote host: a Runner that can also be
// closed once its pipeline finishes.
type HostConn interface {
	checks.Runner
	Close() error
}

// Dialer opens a HostConn to host; returning an error fails only that host's
// pipeline, not the whole run.
type Dialer func(ctx context.Context, host config.HostSpec) (HostConn, error)

// Engine runs every configured host's install pipeline
type Engine struct {
	Config   *config.Config
	Catalog  *task.Catalog
	Checks   *checks.Manager
	Registry *install.Registry
	Dial     Dialer
}

// New returns an Engine wired with the standard checker set and installer registry
func New(cfg *config.Config, dial Dialer) *Engine {
	return &Engine{
		Config:   cfg,
		Catalog:  task.Build(cfg),
		Checks:   checks.NewManager(),
		Registry: install.NewRegistry(),
		Dial:     dial,
	}
}

// Run drives every host's pipeline to completion, bounded by
// rc.MaxConcurrentNodes concurrent hosts. It returns an aggregate error if
// any host pipeline failed to even connect; per-task failures are recorded
// on the catalog and reported via events, not returned here.
func (e *Engine) Run(rc *runctx.Context) error {
	rc.Publisher.Publish(events.New(events.RunStart, "", "", map[string]interface{}{
		"hosts": len(e.Config.Nodes),
	}))

	sem := make(chan struct{}, rc.MaxConcurrentNodes)
	var wg sync.WaitGroup
	errCh := make(chan error, len(e.Config.Nodes))

	for _, host := range e.Config.Nodes {
		host := host
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					errCh <- trace.Errorf("host %v: panic: %v", host.Name, r)
				}
			}()
			errCh <- e.runHost(rc, host)
		}()
	}
	wg.Wait()
	runErr := utils.CollectErrors(context.Background(), errCh)

	stats := e.Catalog.Stats()
	rc.Publisher.Publish(events.New(events.RunComplete, "", "", map[string]interface{}{
		"completed": stats.Completed,
		"failed":    stats.Failed,
		"skipped":   stats.Skipped,
	}))

	return trace.Wrap(runErr)
}

func (e *Engine) runHost(rc *runctx.Context, host config.HostSpec) error {
	pub := rc.Publisher
	pub.Publish(events.New(events.HostStart, host.Name, "", nil))

	tasks := e.Catalog.ByHost(host.Name)
	conn, err := e.Dial(rc.Ctx(), host)
	if err != nil {
		e.skipRemaining(rc, tasks, "unable to connect to host")
		pub.Publish(events.New(events.HostComplete, host.Name, "", map[string]interface{}{
			"error": err.Error(),
		}))
		return trace.Wrap(err, "host %v", host.Name)
	}
	defer conn.Close()

	results := e.Checks.RunAll(rc.Ctx(), host, conn, hostRequiresRepository(host))
	for _, r := range results {
		pub.Publish(events.New(events.CheckResult, host.Name, "", map[string]interface{}{
			"check":   r.CheckName,
			"passed":  r.Passed,
			"level":   string(r.Level),
			"message": r.Message,
		}))
	}
	if checks.HasErrors(results) {
		e.skipRemaining(rc, tasks, "preflight check failed")
		pub.Publish(events.New(events.HostComplete, host.Name, "", map[string]interface{}{
			"error": "preflight checks failed",
		}))
		return nil
	}

	for i, t := range tasks {
		if !rc.Checkpoint() {
			e.skipRemaining(rc, tasks[i:], "run cancelled")
			break
		}
		if err := e.runTask(rc, conn, host, t); err != nil {
			e.skipRemaining(rc, tasks[i+1:], "previous task failed")
			break
		}
	}

	pub.Publish(events.New(events.HostComplete, host.Name, "", nil))
	return nil
}

func (e *Engine) runTask(rc *runctx.Context, conn HostConn, host config.HostSpec, t *task.Task) error {
	pub := rc.Publisher
	pub.Publish(events.New(events.TaskStart, host.Name, t.ID, map[string]interface{}{
		"package": t.Package.Name,
		"version": t.Package.Version,
	}))
	if err := t.Start(); err != nil {
		return trace.Wrap(err)
	}

	if rc.DryRun {
		t.SetProgress(100)
		if err := t.Complete(); err != nil {
			return trace.Wrap(err)
		}
		pub.Publish(events.New(events.TaskComplete, host.Name, t.ID, map[string]interface{}{"dry_run": true}))
		return nil
	}

	installer, err := e.Registry.Resolve(t.Package.Name)
	if err != nil {
		t.Fail(err)
		pub.Publish(events.New(events.TaskFailed, host.Name, t.ID, map[string]interface{}{"error": err.Error()}))
		return trace.Wrap(err)
	}

	progress := func(p int) {
		t.SetProgress(p)
		pub.Publish(events.New(events.TaskProgress, host.Name, t.ID, map[string]interface{}{"progress": p}))
	}
	logLine := func(line string) {
		pub.Publish(events.New(events.TaskLog, host.Name, t.ID, map[string]interface{}{"line": line}))
	}

	result, installErr := install.Run(rc.Ctx(), installer, conn, host, t.Package, progress, logLine)
	for _, w := range result.Warnings {
		logLine(fmt.Sprintf("warning: %v", w))
	}
	if installErr != nil {
		t.Fail(installErr)
		pub.Publish(events.New(events.TaskFailed, host.Name, t.ID, map[string]interface{}{"error": installErr.Error()}))
		return trace.Wrap(installErr)
	}

	if result.Skip {
		if err := t.Skip(result.Reason); err != nil {
			return trace.Wrap(err)
		}
		pub.Publish(events.New(events.TaskSkipped, host.Name, t.ID, map[string]interface{}{"reason": result.Reason}))
		return nil
	}

	if err := t.Complete(); err != nil {
		return trace.Wrap(err)
	}
	pub.Publish(events.New(events.TaskComplete, host.Name, t.ID, nil))
	return nil
}

func (e *Engine) skipRemaining(rc *runctx.Context, tasks []*task.Task, reason string) {
	for _, t := range tasks {
		if t.Status() != task.Pending {
			continue
		}
		if err := t.Skip(reason); err != nil {
			logrus.WithError(err).Warn("failed to mark task skipped")
			continue
		}
		rc.Publisher.Publish(events.New(events.TaskSkipped, t.Host, t.ID, map[string]interface{}{"reason": reason}))
	}
}

// hostRequiresRepository reports whether any package on host is declared
// with source: repository, escalating the package-manager checker.
func hostRequiresRepository(host config.HostSpec) bool {
	for _, pkg := range host.Install {
		if pkg.Source == config.SourceRepository {
			return true
		}
	}
	return false
}
