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

// Package runctx carries the cross-cutting state of a single deployment
// run: cancellation, pause/resume, the data directory and concurrency
// limit, and the event publisher every other package reports through.
package runctx

import (
	"context"
	"sync"

	"github.com/nodestack/nodestack/lib/events"
)

// Context is passed by value (as a pointer) to every host pipeline goroutine
// the scheduler spawns. It is safe for concurrent use.
type Context struct {
	// DataDir is the root directory persisted run state is written under
	DataDir string
	// MaxConcurrentNodes bounds the scheduler's worker pool
	MaxConcurrentNodes int
	// DryRun, when true, runs checks and plans tasks but skips installers
	DryRun bool
	// Publisher is how every component reports lifecycle events
	Publisher events.Publisher

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	paused bool
	resume chan struct{}
}

// New returns a Context derived from parent, ready to drive a single run
func New(parent context.Context, dataDir string, maxConcurrentNodes int, dryRun bool, pub events.Publisher) *Context {
	if pub == nil {
		pub = events.DiscardPublisher
	}
	ctx, cancel := context.WithCancel(parent)
	return &Context{
		DataDir:            dataDir,
		MaxConcurrentNodes: maxConcurrentNodes,
		DryRun:             dryRun,
		Publisher:          pub,
		ctx:                ctx,
		cancel:             cancel,
		resume:             make(chan struct{}),
	}
}

// Done returns a channel closed when the run has been cancelled
func (c *Context) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Ctx returns the run's underlying context, suitable for passing to
// blocking operations that should be cut short when the run is cancelled.
func (c *Context) Ctx() context.Context {
	return c.ctx
}

// Err returns the run's cancellation error, if any
func (c *Context) Err() error {
	return c.ctx.Err()
}

// Cancel stops the run; in-flight tasks observe Done() at their next
// cancellation checkpoint and stop starting new work.
func (c *Context) Cancel() {
	c.cancel()
}

// Cancelled reports whether the run has been cancelled
func (c *Context) Cancelled() bool {
	select {
	case <-c.ctx.Done():
		return true
	default:
		return false
	}
}

// Pause halts the scheduler between tasks; already-running tasks run to
// completion, no new task starts until Resume is called.
func (c *Context) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused {
		return
	}
	c.paused = true
	c.resume = make(chan struct{})
}

// Resume releases a pause started by Pause
func (c *Context) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.paused {
		return
	}
	c.paused = false
	close(c.resume)
}

// WaitIfPaused blocks the calling goroutine while the run is paused, and
// returns early if the run is cancelled while waiting.
func (c *Context) WaitIfPaused() {
	for {
		c.mu.Lock()
		if !c.paused {
			c.mu.Unlock()
			return
		}
		resume := c.resume
		c.mu.Unlock()
		select {
		case <-resume:
		case <-c.ctx.Done():
			return
		}
	}
}

// Checkpoint blocks while paused and reports whether the run should continue
// (false once cancelled); call between tasks, never mid-task.
func (c *Context) Checkpoint() bool {
	c.WaitIfPaused()
	return !c.Cancelled()
}
