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

// Package events implements the fan-out event bus that carries deployment
// lifecycle events from the scheduler to log sinks and UI subscribers.
package events

import "time"

// Type identifies the kind of lifecycle event
type Type string

const (
	// RunStart marks the beginning of a deployment run
	RunStart Type = "run_start"
	// HostStart marks the start of a host's pipeline
	HostStart Type = "host_start"
	// TaskStart marks the start of a task
	TaskStart Type = "task_start"
	// CheckResult carries the outcome of a single checker
	CheckResult Type = "check_result"
	// TaskProgress carries an install progress update
	TaskProgress Type = "task_progress"
	// TaskLog carries a single captured log line
	TaskLog Type = "task_log"
	// TaskComplete marks a task succeeding
	TaskComplete Type = "task_complete"
	// TaskFailed marks a task failing
	TaskFailed Type = "task_failed"
	// TaskSkipped marks a task being skipped
	TaskSkipped Type = "task_skipped"
	// HostComplete marks a host's pipeline finishing
	HostComplete Type = "host_complete"
	// RunComplete marks the whole run finishing
	RunComplete Type = "run_complete"
	// Overflow names an event reporting dropped events. The Bus does not
	// publish it: a full subscriber queue drops its oldest event and counts
	// it in Subscription.Dropped() instead.
	Overflow Type = "overflow"
)

// Level is the severity of a log line or check result carried by an event
type Level string

const (
	// Debug is diagnostic detail
	Debug Level = "DEBUG"
	// Info is a normal informational message
	Info Level = "INFO"
	// Warn is a non-fatal anomaly
	Warn Level = "WARN"
	// Error is a fatal-to-the-task anomaly
	Error Level = "ERROR"
)

// Event is a single structured lifecycle event published on the bus
type Event struct {
	Type   Type                   `json:"type"`
	Host   string                 `json:"host,omitempty"`
	Task   string                 `json:"task,omitempty"`
	Level  Level                  `json:"level,omitempty"`
	Time   time.Time              `json:"time"`
	Fields map[string]interface{} `json:"fields,omitempty"`
}

// New constructs an event stamped with the current time
func New(typ Type, host, task string, fields map[string]interface{}) Event {
	return Event{
		Type:   typ,
		Host:   host,
		Task:   task,
		Time:   time.Now(),
		Fields: fields,
	}
}

// Publisher is the narrow interface the scheduler and its collaborators use
// to emit events; it decouples producers from the bus's subscriber lifetime.
type Publisher interface {
	Publish(Event)
}

// DiscardPublisher discards every event; useful for tests and as a zero value
var DiscardPublisher Publisher = discardPublisher{}

type discardPublisher struct{}

func (discardPublisher) Publish(Event) {}
