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

package events

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMainSinkWritesLogFile(t *testing.T) {
	dir := t.TempDir()
	bus := NewBus()
	sink, err := NewMainSink(bus, dir)
	require.NoError(t, err)

	bus.Publish(New(RunStart, "", "", nil))
	sink.Close(bus)

	data, err := os.ReadFile(filepath.Join(dir, "log", "deploy.log"))
	require.NoError(t, err)
	require.Contains(t, string(data), "run_start")
}

func TestHostSinksSplitByHost(t *testing.T) {
	dir := t.TempDir()
	bus := NewBus()
	sinks := NewHostSinks(bus, dir)

	bus.Publish(New(TaskStart, "h1", "java", nil))
	bus.Publish(New(TaskStart, "h2", "python", nil))
	sinks.Close(bus)

	h1, err := os.ReadFile(filepath.Join(dir, "log", "h1.log"))
	require.NoError(t, err)
	require.Contains(t, string(h1), "task_start")

	h2, err := os.ReadFile(filepath.Join(dir, "log", "h2.log"))
	require.NoError(t, err)
	require.Contains(t, string(h2), "task_start")
}

func TestRunSinkWritesJSONL(t *testing.T) {
	dir := t.TempDir()
	bus := NewBus()
	sink := NewRunSink(bus, dir)

	bus.Publish(New(TaskComplete, "h1", "java", map[string]interface{}{"ok": true}))
	sink.Close(bus)

	data, err := os.ReadFile(filepath.Join(dir, "h1", "events.jsonl"))
	require.NoError(t, err)
	require.Contains(t, string(data), `"type":"task_complete"`)
}

func TestSinksDoNotBlockOnSlowConsumer(t *testing.T) {
	bus := NewBus()
	dir := t.TempDir()
	sink, err := NewMainSink(bus, dir)
	require.NoError(t, err)
	defer sink.Close(bus)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			bus.Publish(New(TaskProgress, "h1", "java", nil))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on sink consumer")
	}
}
