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

package scheduler

import (
	"context"
	"sync"
	"testing"

	"github.com/gravitational/trace"
	"github.com/stretchr/testify/require"

	"github.com/nodestack/nodestack/lib/config"
	"github.com/nodestack/nodestack/lib/events"
	"github.com/nodestack/nodestack/lib/runctx"
)

// fakeConn answers every command with success unless a specific command
// prefix is scripted to fail
type fakeConn struct {
	fail map[string]bool
}

func (f fakeConn) Run(ctx context.Context, cmd string) (string, int, error) {
	if f.fail[cmd] {
		return "", 1, trace.Errorf("scripted failure")
	}
	switch cmd {
	case "echo ok":
		return "ok", 0, nil
	case "sudo -n true && echo ok":
		return "ok", 0, nil
	default:
		return "1000000", 0, nil
	}
}

func (fakeConn) Close() error { return nil }

// recordingPublisher collects every event published, for assertions
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingPublisher) byType(t events.Type) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func twoHostConfig() *config.Config {
	return &config.Config{
		General: config.GeneralConfig{MaxConcurrentNodes: 2},
		Nodes: []config.HostSpec{
			{Name: "h1", Install: []config.PackageSpec{{Name: "nonexistent-installer", Version: "1"}}},
			{Name: "h2", Install: []config.PackageSpec{{Name: "nonexistent-installer", Version: "1"}}},
		},
	}
}

func TestEngineRunDryRunCompletesAllTasks(t *testing.T) {
	cfg := twoHostConfig()
	dial := func(ctx context.Context, host config.HostSpec) (HostConn, error) {
		return fakeConn{}, nil
	}
	engine := New(cfg, dial)
	pub := &recordingPublisher{}
	rc := runctx.New(context.Background(), t.TempDir(), 2, true, pub)

	err := engine.Run(rc)
	require.NoError(t, err)

	stats := engine.Catalog.Stats()
	require.Equal(t, 2, stats.Completed)
	require.Len(t, pub.byType(events.RunStart), 1)
	require.Len(t, pub.byType(events.RunComplete), 1)
	require.Len(t, pub.byType(events.HostComplete), 2)
}

func TestEngineRunUnresolvedInstallerFailsTask(t *testing.T) {
	cfg := twoHostConfig()
	dial := func(ctx context.Context, host config.HostSpec) (HostConn, error) {
		return fakeConn{}, nil
	}
	engine := New(cfg, dial)
	pub := &recordingPublisher{}
	rc := runctx.New(context.Background(), t.TempDir(), 2, false, pub)

	require.NoError(t, engine.Run(rc))

	stats := engine.Catalog.Stats()
	require.Equal(t, 2, stats.Failed)
	require.Len(t, pub.byType(events.TaskFailed), 2)
}

func TestEngineDialFailureSkipsHostTasks(t *testing.T) {
	cfg := &config.Config{
		General: config.GeneralConfig{MaxConcurrentNodes: 1},
		Nodes: []config.HostSpec{
			{Name: "h1", Install: []config.PackageSpec{{Name: "java", Version: "11"}}},
		},
	}
	dial := func(ctx context.Context, host config.HostSpec) (HostConn, error) {
		return nil, trace.Errorf("connection refused")
	}
	engine := New(cfg, dial)
	pub := &recordingPublisher{}
	rc := runctx.New(context.Background(), t.TempDir(), 1, true, pub)

	err := engine.Run(rc)
	require.Error(t, err)

	stats := engine.Catalog.Stats()
	require.Equal(t, 1, stats.Skipped)
}

func TestEngineCancelledRunSkipsRemainingTasks(t *testing.T) {
	cfg := &config.Config{
		General: config.GeneralConfig{MaxConcurrentNodes: 1},
		Nodes: []config.HostSpec{
			{Name: "h1", Install: []config.PackageSpec{
				{Name: "a", Version: "1"},
				{Name: "b", Version: "1"},
			}},
		},
	}
	dial := func(ctx context.Context, host config.HostSpec) (HostConn, error) {
		return fakeConn{}, nil
	}
	engine := New(cfg, dial)
	pub := &recordingPublisher{}
	rc := runctx.New(context.Background(), t.TempDir(), 1, true, pub)
	rc.Cancel()

	require.NoError(t, engine.Run(rc))
	stats := engine.Catalog.Stats()
	require.Equal(t, 2, stats.Skipped)
}
