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

package checks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nodestack/nodestack/lib/config"
	"github.com/nodestack/nodestack/lib/events"
)

// fakeRunner returns a scripted response for each command prefix it is asked to run
type fakeRunner struct {
	responses map[string]fakeResponse
	fallback  fakeResponse
}

type fakeResponse struct {
	stdout string
	code   int
	err    error
}

func (f fakeRunner) Run(ctx context.Context, cmd string) (string, int, error) {
	if r, ok := f.responses[cmd]; ok {
		return r.stdout, r.code, r.err
	}
	return f.fallback.stdout, f.fallback.code, f.fallback.err
}

func TestConnectivityCheckerPassAndFail(t *testing.T) {
	host := config.HostSpec{Name: "h1"}
	ok := ConnectivityChecker{}.Run(context.Background(), host, fakeRunner{
		responses: map[string]fakeResponse{"echo ok": {stdout: "ok", code: 0}},
	})
	require.True(t, ok.Passed)

	down := ConnectivityChecker{}.Run(context.Background(), host, fakeRunner{
		fallback: fakeResponse{code: 1},
	})
	require.False(t, down.Passed)
	require.Equal(t, events.Error, down.Level)
}

// countingRunner fails the first failAttempts calls, then succeeds.
type countingRunner struct {
	failAttempts int
	calls        int
}

func (r *countingRunner) Run(ctx context.Context, cmd string) (string, int, error) {
	r.calls++
	if r.calls <= r.failAttempts {
		return "", 1, nil
	}
	return "ok", 0, nil
}

func TestConnectivityCheckerRetriesUntilHostComesUp(t *testing.T) {
	host := config.HostSpec{Name: "h1"}
	runner := &countingRunner{failAttempts: 2}

	result := ConnectivityChecker{RetryTimeout: 5 * time.Second}.Run(context.Background(), host, runner)

	require.True(t, result.Passed)
	require.GreaterOrEqual(t, runner.calls, 3)
}

func TestDiskSpaceCheckerThreshold(t *testing.T) {
	host := config.HostSpec{Name: "h1"}
	checker := DiskSpaceChecker{MinMB: 1024}

	low := checker.Run(context.Background(), host, fakeRunner{
		fallback: fakeResponse{stdout: "512", code: 0},
	})
	require.False(t, low.Passed)
	require.Equal(t, events.Error, low.Level)

	high := checker.Run(context.Background(), host, fakeRunner{
		fallback: fakeResponse{stdout: "4096", code: 0},
	})
	require.True(t, high.Passed)
}

func TestMemoryCheckerIsWarningOnly(t *testing.T) {
	host := config.HostSpec{Name: "h1"}
	checker := MemoryChecker{MinMB: 512}
	low := checker.Run(context.Background(), host, fakeRunner{
		fallback: fakeResponse{stdout: "256", code: 0},
	})
	require.False(t, low.Passed)
	require.Equal(t, events.Warn, low.Level)
}

func TestPackageManagerEscalatesWhenRepositoryRequired(t *testing.T) {
	host := config.HostSpec{Name: "h1"}
	missing := fakeRunner{fallback: fakeResponse{stdout: "", code: 0}}

	warn := (&PackageManagerChecker{RequiresRepository: false}).Run(context.Background(), host, missing)
	require.Equal(t, events.Warn, warn.Level)

	escalated := (&PackageManagerChecker{RequiresRepository: true}).Run(context.Background(), host, missing)
	require.Equal(t, events.Error, escalated.Level)
}

func TestManagerRunAllEscalatesPackageManagerPerHost(t *testing.T) {
	m := NewManager()
	host := config.HostSpec{Name: "h1"}
	runner := fakeRunner{
		responses: map[string]fakeResponse{
			"echo ok":                      {stdout: "ok", code: 0},
			"df -Pm / | tail -1 | awk '{print $4}'": {stdout: "4096", code: 0},
			"awk '/MemAvailable/ {print int($2/1024)}' /proc/meminfo": {stdout: "2048", code: 0},
			"true":                         {code: 0},
			"sudo -n true && echo ok":      {stdout: "ok", code: 0},
		},
		fallback: fakeResponse{stdout: "", code: 1},
	}
	results := m.RunAll(context.Background(), host, runner, true)
	require.True(t, HasErrors(results))
}

func TestHasErrorsIgnoresWarnings(t *testing.T) {
	results := []Result{
		{CheckName: "memory", Level: events.Warn, Passed: false},
		{CheckName: "disk-space", Level: events.Info, Passed: true},
	}
	require.False(t, HasErrors(results))
}
