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

// Package checks implements the preflight checker framework run against
// each host before any installer is invoked.
package checks

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gravitational/trace"

	"github.com/nodestack/nodestack/lib/config"
	"github.com/nodestack/nodestack/lib/defaults"
	"github.com/nodestack/nodestack/lib/events"
	"github.com/nodestack/nodestack/lib/utils"
)

// Runner executes a single command on a remote host and returns its
// stdout, untrimmed, and exit status. Checkers never see the SSH transport
// directly so they can be tested against a fake.
type Runner interface {
	Run(ctx context.Context, cmd string) (stdout string, exitCode int, err error)
}

// Result is the outcome of a single checker run against a single host
type Result struct {
	// CheckName identifies the checker that produced this result
	CheckName string
	// Level is the severity to attach to the result if Passed is false
	Level events.Level
	// Passed reports whether the check succeeded
	Passed bool
	// Message is a human-readable summary
	Message string
	// Details carries structured supporting data, e.g. measured values
	Details map[string]interface{}
}

// Checker validates a single precondition on a host before installers run
type Checker interface {
	// Name identifies the checker, e.g. "disk-space"
	Name() string
	// Run executes the check against host using runner
	Run(ctx context.Context, host config.HostSpec, runner Runner) Result
}

// Manager runs a fixed set of checkers against a host and aggregates results
type Manager struct {
	checkers []Checker
}

// NewManager returns a Manager running the standard preflight checker set
func NewManager() *Manager {
	return &Manager{checkers: []Checker{
		ConnectivityChecker{RetryTimeout: defaults.ConnectivityRetryTimeout},
		DiskSpaceChecker{MinMB: defaults.MinDiskSpaceMB},
		MemoryChecker{MinMB: defaults.MinMemoryMB},
		PortAvailabilityChecker{},
		SystemInfoChecker{},
		&PackageManagerChecker{},
		SudoPrivilegeChecker{},
	}}
}

// WithCheckers returns a Manager running exactly the given checkers, useful in tests
func WithCheckers(checkers ...Checker) *Manager {
	return &Manager{checkers: checkers}
}

// RunAll runs every registered checker against host in order and returns
// all results; a failing checker does not stop the remaining checkers.
func (m *Manager) RunAll(ctx context.Context, host config.HostSpec, runner Runner, installRequiresRepo bool) []Result {
	results := make([]Result, 0, len(m.checkers))
	for _, c := range m.checkers {
		if pkc, ok := c.(*PackageManagerChecker); ok {
			pkc.RequiresRepository = installRequiresRepo
		}
		results = append(results, c.Run(ctx, host, runner))
	}
	return results
}

// HasErrors reports whether any result is a failed check at Error level
func HasErrors(results []Result) bool {
	for _, r := range results {
		if !r.Passed && r.Level == events.Error {
			return true
		}
	}
	return false
}

// ConnectivityChecker confirms the host answers a trivial remote command.
// A freshly booted host's SSH daemon may not accept connections yet, so
// when RetryTimeout is set the probe is retried with backoff before it is
// reported as unreachable.
type ConnectivityChecker struct {
	// RetryTimeout bounds how long the checker retries a failing probe.
	// Zero performs a single attempt with no retry.
	RetryTimeout time.Duration
}

// Name implements Checker
func (ConnectivityChecker) Name() string { return "connectivity" }

// Run implements Checker
func (c ConnectivityChecker) Run(ctx context.Context, host config.HostSpec, runner Runner) Result {
	probe := func() error {
		out, code, err := runner.Run(ctx, "echo ok")
		if err != nil {
			return trace.Wrap(err)
		}
		if code != 0 || strings.TrimSpace(out) != "ok" {
			return trace.Errorf("unexpected response from host: code=%v out=%q", code, out)
		}
		return nil
	}

	var err error
	if c.RetryTimeout > 0 {
		backoffCtx, cancel := context.WithTimeout(ctx, c.RetryTimeout)
		defer cancel()
		err = utils.RetryWithInterval(backoffCtx, utils.NewExponentialBackOff(c.RetryTimeout), probe)
	} else {
		err = probe()
	}
	if err != nil {
		return Result{CheckName: "connectivity", Level: events.Error, Passed: false,
			Message: "unable to execute commands on host"}
	}
	return Result{CheckName: "connectivity", Level: events.Info, Passed: true,
		Message: "host is reachable"}
}

// DiskSpaceChecker confirms a minimum amount of free disk space
type DiskSpaceChecker struct {
	MinMB int
}

// Name implements Checker
func (DiskSpaceChecker) Name() string { return "disk-space" }

// Run implements Checker
func (d DiskSpaceChecker) Run(ctx context.Context, host config.HostSpec, runner Runner) Result {
	out, code, err := runner.Run(ctx, "df -Pm / | tail -1 | awk '{print $4}'")
	if err != nil || code != 0 {
		return Result{CheckName: d.Name(), Level: events.Error, Passed: false,
			Message: "unable to determine free disk space"}
	}
	freeMB, convErr := strconv.Atoi(strings.TrimSpace(out))
	if convErr != nil {
		return Result{CheckName: d.Name(), Level: events.Error, Passed: false,
			Message: "could not parse disk space output: " + out}
	}
	if freeMB < d.MinMB {
		return Result{CheckName: d.Name(), Level: events.Error, Passed: false,
			Message:   "insufficient free disk space",
			Details:   map[string]interface{}{"free_mb": freeMB, "required_mb": d.MinMB}}
	}
	return Result{CheckName: d.Name(), Level: events.Info, Passed: true,
		Message: "sufficient free disk space", Details: map[string]interface{}{"free_mb": freeMB}}
}

// MemoryChecker confirms a minimum amount of available memory. Failure is a
// Warning rather than an Error: installers may still succeed with less
// memory than recommended.
type MemoryChecker struct {
	MinMB int
}

// Name implements Checker
func (MemoryChecker) Name() string { return "memory" }

// Run implements Checker
func (m MemoryChecker) Run(ctx context.Context, host config.HostSpec, runner Runner) Result {
	out, code, err := runner.Run(ctx, "awk '/MemAvailable/ {print int($2/1024)}' /proc/meminfo")
	if err != nil || code != 0 {
		return Result{CheckName: m.Name(), Level: events.Warn, Passed: false,
			Message: "unable to determine available memory"}
	}
	availableMB, convErr := strconv.Atoi(strings.TrimSpace(out))
	if convErr != nil {
		return Result{CheckName: m.Name(), Level: events.Warn, Passed: false,
			Message: "could not parse memory output: " + out}
	}
	if availableMB < m.MinMB {
		return Result{CheckName: m.Name(), Level: events.Warn, Passed: false,
			Message: "less memory than recommended",
			Details: map[string]interface{}{"available_mb": availableMB, "recommended_mb": m.MinMB}}
	}
	return Result{CheckName: m.Name(), Level: events.Info, Passed: true,
		Message: "sufficient memory", Details: map[string]interface{}{"available_mb": availableMB}}
}

// PortAvailabilityChecker confirms the SSH port used to reach the host is
// the one declared in its configuration (a sanity check run over the same
// connection used to run every other checker).
type PortAvailabilityChecker struct{}

// Name implements Checker
func (PortAvailabilityChecker) Name() string { return "port-availability" }

// Run implements Checker
func (PortAvailabilityChecker) Run(ctx context.Context, host config.HostSpec, runner Runner) Result {
	_, code, err := runner.Run(ctx, "true")
	if err != nil || code != 0 {
		return Result{CheckName: "port-availability", Level: events.Error, Passed: false,
			Message: "unable to confirm SSH port reachability"}
	}
	return Result{CheckName: "port-availability", Level: events.Info, Passed: true,
		Message: "SSH port reachable", Details: map[string]interface{}{"port": host.Port}}
}

// SystemInfoChecker records the remote operating system for diagnostics.
// It never fails: informational only.
type SystemInfoChecker struct{}

// Name implements Checker
func (SystemInfoChecker) Name() string { return "system-info" }

// Run implements Checker
func (SystemInfoChecker) Run(ctx context.Context, host config.HostSpec, runner Runner) Result {
	out, _, err := runner.Run(ctx, "uname -a")
	if err != nil {
		out = "unknown"
	}
	return Result{CheckName: "system-info", Level: events.Info, Passed: true,
		Message: strings.TrimSpace(out)}
}

// PackageManagerChecker confirms a recognized package manager is present.
// Absent a package manager this is normally a Warning; when a host has at
// least one package declared with source: repository, it escalates to an
// Error because that installer cannot proceed without one.
type PackageManagerChecker struct {
	RequiresRepository bool
}

// Name implements Checker
func (PackageManagerChecker) Name() string { return "package-manager" }

// Run implements Checker
func (p *PackageManagerChecker) Run(ctx context.Context, host config.HostSpec, runner Runner) Result {
	out, code, err := runner.Run(ctx, "command -v apt-get || command -v yum || command -v dnf || true")
	found := err == nil && code == 0 && strings.TrimSpace(out) != ""
	if found {
		return Result{CheckName: p.Name(), Level: events.Info, Passed: true,
			Message: "package manager available", Details: map[string]interface{}{"path": strings.TrimSpace(out)}}
	}
	level := events.Warn
	if p.RequiresRepository {
		level = events.Error
	}
	return Result{CheckName: p.Name(), Level: level, Passed: false,
		Message: "no recognized package manager found"}
}

// SudoPrivilegeChecker confirms the user of the connection it is given can
// escalate privileges via sudo without a password prompt. The scheduler runs
// it over the owner-credential connection; the super credential bundle is
// not used for this check.
type SudoPrivilegeChecker struct{}

// Name implements Checker
func (SudoPrivilegeChecker) Name() string { return "sudo-privilege" }

// Run implements Checker
func (SudoPrivilegeChecker) Run(ctx context.Context, host config.HostSpec, runner Runner) Result {
	out, code, err := runner.Run(ctx, "sudo -n true && echo ok")
	if err != nil || code != 0 || strings.TrimSpace(out) != "ok" {
		return Result{CheckName: "sudo-privilege", Level: events.Error, Passed: false,
			Message: "unable to escalate privileges via sudo without a password"}
	}
	return Result{CheckName: "sudo-privilege", Level: events.Info, Passed: true,
		Message: "sudo privilege confirmed"}
}
