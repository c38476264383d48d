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

// Package install implements the installer abstraction: the lifecycle
// every supported software package goes through on a target host, and the
// concrete installers for the packages this tool knows how to provision.
package install

import (
	"context"
	"fmt"

	"github.com/gravitational/trace"

	"github.com/nodestack/nodestack/lib/checks"
	"github.com/nodestack/nodestack/lib/config"
)

// Progress reports fractional completion of a running installer step; p is
// in [0, 100].
type Progress func(p int)

// Logger receives free-text output produced while an installer runs
type Logger func(line string)

// PreCheckResult is the outcome of an installer's PreCheck. It validates the
// package spec's Config map against what the installer understands
// (unrecognized keys are reported as warnings, not failures) and, where the
// installer can detect it, whether the package is already installed at the
// requested version.
type PreCheckResult struct {
	// Skip is true when the package is already installed and satisfies the
	// requested version; Install, PostConfig and Verify are bypassed and the
	// task is marked skipped instead.
	Skip bool
	// Reason explains why the task was skipped. Only meaningful when Skip is true.
	Reason string
	// Warnings lists unrecognized config keys found in the package spec
	Warnings []string
}

// Installer carries a package through its install lifecycle on one host.
// Implementations are stateless; all per-run state is passed in.
type Installer interface {
	// PreCheck inspects host and pkg before any installation command runs.
	// A runner is provided so implementations can probe the host for an
	// existing installation.
	PreCheck(ctx context.Context, runner checks.Runner, host config.HostSpec, pkg config.PackageSpec) (PreCheckResult, error)
	// Install performs the package's installation on host
	Install(ctx context.Context, runner checks.Runner, host config.HostSpec, pkg config.PackageSpec, progress Progress, log Logger) error
	// PostConfig applies post-install configuration
	PostConfig(ctx context.Context, runner checks.Runner, host config.HostSpec, pkg config.PackageSpec, log Logger) error
	// Verify confirms the package is usable after Install and PostConfig
	Verify(ctx context.Context, runner checks.Runner, host config.HostSpec, pkg config.PackageSpec, log Logger) error
}

// Registry resolves an installer by the package name that names it
type Registry struct {
	installers map[string]Installer
}

// NewRegistry returns a Registry populated with every built-in installer
func NewRegistry() *Registry {
	return &Registry{installers: map[string]Installer{
		"java":      &JavaInstaller{},
		"python":    &PythonInstaller{},
		"zookeeper": &ZookeeperInstaller{},
	}}
}

// Register adds or replaces the installer bound to name, useful in tests
func (r *Registry) Register(name string, installer Installer) {
	r.installers[name] = installer
}

// Resolve returns the installer registered under name
func (r *Registry) Resolve(name string) (Installer, error) {
	installer, ok := r.installers[name]
	if !ok {
		return nil, trace.BadParameter("no installer registered for package %q", name)
	}
	return installer, nil
}

// Run drives a package through its full lifecycle: PreCheck, Install,
// PostConfig, Verify. PreCheck warnings are returned but do not stop the
// run; a Skip verdict from PreCheck bypasses Install, PostConfig and Verify
// entirely and is reported back to the caller via the returned result.
func Run(ctx context.Context, installer Installer, runner checks.Runner, host config.HostSpec, pkg config.PackageSpec,
	progress Progress, log Logger) (result PreCheckResult, err error) {

	result, err = installer.PreCheck(ctx, runner, host, pkg)
	if err != nil {
		return result, trace.Wrap(err, "precheck failed for %v", pkg.Name)
	}
	for _, w := range result.Warnings {
		log(fmt.Sprintf("warning: %v", w))
	}
	if result.Skip {
		log(fmt.Sprintf("skipping install: %v", result.Reason))
		return result, nil
	}
	if err := installer.Install(ctx, runner, host, pkg, progress, log); err != nil {
		return result, trace.Wrap(err, "install failed for %v", pkg.Name)
	}
	if err := installer.PostConfig(ctx, runner, host, pkg, log); err != nil {
		return result, trace.Wrap(err, "post-install configuration failed for %v", pkg.Name)
	}
	if err := installer.Verify(ctx, runner, host, pkg, log); err != nil {
		return result, trace.Wrap(err, "verification failed for %v", pkg.Name)
	}
	return result, nil
}
