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

package install

import (
	"context"
	"fmt"
	"strings"

	"github.com/gravitational/trace"

	"github.com/nodestack/nodestack/lib/checks"
	"github.com/nodestack/nodestack/lib/config"
)

// pythonSettings is the typed subset of PackageSpec.Config this installer
// understands.
type pythonSettings struct {
	// Requirements is a pip requirements file path to install after the
	// interpreter itself is in place
	Requirements string
	// Venv, when set, creates a virtualenv at this path instead of
	// installing packages into the system interpreter
	Venv string
}

func parsePythonSettings(raw map[string]interface{}) (pythonSettings, []string) {
	var s pythonSettings
	var warnings []string
	for k, v := range raw {
		switch k {
		case "requirements":
			if str, ok := v.(string); ok {
				s.Requirements = str
			} else {
				warnings = append(warnings, fmt.Sprintf("requirements: expected string, got %T", v))
			}
		case "venv":
			if str, ok := v.(string); ok {
				s.Venv = str
			} else {
				warnings = append(warnings, fmt.Sprintf("venv: expected string, got %T", v))
			}
		default:
			warnings = append(warnings, fmt.Sprintf("unrecognized python config key %q", k))
		}
	}
	return s, warnings
}

// PythonInstaller provisions a Python interpreter and, optionally, a
// virtualenv populated from a pip requirements file.
type PythonInstaller struct{}

// PreCheck implements Installer. When the requested interpreter is already
// on the host at the requested version, the install is skipped.
func (PythonInstaller) PreCheck(ctx context.Context, runner checks.Runner, host config.HostSpec, pkg config.PackageSpec) (PreCheckResult, error) {
	_, warnings := parsePythonSettings(pkg.Config)
	result := PreCheckResult{Warnings: warnings}

	out, code, err := runner.Run(ctx, fmt.Sprintf("python%v --version", pkg.Version))
	if err == nil && code == 0 && pkg.Version != "" && strings.Contains(out, pkg.Version) {
		result.Skip = true
		result.Reason = fmt.Sprintf("python%v already installed", pkg.Version)
	}
	return result, nil
}

// Install implements Installer
func (PythonInstaller) Install(ctx context.Context, runner checks.Runner, host config.HostSpec, pkg config.PackageSpec,
	progress Progress, log Logger) error {

	progress(0)
	var cmd string
	switch pkg.Source {
	case config.SourceRepository:
		cmd = fmt.Sprintf("sudo apt-get install -y python%v python%v-venv || sudo yum install -y python%v", pkg.Version, pkg.Version, pkg.Version)
	case config.SourceURL:
		cmd = fmt.Sprintf("curl -fsSL %v -o /tmp/python.tar.gz && sudo mkdir -p %v && sudo tar -xzf /tmp/python.tar.gz -C %v --strip-components=1",
			pkg.SourcePath, pkg.InstallPath, pkg.InstallPath)
	case config.SourceLocal:
		cmd = fmt.Sprintf("sudo mkdir -p %v && sudo tar -xzf %v -C %v --strip-components=1", pkg.InstallPath, pkg.SourcePath, pkg.InstallPath)
	default:
		return trace.BadParameter("unsupported source %q", pkg.Source)
	}
	out, code, err := runner.Run(ctx, cmd)
	log(out)
	progress(60)
	if err != nil || code != 0 {
		return trace.Wrap(err, "python install command exited %v: %v", code, cmd)
	}
	return nil
}

// PostConfig implements Installer
func (PythonInstaller) PostConfig(ctx context.Context, runner checks.Runner, host config.HostSpec, pkg config.PackageSpec, log Logger) error {
	settings, _ := parsePythonSettings(pkg.Config)
	if settings.Venv != "" {
		out, code, err := runner.Run(ctx, fmt.Sprintf("python%v -m venv %v", pkg.Version, settings.Venv))
		log(out)
		if err != nil || code != 0 {
			return trace.Wrap(err, "failed to create virtualenv at %v", settings.Venv)
		}
	}
	if settings.Requirements == "" {
		return nil
	}
	pip := "pip" + pkg.Version
	if settings.Venv != "" {
		pip = settings.Venv + "/bin/pip"
	}
	out, code, err := runner.Run(ctx, fmt.Sprintf("%v install -r %v", pip, settings.Requirements))
	log(out)
	if err != nil || code != 0 {
		return trace.Wrap(err, "failed to install requirements from %v", settings.Requirements)
	}
	return nil
}

// Verify implements Installer
func (PythonInstaller) Verify(ctx context.Context, runner checks.Runner, host config.HostSpec, pkg config.PackageSpec, log Logger) error {
	out, code, err := runner.Run(ctx, fmt.Sprintf("python%v --version", pkg.Version))
	log(out)
	if err != nil || code != 0 {
		return trace.Errorf("python%v binary did not respond to --version (exit %v)", pkg.Version, code)
	}
	if !strings.Contains(out, pkg.Version) {
		log(fmt.Sprintf("warning: installed python version output does not mention requested version %v", pkg.Version))
	}
	return nil
}
