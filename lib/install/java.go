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

// javaSettings is the typed subset of PackageSpec.Config this installer
// understands. set_java_home defaults to false: JAVA_HOME is left to the
// operator's own shell profile unless explicitly requested.
type javaSettings struct {
	SetJavaHome bool
}

func parseJavaSettings(raw map[string]interface{}) (javaSettings, []string) {
	var s javaSettings
	var warnings []string
	for k, v := range raw {
		switch k {
		case "set_java_home":
			if b, ok := v.(bool); ok {
				s.SetJavaHome = b
			} else {
				warnings = append(warnings, fmt.Sprintf("set_java_home: expected bool, got %T", v))
			}
		default:
			warnings = append(warnings, fmt.Sprintf("unrecognized java config key %q", k))
		}
	}
	return s, warnings
}

// JavaInstaller provisions a JDK from the distribution's package
// repository, a URL-hosted archive, or a local archive already on the host.
type JavaInstaller struct{}

// PreCheck implements Installer. When a JDK already on the host reports
// the requested version, the install is skipped.
func (JavaInstaller) PreCheck(ctx context.Context, runner checks.Runner, host config.HostSpec, pkg config.PackageSpec) (PreCheckResult, error) {
	_, warnings := parseJavaSettings(pkg.Config)
	result := PreCheckResult{Warnings: warnings}

	out, code, err := runner.Run(ctx, "java -version")
	if err == nil && code == 0 && pkg.Version != "" && strings.Contains(out, pkg.Version) {
		result.Skip = true
		result.Reason = fmt.Sprintf("java %v already installed", pkg.Version)
	}
	return result, nil
}

// Install implements Installer
func (JavaInstaller) Install(ctx context.Context, runner checks.Runner, host config.HostSpec, pkg config.PackageSpec,
	progress Progress, log Logger) error {

	progress(0)
	var cmd string
	switch pkg.Source {
	case config.SourceRepository:
		cmd = fmt.Sprintf("sudo apt-get install -y openjdk-%v-jdk || sudo yum install -y java-%v-openjdk", pkg.Version, pkg.Version)
	case config.SourceURL:
		cmd = fmt.Sprintf("curl -fsSL %v -o /tmp/java.tar.gz && sudo mkdir -p %v && sudo tar -xzf /tmp/java.tar.gz -C %v --strip-components=1",
			pkg.SourcePath, pkg.InstallPath, pkg.InstallPath)
	case config.SourceLocal:
		cmd = fmt.Sprintf("sudo mkdir -p %v && sudo tar -xzf %v -C %v --strip-components=1", pkg.InstallPath, pkg.SourcePath, pkg.InstallPath)
	default:
		return trace.BadParameter("unsupported source %q", pkg.Source)
	}
	out, code, err := runner.Run(ctx, cmd)
	log(out)
	progress(70)
	if err != nil || code != 0 {
		return trace.Wrap(err, "java install command exited %v: %v", code, cmd)
	}
	return nil
}

// PostConfig implements Installer
func (j JavaInstaller) PostConfig(ctx context.Context, runner checks.Runner, host config.HostSpec, pkg config.PackageSpec, log Logger) error {
	settings, _ := parseJavaSettings(pkg.Config)
	if !settings.SetJavaHome {
		return nil
	}
	cmd := fmt.Sprintf(`echo 'export JAVA_HOME=%v' | sudo tee /etc/profile.d/java_home.sh`, pkg.InstallPath)
	out, code, err := runner.Run(ctx, cmd)
	log(out)
	if err != nil || code != 0 {
		return trace.Wrap(err, "failed to set JAVA_HOME")
	}
	return nil
}

// Verify implements Installer
func (JavaInstaller) Verify(ctx context.Context, runner checks.Runner, host config.HostSpec, pkg config.PackageSpec, log Logger) error {
	out, code, err := runner.Run(ctx, "java -version")
	log(out)
	if err != nil || code != 0 {
		return trace.Errorf("java binary did not respond to -version (exit %v)", code)
	}
	if pkg.Version != "" && !strings.Contains(out, pkg.Version) {
		log(fmt.Sprintf("warning: installed java version output does not mention requested version %v", pkg.Version))
	}
	return nil
}
