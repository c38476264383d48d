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
	"sort"
	"strings"

	"github.com/gravitational/trace"

	"github.com/nodestack/nodestack/lib/checks"
	"github.com/nodestack/nodestack/lib/config"
)

// zookeeperSettings is the typed subset of PackageSpec.Config this
// installer understands. Anything else in the map (e.g. custom tuning
// keys) is written into zoo.cfg verbatim, never rejected.
type zookeeperSettings struct {
	TickTime   string
	DataDir    string
	ClientPort string
	Extra      map[string]string
}

func parseZookeeperSettings(raw map[string]interface{}) zookeeperSettings {
	s := zookeeperSettings{
		TickTime:   "2000",
		DataDir:    "/var/lib/zookeeper",
		ClientPort: "2181",
		Extra:      map[string]string{},
	}
	for k, v := range raw {
		str := fmt.Sprintf("%v", v)
		switch k {
		case "tickTime":
			s.TickTime = str
		case "dataDir":
			s.DataDir = str
		case "clientPort":
			s.ClientPort = str
		default:
			s.Extra[k] = str
		}
	}
	return s
}

// ZookeeperInstaller provisions Apache ZooKeeper from a URL or local
// archive and writes a minimal zoo.cfg derived from PackageSpec.Config.
type ZookeeperInstaller struct{}

// PreCheck implements Installer. Every config key is understood (unknown
// keys become additional zoo.cfg lines), so there are never warnings.
// Zookeeper ships no version flag, so "already installed" is detected by
// an already-running server at the requested install path rather than a
// version string match.
func (ZookeeperInstaller) PreCheck(ctx context.Context, runner checks.Runner, host config.HostSpec, pkg config.PackageSpec) (PreCheckResult, error) {
	if pkg.Source == config.SourceRepository {
		return PreCheckResult{}, trace.BadParameter("zookeeper is not available as a repository package, use source: url or source: local")
	}
	cmd := fmt.Sprintf("test -x %v/bin/zkServer.sh && %v/bin/zkServer.sh status", pkg.InstallPath, pkg.InstallPath)
	out, code, err := runner.Run(ctx, cmd)
	if err == nil && code == 0 && strings.Contains(out, "Mode:") {
		return PreCheckResult{Skip: true, Reason: fmt.Sprintf("zookeeper already running at %v", pkg.InstallPath)}, nil
	}
	return PreCheckResult{}, nil
}

// Install implements Installer
func (ZookeeperInstaller) Install(ctx context.Context, runner checks.Runner, host config.HostSpec, pkg config.PackageSpec,
	progress Progress, log Logger) error {

	progress(0)
	var cmd string
	switch pkg.Source {
	case config.SourceURL:
		cmd = fmt.Sprintf("curl -fsSL %v -o /tmp/zk.tar.gz && sudo mkdir -p %v && sudo tar -xzf /tmp/zk.tar.gz -C %v --strip-components=1",
			pkg.SourcePath, pkg.InstallPath, pkg.InstallPath)
	case config.SourceLocal:
		cmd = fmt.Sprintf("sudo mkdir -p %v && sudo tar -xzf %v -C %v --strip-components=1", pkg.InstallPath, pkg.SourcePath, pkg.InstallPath)
	default:
		return trace.BadParameter("unsupported source %q", pkg.Source)
	}
	out, code, err := runner.Run(ctx, cmd)
	log(out)
	progress(50)
	if err != nil || code != 0 {
		return trace.Wrap(err, "zookeeper install command exited %v: %v", code, cmd)
	}
	return nil
}

// PostConfig implements Installer: writes zoo.cfg and ensures the data
// directory exists.
func (ZookeeperInstaller) PostConfig(ctx context.Context, runner checks.Runner, host config.HostSpec, pkg config.PackageSpec, log Logger) error {
	settings := parseZookeeperSettings(pkg.Config)

	var cfg strings.Builder
	fmt.Fprintf(&cfg, "tickTime=%v\n", settings.TickTime)
	fmt.Fprintf(&cfg, "dataDir=%v\n", settings.DataDir)
	fmt.Fprintf(&cfg, "clientPort=%v\n", settings.ClientPort)
	keys := make([]string, 0, len(settings.Extra))
	for k := range settings.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&cfg, "%v=%v\n", k, settings.Extra[k])
	}

	cmd := fmt.Sprintf("sudo mkdir -p %v && cat <<'EOF' | sudo tee %v/conf/zoo.cfg\n%vEOF",
		settings.DataDir, pkg.InstallPath, cfg.String())
	out, code, err := runner.Run(ctx, cmd)
	log(out)
	if err != nil || code != 0 {
		return trace.Wrap(err, "failed to write zoo.cfg")
	}
	return nil
}

// Verify implements Installer
func (ZookeeperInstaller) Verify(ctx context.Context, runner checks.Runner, host config.HostSpec, pkg config.PackageSpec, log Logger) error {
	cmd := fmt.Sprintf("%v/bin/zkServer.sh status", pkg.InstallPath)
	out, code, err := runner.Run(ctx, cmd)
	log(out)
	if err != nil || code != 0 {
		return trace.Errorf("zkServer.sh status exited %v", code)
	}
	return nil
}
