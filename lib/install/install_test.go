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
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nodestack/nodestack/lib/config"
)

// alwaysOKRunner simulates a host where nothing is installed yet: version
// probes fail until a command that looks like an install step has run, after
// which version probes echo the requested version so Verify steps pass.
type alwaysOKRunner struct {
	version   string
	installed bool
}

func (r *alwaysOKRunner) Run(ctx context.Context, cmd string) (string, int, error) {
	if strings.Contains(cmd, "tar -xzf") || strings.Contains(cmd, "apt-get install") || strings.Contains(cmd, "yum install") {
		r.installed = true
		return "", 0, nil
	}
	if strings.Contains(cmd, "-version") || strings.Contains(cmd, "--version") || strings.Contains(cmd, "zkServer.sh status") {
		if r.installed {
			return "ok " + r.version, 0, nil
		}
		return "not found", 1, nil
	}
	return "ok " + r.version, 0, nil
}

// alreadyInstalledRunner reports every version probe as already satisfying
// the requested version, as if the package was installed before this run.
type alreadyInstalledRunner struct {
	version string
}

func (r alreadyInstalledRunner) Run(ctx context.Context, cmd string) (string, int, error) {
	if strings.Contains(cmd, "zkServer.sh status") {
		return "Mode: standalone", 0, nil
	}
	return "ok " + r.version, 0, nil
}

func TestRegistryResolve(t *testing.T) {
	reg := NewRegistry()
	installer, err := reg.Resolve("java")
	require.NoError(t, err)
	require.IsType(t, &JavaInstaller{}, installer)

	_, err = reg.Resolve("nope")
	require.Error(t, err)
}

func TestJavaLifecycleHappyPath(t *testing.T) {
	pkg := config.PackageSpec{Name: "java", Version: "11", InstallPath: "/opt/java", Source: config.SourceRepository}
	runner := &alwaysOKRunner{version: "11"}
	var logs []string
	result, err := Run(context.Background(), &JavaInstaller{}, runner, config.HostSpec{Name: "h1"}, pkg,
		func(int) {}, func(l string) { logs = append(logs, l) })
	require.NoError(t, err)
	require.False(t, result.Skip)
	require.Empty(t, result.Warnings)
}

func TestJavaPreCheckSkipsWhenAlreadyInstalled(t *testing.T) {
	pkg := config.PackageSpec{Name: "java", Version: "11", InstallPath: "/opt/java", Source: config.SourceRepository}
	result, err := Run(context.Background(), &JavaInstaller{}, alreadyInstalledRunner{version: "11"}, config.HostSpec{Name: "h1"}, pkg,
		func(int) {}, func(string) {})
	require.NoError(t, err)
	require.True(t, result.Skip)
	require.Contains(t, result.Reason, "11")
}

func TestJavaPreCheckWarnsOnUnknownKey(t *testing.T) {
	pkg := config.PackageSpec{Config: map[string]interface{}{"bogus": "x"}}
	result, err := (&JavaInstaller{}).PreCheck(context.Background(), &alwaysOKRunner{}, config.HostSpec{}, pkg)
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	require.Contains(t, result.Warnings[0], "bogus")
	require.False(t, result.Skip)
}

func TestZookeeperRejectsRepositorySource(t *testing.T) {
	pkg := config.PackageSpec{Name: "zookeeper", Source: config.SourceRepository}
	_, err := (&ZookeeperInstaller{}).PreCheck(context.Background(), &alwaysOKRunner{}, config.HostSpec{}, pkg)
	require.Error(t, err)
}

func TestZookeeperPreCheckSkipsWhenAlreadyRunning(t *testing.T) {
	pkg := config.PackageSpec{Name: "zookeeper", InstallPath: "/opt/zk", Source: config.SourceURL}
	result, err := (&ZookeeperInstaller{}).PreCheck(context.Background(), alreadyInstalledRunner{}, config.HostSpec{}, pkg)
	require.NoError(t, err)
	require.True(t, result.Skip)
	require.Contains(t, result.Reason, "/opt/zk")
}

func TestZookeeperConfigDefaultsAndOverrides(t *testing.T) {
	settings := parseZookeeperSettings(map[string]interface{}{
		"tickTime": "3000",
		"custom":   "value",
	})
	require.Equal(t, "3000", settings.TickTime)
	require.Equal(t, "/var/lib/zookeeper", settings.DataDir)
	require.Equal(t, "value", settings.Extra["custom"])
}

func TestPythonRequiresVenvIsOptional(t *testing.T) {
	pkg := config.PackageSpec{Name: "python", Version: "3", InstallPath: "/opt/python", Source: config.SourceRepository}
	runner := &alwaysOKRunner{version: "3"}
	result, err := Run(context.Background(), &PythonInstaller{}, runner, config.HostSpec{Name: "h1"}, pkg,
		func(int) {}, func(string) {})
	require.NoError(t, err)
	require.False(t, result.Skip)
}
