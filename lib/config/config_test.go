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

package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const validDoc = `
general:
  data_dir: /var/lib/nodestack
  max_concurrent_nodes: 2
log:
  level: debug
nodes:
  - h1:
      host: 192.0.2.1
      owner_user: ubuntu
      owner_pass: secret
      install:
        - java:
            version: "11"
            install_path: /opt/java
  - h2:
      host: 192.0.2.2
      owner_user: ubuntu
      owner_pass: secret
      install:
        - zookeeper:
            version: "3.8"
            install_path: /opt/zk
            source: url
            source_path: https://example.com/zk.tar.gz
            config:
              tickTime: "2000"
`

func TestParseConfigValid(t *testing.T) {
	config, err := ParseConfig([]byte(validDoc))
	require.NoError(t, err)
	require.Equal(t, 2, config.General.MaxConcurrentNodes)
	require.Equal(t, "DEBUG", config.Log.Level)
	require.Len(t, config.Nodes, 2)

	h1 := config.Nodes[0]
	require.Equal(t, "h1", h1.Name)
	require.Equal(t, DefaultPort, h1.Port)
	require.Equal(t, DefaultSuperUser, h1.SuperUser)
	require.Len(t, h1.Install, 1)
	require.Equal(t, "java", h1.Install[0].Name)
	require.Equal(t, SourceRepository, h1.Install[0].Source)

	h2 := config.Nodes[1]
	require.Equal(t, "zookeeper", h2.Install[0].Name)
	require.Equal(t, "2000", h2.Install[0].Config["tickTime"])
}

func TestParseConfigDuplicateNodeName(t *testing.T) {
	doc := `
general:
  data_dir: /var/lib/nodestack
nodes:
  - h1:
      host: 192.0.2.1
      owner_user: ubuntu
      owner_pass: secret
  - h1:
      host: 192.0.2.2
      owner_user: ubuntu
      owner_pass: secret
`
	_, err := ParseConfig([]byte(doc))
	require.Error(t, err)
	require.Contains(t, err.Error(), "not unique")
}

func TestParseConfigMissingCredentials(t *testing.T) {
	doc := `
general:
  data_dir: /var/lib/nodestack
nodes:
  - h1:
      host: 192.0.2.1
      owner_user: ubuntu
`
	_, err := ParseConfig([]byte(doc))
	require.Error(t, err)
	require.Contains(t, err.Error(), "one of pass or key is required")
}

func TestParseConfigSourcePathRequired(t *testing.T) {
	doc := `
general:
  data_dir: /var/lib/nodestack
nodes:
  - h1:
      host: 192.0.2.1
      owner_user: ubuntu
      owner_pass: secret
      install:
        - java:
            version: "11"
            install_path: /opt/java
            source: url
`
	_, err := ParseConfig([]byte(doc))
	require.Error(t, err)
	require.Contains(t, err.Error(), "source_path is required")
}

func TestParseConfigInvalidPortRange(t *testing.T) {
	doc := `
general:
  data_dir: /var/lib/nodestack
nodes:
  - h1:
      host: 192.0.2.1
      port: 70000
      owner_user: ubuntu
      owner_pass: secret
`
	_, err := ParseConfig([]byte(doc))
	require.Error(t, err)
	require.Contains(t, err.Error(), "port must be in")
}

func TestParseConfigMaxConcurrentNodesCap(t *testing.T) {
	doc := `
general:
  data_dir: /var/lib/nodestack
  max_concurrent_nodes: 20
nodes:
  - h1:
      host: 192.0.2.1
      owner_user: ubuntu
      owner_pass: secret
`
	_, err := ParseConfig([]byte(doc))
	require.Error(t, err)
	require.Contains(t, err.Error(), "max_concurrent_nodes must be in")
}

func TestKeyPathPermissions(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "id_rsa")
	require.NoError(t, ioutil.WriteFile(keyPath, []byte("fake-key"), 0644))

	doc := `
general:
  data_dir: /var/lib/nodestack
nodes:
  - h1:
      host: 192.0.2.1
      owner_user: ubuntu
      owner_key: ` + keyPath + `
`
	_, err := ParseConfig([]byte(doc))
	require.Error(t, err)
	require.Contains(t, err.Error(), "must not be readable by group/other")

	require.NoError(t, os.Chmod(keyPath, 0600))
	_, err = ParseConfig([]byte(doc))
	require.NoError(t, err)
}

func TestFilterNodesAndPackages(t *testing.T) {
	config, err := ParseConfig([]byte(validDoc))
	require.NoError(t, err)

	byNode := config.FilterNodes([]string{"h2"})
	require.Len(t, byNode.Nodes, 1)
	require.Equal(t, "h2", byNode.Nodes[0].Name)

	byPkg := config.FilterPackages([]string{"java"})
	require.Len(t, byPkg.Nodes, 2)
	require.Len(t, byPkg.Nodes[0].Install, 1)
	require.Len(t, byPkg.Nodes[1].Install, 0)
}
