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

package task

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nodestack/nodestack/lib/config"
)

func sampleConfig() *config.Config {
	return &config.Config{
		Nodes: []config.HostSpec{
			{
				Name: "h1",
				Install: []config.PackageSpec{
					{Name: "java", Version: "11"},
					{Name: "zookeeper", Version: "3.8"},
				},
			},
			{
				Name: "h2",
				Install: []config.PackageSpec{
					{Name: "java", Version: "11"},
				},
			},
		},
	}
}

func TestBuildCatalog(t *testing.T) {
	cat := Build(sampleConfig())
	require.Len(t, cat.All(), 3)
	require.Len(t, cat.ByHost("h1"), 2)
	require.Len(t, cat.ByHost("h2"), 1)

	id := ID("h1", config.PackageSpec{Name: "java", Version: "11"})
	require.Equal(t, "h1_java_11", id)
	require.NotNil(t, cat.Get(id))

	stats := cat.Stats()
	require.Equal(t, 3, stats.Total)
	require.Equal(t, 3, stats.Pending)
}

func TestTaskLifecycleHappyPath(t *testing.T) {
	tsk := &Task{ID: "x", status: Pending}
	require.NoError(t, tsk.Start())
	require.Equal(t, Running, tsk.Status())
	tsk.SetProgress(150)
	require.Equal(t, 100, tsk.Progress())
	require.NoError(t, tsk.Complete())
	require.Equal(t, Completed, tsk.Status())
	require.Equal(t, 100, tsk.Progress())
}

func TestTaskLifecycleFailure(t *testing.T) {
	tsk := &Task{ID: "x", status: Pending}
	require.NoError(t, tsk.Start())
	require.NoError(t, tsk.Fail(require.AnError))
	require.Equal(t, Failed, tsk.Status())
	require.Error(t, tsk.Err())
}

func TestTaskSkipFromRunningState(t *testing.T) {
	tsk := &Task{ID: "x", status: Pending}
	require.NoError(t, tsk.Start())
	require.NoError(t, tsk.Skip("already installed"))
	require.Equal(t, Skipped, tsk.Status())
	require.Error(t, tsk.Err())
}

func TestTaskCannotLeaveTerminalState(t *testing.T) {
	tsk := &Task{ID: "x", status: Pending}
	require.NoError(t, tsk.Skip("previous task failed"))
	require.Equal(t, Skipped, tsk.Status())
	require.Error(t, tsk.Start())
	require.Equal(t, Skipped, tsk.Status())
}

func TestTaskCannotCompleteWithoutStarting(t *testing.T) {
	tsk := &Task{ID: "x", status: Pending}
	require.Error(t, tsk.Complete())
}

func TestCatalogStatsAggregation(t *testing.T) {
	cat := Build(sampleConfig())
	all := cat.All()
	require.NoError(t, all[0].Start())
	require.NoError(t, all[0].Complete())
	require.NoError(t, all[1].Start())
	require.NoError(t, all[1].Fail(require.AnError))
	require.NoError(t, all[2].Skip("previous task failed"))

	stats := cat.Stats()
	require.Equal(t, 1, stats.Completed)
	require.Equal(t, 1, stats.Failed)
	require.Equal(t, 1, stats.Skipped)
}
