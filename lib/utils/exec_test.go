/*
Copyright 2021 Gravitational, Inc.

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

package utils

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunStreamCapturesStdout(t *testing.T) {
	var out, errOut bytes.Buffer
	err := RunStream(context.Background(), &out, &errOut, "echo", "hello")
	require.NoError(t, err)
	require.Equal(t, "hello\n", out.String())
}

func TestRunStreamReturnsErrorOnNonZeroExit(t *testing.T) {
	var out, errOut bytes.Buffer
	err := RunStream(context.Background(), &out, &errOut, "false")
	require.Error(t, err)
}

func TestRunnerDefaultsToRunStream(t *testing.T) {
	var out, errOut bytes.Buffer
	err := Runner.RunStream(context.Background(), &out, &errOut, "echo", "via-runner")
	require.NoError(t, err)
	require.Equal(t, "via-runner\n", out.String())
}
