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

package cli

import (
	"testing"

	"github.com/gravitational/trace"
	"github.com/stretchr/testify/require"
)

func TestNewExitErrorCarriesCode(t *testing.T) {
	err := newExitError(ExitTaskFailures, trace.Errorf("boom"))
	require.Error(t, err)

	coder, ok := err.(interface{ ExitCode() int })
	require.True(t, ok)
	require.Equal(t, ExitTaskFailures, coder.ExitCode())
	require.Contains(t, err.Error(), "boom")
}

func TestNewExitErrorNilIsNil(t *testing.T) {
	require.Nil(t, newExitError(ExitSuccess, nil))
}
