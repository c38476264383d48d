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

package runctx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCancel(t *testing.T) {
	c := New(context.Background(), "/tmp", 2, false, nil)
	require.False(t, c.Cancelled())
	c.Cancel()
	require.True(t, c.Cancelled())
	require.True(t, c.Checkpoint() == false)
}

func TestPauseResume(t *testing.T) {
	c := New(context.Background(), "/tmp", 2, false, nil)
	c.Pause()

	done := make(chan struct{})
	go func() {
		c.WaitIfPaused()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("should still be blocked while paused")
	case <-time.After(50 * time.Millisecond):
	}

	c.Resume()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("did not unblock after resume")
	}
}

func TestPauseThenCancelUnblocks(t *testing.T) {
	c := New(context.Background(), "/tmp", 2, false, nil)
	c.Pause()

	done := make(chan struct{})
	go func() {
		c.WaitIfPaused()
		close(done)
	}()

	c.Cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cancel should unblock a paused wait")
	}
}
