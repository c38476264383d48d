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

package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRedactByFieldName(t *testing.T) {
	r := NewRedactor()
	e := Event{Fields: map[string]interface{}{
		"owner_password": "hunter2",
		"ssh_key":        "-----BEGIN-----",
		"host":           "h1",
	}}
	out := r.Redact(e)
	require.Equal(t, redactedValue, out.Fields["owner_password"])
	require.Equal(t, redactedValue, out.Fields["ssh_key"])
	require.Equal(t, "h1", out.Fields["host"])
}

func TestRedactLiteralSecretInText(t *testing.T) {
	r := NewRedactor()
	r.AddSecret("hunter2")
	e := Event{Fields: map[string]interface{}{
		"message": "login failed for password hunter2",
	}}
	out := r.Redact(e)
	require.Equal(t, "login failed for password ***", out.Fields["message"])
}

func TestBusFanOut(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	sub1 := bus.Subscribe("ui", 4)
	sub2 := bus.Subscribe("log", 4)

	bus.Publish(New(TaskStart, "h1", "java", nil))

	select {
	case e := <-sub1.Events():
		require.Equal(t, TaskStart, e.Type)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for sub1")
	}
	select {
	case e := <-sub2.Events():
		require.Equal(t, TaskStart, e.Type)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for sub2")
	}
}

func TestBusOverflowDropsOldest(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	sub := bus.Subscribe("slow", 2)
	for i := 0; i < 5; i++ {
		bus.Publish(New(TaskProgress, "h1", "java", map[string]interface{}{"i": i}))
	}
	require.True(t, sub.Dropped() > 0)
}

func TestBusUnsubscribeClosesQueue(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe("tmp", 1)
	bus.Unsubscribe("tmp")
	_, ok := <-sub.Events()
	require.False(t, ok)
}

func TestDiscardPublisherIsNoop(t *testing.T) {
	require.NotPanics(t, func() {
		DiscardPublisher.Publish(New(RunStart, "", "", nil))
	})
}
