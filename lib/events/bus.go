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
	"sync"
	"sync/atomic"
	"time"

	"github.com/nodestack/nodestack/lib/defaults"
)

// publishWait bounds how long Publish waits for a subscriber's queue to
// drain before falling back to the overflow policy; publishers never block
// indefinitely on a slow or dead subscriber.
const publishWait = 10 * time.Millisecond

// Subscription is a live registration on the Bus. Callers drain Events()
// until Close() is called or the bus is closed.
type Subscription struct {
	name    string
	queue   chan Event
	dropped uint64
}

// Events returns the channel of events destined for this subscriber
func (s *Subscription) Events() <-chan Event {
	return s.queue
}

// Name returns the subscriber's registered name
func (s *Subscription) Name() string {
	return s.name
}

// Dropped returns the number of events dropped for this subscriber so far
// due to queue overflow
func (s *Subscription) Dropped() uint64 {
	return atomic.LoadUint64(&s.dropped)
}

func (s *Subscription) offer(e Event) {
	select {
	case s.queue <- e:
		return
	default:
	}
	timer := time.NewTimer(publishWait)
	select {
	case s.queue <- e:
		timer.Stop()
		return
	case <-timer.C:
	}
	// Queue is still full: drop the oldest entry to make room, count it in
	// Dropped(), and enqueue the new event. No Overflow marker is placed in
	// the queue; the dropped count is visible only through Dropped().
	select {
	case <-s.queue:
	default:
	}
	atomic.AddUint64(&s.dropped, 1)
	select {
	case s.queue <- e:
	default:
	}
}

// Bus is a single-producer-per-worker, multi-consumer fan-out. Each
// subscriber owns a bounded queue; Publish never blocks indefinitely on a
// slow consumer.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscription
	redactor    *Redactor
}

// NewBus returns an empty, ready-to-use event bus
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[string]*Subscription),
		redactor:    NewRedactor(),
	}
}

// AddSecret registers a literal credential value to redact from message text
func (b *Bus) AddSecret(value string) {
	b.redactor.AddSecret(value)
}

// Subscribe registers a new subscriber with the given name and bounded queue
// size (defaults.EventQueueSize when size <= 0) and returns its Subscription.
func (b *Bus) Subscribe(name string, size int) *Subscription {
	if size <= 0 {
		size = defaults.EventQueueSize
	}
	sub := &Subscription{name: name, queue: make(chan Event, size)}
	b.mu.Lock()
	b.subscribers[name] = sub
	b.mu.Unlock()
	return sub
}

// Unsubscribe deregisters the named subscriber and closes its queue
func (b *Bus) Unsubscribe(name string) {
	b.mu.Lock()
	sub, ok := b.subscribers[name]
	if ok {
		delete(b.subscribers, name)
	}
	b.mu.Unlock()
	if ok {
		close(sub.queue)
	}
}

// Publish fans the event out to every current subscriber. Sensitive fields
// are redacted before delivery. Never blocks indefinitely.
func (b *Bus) Publish(e Event) {
	e = b.redactor.Redact(e)
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subscribers {
		sub.offer(e)
	}
}

// Close unsubscribes and closes every remaining subscriber's queue
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for name, sub := range b.subscribers {
		delete(b.subscribers, name)
		close(sub.queue)
	}
}
