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
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/gravitational/trace"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/nodestack/nodestack/lib/defaults"
)

// fieldsLogger wraps a rotating lumberjack file in a logrus logger, so every
// sink gets the same structured-logging behavior (level, timestamps,
// rotation) the rest of this tool uses.
func fieldsLogger(out *lumberjack.Logger) logrus.FieldLogger {
	log := logrus.New()
	log.Out = out
	log.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	return log
}

func logLevel(l Level) logrus.Level {
	switch l {
	case Debug:
		return logrus.DebugLevel
	case Warn:
		return logrus.WarnLevel
	case Error:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

func logEvent(log logrus.FieldLogger, e Event) {
	entry := log.WithFields(logrus.Fields{
		"type": string(e.Type),
		"host": e.Host,
		"task": e.Task,
	})
	for k, v := range e.Fields {
		entry = entry.WithField(k, v)
	}
	entry.Log(logLevel(e.Level), string(e.Type))
}

// MainSink drains the bus into a single rotated log file capturing every
// event for the whole run, at data_dir/log/deploy.log.
type MainSink struct {
	sub    *Subscription
	logger logrus.FieldLogger
	done   chan struct{}
}

// NewMainSink creates the main rotated-log sink and starts draining bus
func NewMainSink(bus *Bus, dataDir string) (*MainSink, error) {
	dir := filepath.Join(dataDir, "log")
	if err := os.MkdirAll(dir, defaults.SharedDirMask); err != nil {
		return nil, trace.ConvertSystemError(err)
	}
	out := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "deploy.log"),
		MaxSize:    defaults.LogMaxSizeMB,
		MaxBackups: defaults.LogMaxBackups,
		MaxAge:     defaults.LogMaxAgeDays,
	}
	sink := &MainSink{
		sub:    bus.Subscribe("sink:main", defaults.EventQueueSize),
		logger: fieldsLogger(out),
		done:   make(chan struct{}),
	}
	go sink.drain()
	return sink, nil
}

func (s *MainSink) drain() {
	defer close(s.done)
	for e := range s.sub.Events() {
		logEvent(s.logger, e)
	}
}

// Close unsubscribes the sink and waits for it to finish draining
func (s *MainSink) Close(bus *Bus) {
	bus.Unsubscribe(s.sub.Name())
	<-s.done
}

// HostSinks fans per-host events into data_dir/log/<host>.log files,
// creating a new rotated logger for each host name seen.
type HostSinks struct {
	mu      sync.Mutex
	dataDir string
	loggers map[string]logrus.FieldLogger
	sub     *Subscription
	done    chan struct{}
}

// NewHostSinks creates the per-host log sink and starts draining bus
func NewHostSinks(bus *Bus, dataDir string) *HostSinks {
	sinks := &HostSinks{
		dataDir: dataDir,
		loggers: make(map[string]logrus.FieldLogger),
		sub:     bus.Subscribe("sink:per-host", defaults.EventQueueSize),
		done:    make(chan struct{}),
	}
	go sinks.drain()
	return sinks
}

func (s *HostSinks) drain() {
	defer close(s.done)
	for e := range s.sub.Events() {
		if e.Host == "" {
			continue
		}
		logEvent(s.loggerFor(e.Host), e)
	}
}

func (s *HostSinks) loggerFor(host string) logrus.FieldLogger {
	s.mu.Lock()
	defer s.mu.Unlock()
	if log, ok := s.loggers[host]; ok {
		return log
	}
	dir := filepath.Join(s.dataDir, "log")
	os.MkdirAll(dir, defaults.SharedDirMask)
	out := &lumberjack.Logger{
		Filename:   filepath.Join(dir, host+".log"),
		MaxSize:    defaults.LogMaxSizeMB,
		MaxBackups: defaults.LogMaxBackups,
		MaxAge:     defaults.LogMaxAgeDays,
	}
	log := fieldsLogger(out)
	s.loggers[host] = log
	return log
}

// Close unsubscribes the sink and waits for it to finish draining
func (s *HostSinks) Close(bus *Bus) {
	bus.Unsubscribe(s.sub.Name())
	<-s.done
}

// RunSink writes every event for a single run as raw, unrotated JSON Lines
// under data_dir/run/<run-id>/<host>/events.jsonl, matching the persisted
// per-run state layout.
type RunSink struct {
	mu     sync.Mutex
	runDir string
	files  map[string]*os.File
	sub    *Subscription
	done   chan struct{}
}

// NewRunSink creates the per-run JSONL sink rooted at runDir and starts
// draining bus
func NewRunSink(bus *Bus, runDir string) *RunSink {
	sink := &RunSink{
		runDir: runDir,
		files:  make(map[string]*os.File),
		sub:    bus.Subscribe("sink:run", defaults.EventQueueSize),
		done:   make(chan struct{}),
	}
	go sink.drain()
	return sink
}

func (s *RunSink) drain() {
	defer close(s.done)
	for e := range s.sub.Events() {
		host := e.Host
		if host == "" {
			host = "_run"
		}
		f, err := s.fileFor(host)
		if err != nil {
			continue
		}
		data, err := json.Marshal(e)
		if err != nil {
			continue
		}
		f.Write(data)
		f.Write([]byte("\n"))
	}
}

func (s *RunSink) fileFor(host string) (*os.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.files[host]; ok {
		return f, nil
	}
	dir := filepath.Join(s.runDir, host)
	if err := os.MkdirAll(dir, defaults.SharedDirMask); err != nil {
		return nil, trace.ConvertSystemError(err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "events.jsonl"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, defaults.SharedReadMask)
	if err != nil {
		return nil, trace.ConvertSystemError(err)
	}
	s.files[host] = f
	return f, nil
}

// Close unsubscribes the sink, waits for it to finish draining, and closes
// every open file
func (s *RunSink) Close(bus *Bus) {
	bus.Unsubscribe(s.sub.Name())
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.files {
		f.Close()
	}
}
