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
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gravitational/trace"
	"github.com/pborman/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/nodestack/nodestack/lib/checks"
	"github.com/nodestack/nodestack/lib/config"
	"github.com/nodestack/nodestack/lib/events"
	"github.com/nodestack/nodestack/lib/executor"
	"github.com/nodestack/nodestack/lib/runctx"
	"github.com/nodestack/nodestack/lib/scheduler"
	"github.com/nodestack/nodestack/lib/utils"
	"github.com/nodestack/nodestack/tool/common"
)

// runCommand implements `nodestack run`
type runCommand struct {
	cmd        *kingpin.CmdClause
	configPath string
	dryRun     bool
	nodes      []string
	software   []string
	tui        bool
	yes        bool
}

func newRunCommand(app *kingpin.Application) *runCommand {
	r := &runCommand{}
	r.cmd = app.Command("run", "Provision configured software across all configured hosts.")
	r.cmd.Flag("config", "Path to the configuration document.").
		Short('c').Default(defaultConfigFlag).StringVar(&r.configPath)
	r.cmd.Flag("dry-run", "Plan and connect to every host without invoking any installer.").
		BoolVar(&r.dryRun)
	r.cmd.Flag("node", "Restrict the run to the named host; repeatable.").
		StringsVar(&r.nodes)
	r.cmd.Flag("software", "Restrict the run to the named package; repeatable.").
		StringsVar(&r.software)
	r.cmd.Flag("tui", "Render a live terminal dashboard instead of plain output.").
		BoolVar(&r.tui)
	r.cmd.Flag("yes", "Skip the confirmation prompt.").
		Short('y').BoolVar(&r.yes)
	return r
}

func (r *runCommand) run() error {
	cfg, err := config.ReadConfig(r.configPath)
	if err != nil {
		return newExitError(ExitConfigError, err)
	}
	cfg = cfg.FilterNodes(r.nodes).FilterPackages(r.software)
	if len(cfg.Nodes) == 0 {
		return newExitError(ExitConfigError, trace.BadParameter("no nodes matched the selection"))
	}

	r.printPlan(cfg)
	if !r.yes {
		ok, err := common.Confirm(fmt.Sprintf("Proceed with provisioning %v host(s)?", len(cfg.Nodes)))
		if err != nil {
			return trace.Wrap(err)
		}
		if !ok {
			fmt.Println("aborted")
			return nil
		}
	}

	bus := events.NewBus()
	for _, host := range cfg.Nodes {
		registerSecrets(bus, host)
	}

	runID := fmt.Sprintf("%v-%v", time.Now().Format("20060102T150405"), uuid.New())
	runDir := filepath.Join(cfg.General.DataDir, "run", runID)
	mainSink, err := events.NewMainSink(bus, cfg.General.DataDir)
	if err != nil {
		return newExitError(ExitConfigError, err)
	}
	hostSinks := events.NewHostSinks(bus, cfg.General.DataDir)
	runSink := events.NewRunSink(bus, runDir)
	defer mainSink.Close(bus)
	defer hostSinks.Close(bus)
	defer runSink.Close(bus)

	ctx, cancel := context.WithCancel(context.Background())
	rc := runctx.New(ctx, cfg.General.DataDir, cfg.General.MaxConcurrentNodes, r.dryRun, bus)
	utils.WatchTerminationSignals(ctx, cancel, stopperFunc(func(context.Context) error {
		rc.Cancel()
		return nil
	}), logrus.StandardLogger())

	var consoleDone chan struct{}
	if r.tui {
		hostNames := make([]string, len(cfg.Nodes))
		for i, h := range cfg.Nodes {
			hostNames[i] = h.Name
		}
		go runTUI(bus, hostNames)
	} else {
		consoleDone = startConsoleSink(bus)
	}

	engine := scheduler.New(cfg, dialHost)
	runErr := engine.Run(rc)
	bus.Close()
	if !r.tui {
		<-consoleDone
	}

	stats := engine.Catalog.Stats()
	fmt.Printf("\ncompleted=%v failed=%v skipped=%v\n", stats.Completed, stats.Failed, stats.Skipped)

	if rc.Cancelled() {
		return newExitError(ExitCancelled, trace.Errorf("run cancelled"))
	}
	if runErr != nil && stats.Completed == 0 && stats.Failed == 0 {
		return newExitError(ExitAllHostsUnreachable, runErr)
	}
	if stats.Failed > 0 {
		return newExitError(ExitTaskFailures, trace.Errorf("%v task(s) failed", stats.Failed))
	}
	return nil
}

func (r *runCommand) printPlan(cfg *config.Config) {
	common.PrintHeader("Plan")
	for _, host := range cfg.Nodes {
		fmt.Printf("%v (%v): %v package(s)\n", host.Name, host.Addr(), len(host.Install))
		for _, pkg := range host.Install {
			fmt.Printf("  - %v %v\n", pkg.Name, pkg.Version)
		}
	}
}

func registerSecrets(bus *events.Bus, host config.HostSpec) {
	for _, secret := range []string{host.OwnerPass, host.SuperPass} {
		if secret != "" {
			bus.AddSecret(secret)
		}
	}
}

// dialHost connects to host as its owner user and returns a scheduler.HostConn
func dialHost(ctx context.Context, host config.HostSpec) (scheduler.HostConn, error) {
	client, err := executor.Dial(ctx, host, host.Owner())
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return client, nil
}

// startConsoleSink prints a line per event to stdout until the bus is closed
func startConsoleSink(bus *events.Bus) chan struct{} {
	sub := bus.Subscribe("console", 256)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range sub.Events() {
			printEvent(e)
		}
	}()
	return done
}

func printEvent(e events.Event) {
	switch e.Type {
	case events.HostStart:
		fmt.Printf("[%v] connecting\n", e.Host)
	case events.CheckResult:
		if passed, _ := e.Fields["passed"].(bool); !passed {
			fmt.Printf("[%v] check %v: %v\n", e.Host, e.Fields["check"], e.Fields["message"])
		}
	case events.TaskStart:
		fmt.Printf("[%v] installing %v %v\n", e.Host, e.Fields["package"], e.Fields["version"])
	case events.TaskComplete:
		fmt.Printf("[%v] %v completed\n", e.Host, e.Task)
	case events.TaskFailed:
		fmt.Printf("[%v] %v failed: %v\n", e.Host, e.Task, e.Fields["error"])
	case events.TaskSkipped:
		fmt.Printf("[%v] %v skipped: %v\n", e.Host, e.Task, e.Fields["reason"])
	case events.HostComplete:
		fmt.Printf("[%v] done\n", e.Host)
	}
}

type stopperFunc func(context.Context) error

func (f stopperFunc) Stop(ctx context.Context) error {
	return f(ctx)
}

var _ checks.Runner = (*executor.Client)(nil)
