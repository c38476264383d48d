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
	"github.com/gizak/termui"
	"github.com/gravitational/trace"

	"github.com/nodestack/nodestack/lib/events"
)

// runTUI renders a live gauge per host, updated as task progress events
// arrive, until the run completes or the operator presses q.
func runTUI(bus *events.Bus, hostNames []string) error {
	if err := termui.Init(); err != nil {
		return trace.Wrap(err)
	}
	defer termui.Close()

	gauges := make(map[string]*termui.Gauge, len(hostNames))
	for i, host := range hostNames {
		gauge := termui.NewGauge()
		gauge.BorderLabel = host
		gauge.Height = 3
		gauge.Width = 60
		gauge.X = 0
		gauge.Y = i * 3
		gauges[host] = gauge
	}

	render := func() {
		widgets := make([]termui.Bufferer, 0, len(gauges))
		for _, host := range hostNames {
			widgets = append(widgets, gauges[host])
		}
		termui.Clear()
		termui.Render(widgets...)
	}
	render()

	sub := bus.Subscribe("tui", 256)
	defer bus.Unsubscribe(sub.Name())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range sub.Events() {
			switch e.Type {
			case events.TaskProgress:
				if g, ok := gauges[e.Host]; ok {
					if pct, ok := e.Fields["progress"].(int); ok {
						g.Percent = pct
						g.BarColor = gaugeColor(pct)
					}
				}
			case events.TaskComplete:
				if g, ok := gauges[e.Host]; ok {
					g.Percent = 100
					g.BarColor = gaugeColor(100)
				}
			case events.HostComplete:
				if g, ok := gauges[e.Host]; ok {
					g.BorderLabel = e.Host + " (done)"
				}
			}
			render()
		}
	}()

	termui.Handle("/sys/kbd/q", func(termui.Event) {
		termui.StopLoop()
	})
	go func() {
		<-done
		termui.StopLoop()
	}()
	termui.Loop()

	return nil
}

func gaugeColor(pct int) termui.Attribute {
	switch {
	case pct >= 100:
		return termui.ColorGreen
	case pct >= 50:
		return termui.ColorYellow
	default:
		return termui.ColorRed
	}
}
