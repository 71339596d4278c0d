// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command janatest exercises the engine end to end with a synthetic
// source, factory, and sink, grounded on original_source's JTest
// plugin (JEventSource_jana_test / JFactoryGenerator_jana_test /
// JEventProcessor_jana_test wired together by JTestMain).
package main

import (
	"fmt"
	"os"
	"sync/atomic"

	"code.hybscloud.com/jana"
)

// dummySource generates a fixed number of synthetic events, standing
// in for JEventSource_jana_test's "dummy" source.
type dummySource struct {
	remaining uint64
	processed atomic.Uint64
}

func (s *dummySource) Name() string { return "janatest" }

func (s *dummySource) GetEvent(ev *jana.Event) error {
	if s.remaining == 0 {
		return jana.ErrSourceExhausted
	}
	s.remaining--
	ev.EventNr = s.processed.Add(1)
	ev.RunNr = 1
	return nil
}

func (s *dummySource) NumEventsProcessed() uint64 { return s.processed.Load() }

// trackCount is the data product janatest's factory computes.
type trackCount struct{ N int }

type trackCountFactory struct{}

func (trackCountFactory) Init() error                { return nil }
func (trackCountFactory) ChangeRun(runNr int32) error { return nil }
func (f trackCountFactory) Process(ev *jana.Event) ([]trackCount, error) {
	return []trackCount{{N: int(ev.EventNr % 7)}}, nil
}

// countingProcessor sums every trackCount.N it observes, standing in
// for JEventProcessor_jana_test's histogram fill.
type countingProcessor struct {
	total atomic.Int64
}

func (p *countingProcessor) Name() string       { return "janatest-processor" }
func (p *countingProcessor) Sequential() bool   { return true }
func (p *countingProcessor) Process(ev *jana.Event) error {
	counts, err := jana.Get[trackCount](ev, "")
	if err != nil {
		return err
	}
	for _, c := range counts {
		p.total.Add(int64(c.N))
	}
	return nil
}

func main() {
	const nEvents = 10_000
	const locations = 4

	pool := jana.NewPool[jana.Event](4096, locations, false)
	topo := jana.NewTopology(pool, locations)

	src := &dummySource{remaining: nEvents}
	sourceToMap := jana.BuildMailbox[*jana.Event](jana.MailboxOptions{Capacity: 1024, Locations: locations, ProducerSequential: true})
	mapToSink := jana.BuildMailbox[*jana.Event](jana.MailboxOptions{Capacity: 1024, Locations: locations})

	template := jana.NewFactorySet()
	template.Register(jana.NewTypedFactory[trackCount]("", false, false, trackCountFactory{}))
	factories := jana.NewFactorySetPool(template, 4096, locations)

	sourceArrow := jana.NewSourceArrow("source", src, sourceToMap, pool, factories)
	mapArrow := jana.NewMapArrow("map", sourceToMap, mapToSink, jana.TriggerGet[trackCount](""))

	processor := &countingProcessor{}
	sinkArrow := jana.NewSinkArrow("sink", mapToSink, pool, jana.NewLockService(), processor)

	topo.AddArrow(sourceArrow)
	topo.AddArrow(mapArrow)
	topo.AddArrow(sinkArrow)

	app := jana.NewApplication(topo, jana.NewParameterManager(), nil)
	if err := app.Initialize(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	app.Run()
	app.Join()
	app.PrintFinalReport()

	fmt.Printf("janatest: checksum=%d\n", processor.total.Load())
	os.Exit(app.GetExitCode())
}
