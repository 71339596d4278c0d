// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jana_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"code.hybscloud.com/jana"
)

type fixedCountSource struct {
	remaining atomic.Int64
	processed atomic.Uint64
}

func (s *fixedCountSource) Name() string { return "fixed" }

func (s *fixedCountSource) GetEvent(ev *jana.Event) error {
	if s.remaining.Add(-1) < 0 {
		return jana.ErrSourceExhausted
	}
	ev.EventNr = s.processed.Add(1)
	ev.RunNr = 1
	return nil
}

func (s *fixedCountSource) NumEventsProcessed() uint64 { return s.processed.Load() }

type squareProduct struct{ Sq int }

type squareFactory struct{}

func (squareFactory) Init() error                { return nil }
func (squareFactory) ChangeRun(runNr int32) error { return nil }
func (squareFactory) Process(ev *jana.Event) ([]squareProduct, error) {
	return []squareProduct{{Sq: int(ev.EventNr * ev.EventNr)}}, nil
}

type sumProcessor struct {
	total atomic.Int64
}

func (p *sumProcessor) Name() string     { return "sum" }
func (p *sumProcessor) Sequential() bool { return true }
func (p *sumProcessor) Process(ev *jana.Event) error {
	squares, err := jana.Get[squareProduct](ev, "")
	if err != nil {
		return err
	}
	for _, s := range squares {
		p.total.Add(int64(s.Sq))
	}
	return nil
}

// TestPipelineSourceMapSinkProcessesEveryEvent drives a minimal
// Source -> Map -> Sink topology to completion with a real
// ThreadManager/Scheduler, verifying every event reaches the sink
// exactly once and the sink's sum covers every event number.
func TestPipelineSourceMapSinkProcessesEveryEvent(t *testing.T) {
	if jana.RaceEnabled {
		t.Skip("timing-sensitive worker-pool scenario skipped under -race")
	}

	const nEvents = 500
	const locations = 2

	pool := jana.NewPool[jana.Event](64, locations, false)
	topo := jana.NewTopology(pool, locations)

	src := &fixedCountSource{}
	src.remaining.Store(nEvents)

	sourceToMap := jana.BuildMailbox[*jana.Event](jana.MailboxOptions{
		Capacity: 32, Locations: locations, ProducerSequential: true,
	})
	mapToSink := jana.BuildMailbox[*jana.Event](jana.MailboxOptions{
		Capacity: 32, Locations: locations,
	})

	template := jana.NewFactorySet()
	template.Register(jana.NewTypedFactory[squareProduct]("", false, false, squareFactory{}))
	factories := jana.NewFactorySetPool(template, 64, locations)

	sourceArrow := jana.NewSourceArrow("source", src, sourceToMap, pool, factories)
	mapArrow := jana.NewMapArrow("map", sourceToMap, mapToSink, jana.TriggerGet[squareProduct](""))
	processor := &sumProcessor{}
	sinkArrow := jana.NewSinkArrow("sink", mapToSink, pool, jana.NewLockService(), processor)

	topo.AddArrow(sourceArrow)
	topo.AddArrow(mapArrow)
	topo.AddArrow(sinkArrow)

	require.NoError(t, topo.Initialize())

	sched := jana.NewScheduler(topo, time.Millisecond)
	tm := jana.NewThreadManager(sched, jana.AffinityNone, locations)
	tm.Run(4)

	deadline := time.Now().Add(10 * time.Second)
	for !topo.AllFinished() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	tm.Stop(true)

	require.True(t, topo.AllFinished(), "topology must reach quiescence within the deadline")
	require.NoError(t, topo.FatalError())
	require.Equal(t, uint64(nEvents), sinkArrow.NumEventsProcessed())

	var want int64
	for i := uint64(1); i <= nEvents; i++ {
		want += int64(i * i)
	}
	require.Equal(t, want, processor.total.Load())
}
