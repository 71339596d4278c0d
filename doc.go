// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package jana provides a multi-threaded event-processing framework for
// streaming, reconstruction and analysis workloads.
//
// A jana program wires together a small number of building blocks:
//
//   - Arrow: one stage of a processing pipeline (Source, Map, Unfold,
//     Fold, or Sink)
//   - Event: the unit of work flowing between arrows, carrying a run
//     number, event number and a lazily-evaluated set of Factories
//     - Factory: a cached, per-event computation, evaluated at most once
//     - Topology: the fixed graph of arrows, built once at startup
//   - Scheduler + ThreadManager: the worker pool that drives the
//     topology to completion
//
// # Quick Start
//
//	pool := jana.NewPool[jana.Event](4096, locations, false)
//	topo := jana.NewTopology(pool, locations)
//
//	src := jana.NewSourceArrow("src", mySource, out, pool, factories)
//	sink := jana.NewSinkArrow("sink", in, pool, nil, myProcessor{})
//	topo.AddArrow(src)
//	topo.AddArrow(sink)
//
//	app := jana.NewApplication(topo, jana.NewParameterManager(), nil)
//	jana.Register(app.Params, "NTHREADS", "Ncores")
//	if err := app.Initialize(); err != nil {
//	    log.Fatal(err)
//	}
//	app.Run()
//	app.Join()
//	app.PrintFinalReport()
//
// # Arrows
//
// Every arrow reserves output space, pops (or allocates) an item,
// hands it to its Body, and on success pushes the result downstream:
//
//	type Body interface {
//	    process(ev *Event, loc int) (ArrowStatus, error)
//	}
//
// The method is unexported, so only this package's arrow kinds
// implement Body; user code plugs in through a Source, factories
// ([Processor]), sink [EventProcessor]s, an [Unfolder] and a [Folder].
//
// Source and Sink sit at the edges of the topology; Map is the
// ordinary 1-in-1-out stage; Unfold expands one parent event into many
// children, and Fold collects children back into their parent once
// every child has been processed. See [PipelineArrow], [UnfoldArrow]
// and [FoldArrow].
//
// # Factories
//
// A Factory computes one named, typed data product for an Event on
// first request and caches the result for the remainder of the
// event's lifetime:
//
//	counts, err := jana.Get[TrackCount](ev, "")
//
// Factories may be Persistent (cleared only on run change, not per
// event) and may claim ObjectOwner semantics, under which the factory
// drops its results when its factory set is cleared. A factory that calls back into itself through
// Event.Get during its own Process is a configuration error, reported
// as [ErrFactoryCycle] rather than deadlocking.
//
// # Mailboxes and Pools
//
// Every arrow-to-arrow edge is a [Mailbox], a bounded FIFO whose
// algorithm is chosen from the lock-free SPSC/SPMC/MPSC/MPMC family by
// the producer/consumer sequential flags of its [MailboxOptions]. Every
// Source and Unfold draws fresh events from a shared [Pool], and every
// Sink and Fold returns them once finished, so steady-state operation
// allocates nothing on the hot path.
//
// # Parameters
//
// [ParameterManager] is a typed, string-keyed configuration table.
// Register a parameter with its default before Initialize; after
// Initialize, the table is frozen and writes panic. Reads take a shared
// read lock and are not lock-free:
//
//	nthreads := jana.Register(pm, "NTHREADS", "Ncores")
//
// # Plugins
//
// User code is packaged as a Go plugin exporting an InitPlugin(app
// *Application) error symbol, matching the C++ implementation's
// AttachPlugin convention. [PluginLoader] resolves plugin names
// against JANA_PLUGIN_PATH, the current directory, and
// $JANA_HOME/plugins, in that order.
//
// # Signals and Shutdown
//
// SIGINT requests a graceful stop; repeated SIGINT escalates, and a
// sixth delivery forces an immediate exit. SIGUSR1 dumps current
// status; SIGUSR2 dumps a goroutine backtrace. See [Application.Quit]
// and [Application.Run].
package jana
