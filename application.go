// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jana

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// Application is the top-level lifecycle controller: Initialize wires
// parameters, topology, scheduler and thread manager; Run starts the
// worker pool and blocks the calling goroutine on its control loop
// (ticker, quit detection); Quit requests graceful shutdown; Join
// blocks until workers have exited.
type Application struct {
	Params   *ParameterManager
	Services *Services
	Topo     *Topology
	Sched    *Scheduler
	Threads  *ThreadManager
	Log      *Log

	signals  *signalHandler
	quit     atomic.Bool
	exitCode atomic.Int32
	started  time.Time
	stopped  atomic.Bool
}

// NewApplication builds an Application over topo. params and log may
// be nil, in which case a fresh ParameterManager and DefaultLog are
// used.
func NewApplication(topo *Topology, params *ParameterManager, log *Log) *Application {
	if params == nil {
		params = NewParameterManager()
	}
	if log == nil {
		log = DefaultLog()
	}
	app := &Application{Params: params, Services: NewServices(), Topo: topo, Log: log}
	app.signals = newSignalHandler(app)
	return app
}

// resolveNThreads parses the NTHREADS parameter: an integer, or the
// literal "Ncores" meaning runtime.NumCPU(), per spec.md §6.
func resolveNThreads(pm *ParameterManager) int {
	raw := Register(pm, "NTHREADS", "Ncores")
	if strings.EqualFold(strings.TrimSpace(raw), "ncores") {
		return runtime.NumCPU()
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return runtime.NumCPU()
	}
	return n
}

// Initialize freezes parameters, builds the scheduler/thread manager
// from NTHREADS/AFFINITY, and runs Topology.Initialize.
func (app *Application) Initialize() error {
	nThreads := resolveNThreads(app.Params)
	affinityCode := Register(app.Params, "AFFINITY", 0)

	var affinity Affinity
	switch affinityCode {
	case 1:
		affinity = AffinitySequential
	case 2:
		affinity = AffinityCoreFill
	default:
		affinity = AffinityNone
	}

	app.Params.Freeze()

	if err := app.Topo.Initialize(); err != nil {
		return err
	}

	app.Sched = NewScheduler(app.Topo, 0)
	app.Threads = NewThreadManager(app.Sched, affinity, app.Topo.Locations)
	app.Threads.nThreads = nThreads
	return nil
}

// Run starts the worker pool and the control loop: a ticker polling
// for a fatal arrow error, graceful quiescence, or an external Quit,
// returning once the run has ended. Blocks the calling goroutine.
func (app *Application) Run() {
	app.started = time.Now()
	app.signals.start()
	app.Threads.Run(app.Threads.nThreads)
	app.Log.Info().Log("jana: run started")

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if app.quit.Load() {
			break
		}
		if err := app.Topo.FatalError(); err != nil {
			app.Log.Err().Str("error", err.Error()).Log("jana: fatal error, aborting run")
			app.exitCode.Store(-1)
			app.quit.Store(true)
			break
		}
		if app.Topo.AllFinished() {
			break
		}
		<-ticker.C
	}
	app.Threads.Stop(true)
	app.signals.stop()
	app.stopped.Store(true)
}

// Quit requests graceful shutdown: workers finish their current
// Execute and the control loop exits on its next tick.
func (app *Application) Quit() {
	app.quit.Store(true)
}

// Join blocks until every worker goroutine has exited.
func (app *Application) Join() {
	app.Threads.Join()
}

// SetExitCode records the process exit code returned by GetExitCode.
func (app *Application) SetExitCode(code int) { app.exitCode.Store(int32(code)) }

// GetExitCode returns zero on clean completion, or whatever
// SetExitCode/an aborted run recorded.
func (app *Application) GetExitCode() int { return int(app.exitCode.Load()) }

// PrintFinalReport assembles and prints the FinalReport to os.Stdout.
func (app *Application) PrintFinalReport() {
	report := app.buildFinalReport()
	report.Print(os.Stdout)
}

func (app *Application) buildFinalReport() *FinalReport {
	report := &FinalReport{RunDuration: time.Since(app.started)}
	for _, a := range app.Topo.Arrows() {
		switch arr := a.(type) {
		case *SourceArrow:
			report.Sources = append(report.Sources, SourceReport{
				Name:      arr.src.Name(),
				NumEvents: arr.src.NumEventsProcessed(),
				Active:    !arr.IsFinished(),
			})
		case *SinkArrow:
			report.TotalEvents += arr.NumEventsProcessed()
		}
	}
	if extended := Register(app.Params, "JANA:EXTENDED_REPORT", false); extended {
		report.ExtendedStats = map[string]int{
			"Num. arrows":         len(app.Topo.Arrows()),
			"Num. config. params": app.Params.Len(),
			"Num. threads":        app.Threads.NumRunning(),
		}
	}
	return report
}

func (app *Application) logStatus() {
	app.Log.Info().Log("jana: status dump requested (SIGUSR1)")
}

func (app *Application) logBacktrace() {
	app.Log.Warning().Str("stack", string(app.signals.recordBacktrace())).Log("jana: backtrace requested (SIGUSR2)")
}

func (app *Application) logf(format string, args ...any) {
	app.Log.Info().Log(fmt.Sprintf(format, args...))
}
