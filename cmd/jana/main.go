// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command jana is the generic JANA launcher: it loads plugins, applies
// -Pkey=value parameter overrides, and runs the resulting topology
// until every source is exhausted or the user interrupts it.
//
// Grounded on original_source's hello.cc/JApplication command-line
// handling: -Pkey=value sets a parameter, positional arguments ending
// in ".so" are plugin names, and every other positional argument is an
// event source.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"code.hybscloud.com/jana"
)

func main() {
	var pluginPath string
	var nThreads string
	var extendedReport bool

	pflag.StringVar(&pluginPath, "pluginpath", "", "colon-separated plugin directories, searched after JANA_PLUGIN_PATH and the default path")
	pflag.StringVar(&nThreads, "nthreads", "Ncores", "worker thread count, or Ncores")
	pflag.BoolVar(&extendedReport, "extended-report", false, "print extended statistics in the final report")
	// -Pkey=value arguments are split off before pflag sees them, since
	// pflag would reject -P as an unknown shorthand flag.
	var paramArgs, flagArgs []string
	for _, arg := range os.Args[1:] {
		if strings.HasPrefix(arg, "-P") {
			paramArgs = append(paramArgs, arg)
		} else {
			flagArgs = append(flagArgs, arg)
		}
	}
	_ = pflag.CommandLine.Parse(flagArgs)

	pm := jana.NewParameterManager()
	jana.Register(pm, "NTHREADS", nThreads)
	jana.Register(pm, "JANA:EXTENDED_REPORT", extendedReport)

	var plugins, sources []string
	for _, arg := range append(paramArgs, pflag.Args()...) {
		switch {
		case strings.HasPrefix(arg, "-P"):
			if err := applyParamOverride(pm, arg); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
		case strings.HasPrefix(arg, "-"):
			// unrecognised flag-like argument, ignored like original_source does
		default:
			if strings.HasSuffix(arg, ".so") {
				plugins = append(plugins, arg)
			} else {
				sources = append(sources, arg)
			}
		}
	}
	if len(sources) > 0 {
		jana.Register(pm, "EVENT_SOURCES", strings.Join(sources, ","))
	}

	pool := jana.NewPool[jana.Event](4096, 1, false)
	topo := jana.NewTopology(pool, 1)
	app := jana.NewApplication(topo, pm, nil)

	loader := jana.NewPluginLoader(nil)
	if pluginPath != "" {
		for _, p := range strings.Split(pluginPath, ":") {
			loader.AddPath(p)
		}
	}
	if err := loader.AttachAll(app, plugins...); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := app.Initialize(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	app.Run()
	app.Join()
	app.PrintFinalReport()
	os.Exit(app.GetExitCode())
}

// applyParamOverride parses a -Pkey=value argument per
// original_source's JApplication constructor.
func applyParamOverride(pm *jana.ParameterManager, arg string) error {
	body := arg[2:]
	pos := strings.Index(body, "=")
	if pos <= 0 {
		return fmt.Errorf("jana: bad parameter argument %q, should be of form -Pkey=value", arg)
	}
	pm.Set(body[:pos], body[pos+1:])
	return nil
}
