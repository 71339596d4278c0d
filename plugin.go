// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jana

import (
	"fmt"
	"os"
	"path/filepath"
	"plugin"
	"strings"

	"github.com/spf13/afero"
)

// InitPluginSymbol names the function every plugin shared object must export,
// grounded on original_source's AttachPlugin looking up a global
// "InitPlugin" C routine of signature void(JApplication*).
const InitPluginSymbol = "InitPlugin"

// InitPluginFunc is the Go-native equivalent signature: it receives
// the live Application so a plugin can register arrows, factories and
// services before Initialize runs.
type InitPluginFunc func(app *Application) error

// PluginLoader searches a colon-separated set of directories for
// ".so" plugins and attaches them to an Application, mirroring
// original_source's JANA_PLUGIN_PATH / AddPluginPath / AttachPlugins.
type PluginLoader struct {
	fs    afero.Fs
	paths []string
	Print bool
}

// NewPluginLoader builds a loader searching fs (os filesystem if nil)
// in this order: the directories in JANA_PLUGIN_PATH, the process's
// current directory, $JANA_HOME/plugins (if JANA_HOME is set), and then
// the given paths, matching the default search path original_source
// installs before any explicit AddPluginPath call.
func NewPluginLoader(fs afero.Fs, paths ...string) *PluginLoader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	pl := &PluginLoader{fs: fs}
	if envPath := os.Getenv("JANA_PLUGIN_PATH"); envPath != "" {
		pl.paths = append(pl.paths, strings.Split(envPath, ":")...)
	}
	pl.paths = append(pl.paths, ".")
	if home := os.Getenv("JANA_HOME"); home != "" {
		pl.paths = append(pl.paths, filepath.Join(home, "plugins"))
	}
	pl.paths = append(pl.paths, paths...)
	return pl
}

// AddPath appends a directory to the search list.
func (pl *PluginLoader) AddPath(path string) {
	pl.paths = append(pl.paths, path)
}

// Attach resolves name (appending ".so" if missing) against every
// search path in order, opens the first match with plugin.Open, looks
// up InitPluginSymbol, and calls it with app. Returns ErrPluginLoad if
// no search path contains the named file.
func (pl *PluginLoader) Attach(app *Application, name string) error {
	if !strings.HasSuffix(name, ".so") {
		name += ".so"
	}
	for _, dir := range pl.paths {
		full := filepath.Join(dir, name)
		if pl.Print {
			app.logf("jana: checking for plugin at %s", full)
		}
		exists, err := afero.Exists(pl.fs, full)
		if err != nil || !exists {
			continue
		}
		return pl.attachFile(app, full)
	}
	return fmt.Errorf("%w: plugin %q not found on search path %v", ErrPluginLoad, name, pl.paths)
}

func (pl *PluginLoader) attachFile(app *Application, full string) error {
	p, err := plugin.Open(full)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", ErrPluginLoad, full, err)
	}
	sym, err := p.Lookup(InitPluginSymbol)
	if err != nil {
		return fmt.Errorf("%w: %s exports no %s symbol: %v", ErrPluginLoad, full, InitPluginSymbol, err)
	}
	// Lookup yields the plugin's func value with its unnamed type, which
	// a type assertion to the named InitPluginFunc would never match.
	init, ok := sym.(func(*Application) error)
	if !ok {
		return fmt.Errorf("%w: %s's %s has the wrong signature", ErrPluginLoad, full, InitPluginSymbol)
	}
	return init(app)
}

// AttachAll attaches every name in names, in order, stopping at the
// first error.
func (pl *PluginLoader) AttachAll(app *Application, names ...string) error {
	for _, name := range names {
		if err := pl.Attach(app, name); err != nil {
			return err
		}
	}
	return nil
}
