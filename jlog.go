// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jana

import (
	"log/slog"
	"os"

	"github.com/joeycumines/logiface"
	jslog "github.com/joeycumines/logiface-slog"
)

// Log is the Application-wide structured logger. Concurrency-sensitive
// code (Mailbox, Pool, arrow Execute) never logs on the hot path; only
// Application reaches for it. The Scheduler does not log, and the final
// report is printed directly rather than through Log.
type Log = logiface.Logger[*jslog.Event]

// NewLog builds a Log writing newline-delimited JSON to w at the given
// minimum level.
func NewLog(w *os.File, level logiface.Level) *Log {
	handler := slog.NewJSONHandler(w, nil)
	return logiface.New[*jslog.Event](jslog.NewLogger(handler, jslog.WithLevel(level)))
}

// DefaultLog returns a Log writing to stderr at informational level,
// the fallback used when an Application is not given one explicitly.
func DefaultLog() *Log {
	return NewLog(os.Stderr, logiface.LevelInformational)
}
