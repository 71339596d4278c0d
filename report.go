// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jana

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// SourceReport is one line of the final report's source/queue table:
// a source's name, events processed, and per-mailbox task counts.
type SourceReport struct {
	Name       string
	NumEvents  uint64
	Active     bool // still producing when the report was taken
	MailboxNTasks map[string]uint64
}

// FinalReport aggregates everything printed after worker join, per
// spec.md §6's "Final report" bullet.
type FinalReport struct {
	Sources       []SourceReport
	TotalEvents   uint64
	RunDuration   time.Duration
	ExtendedStats map[string]int
}

// formatRate renders val with the unit prefix original JANA's
// Val2StringWithPrefix uses: G/M/k for large magnitudes, m/u for small
// ones, thresholds at 1.5e9/1.5e6/1.5e3/1e-1/1e-4/1e-7 exactly as
// original_source's JApplication::Val2StringWithPrefix.
func formatRate(val float64) string {
	units := ""
	switch {
	case val > 1.5e9:
		val /= 1.0e9
		units = "G"
	case val > 1.5e6:
		val /= 1.0e6
		units = "M"
	case val > 1.5e3:
		val /= 1.0e3
		units = "k"
	case val < 1.0e-7:
		units = ""
	case val < 1.0e-4:
		val /= 1.0e6
		units = "u"
	case val < 1.0e-1:
		val /= 1.0e3
		units = "m"
	}
	return fmt.Sprintf("%3.1f %s", val, units)
}

// Print writes the final report to w in the same plain tabular style
// original_source's PrintFinalReport uses.
func (r *FinalReport) Print(w io.Writer) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Final Report")
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "%-20s %10s\n", "Source", "Nevents")
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for _, s := range r.Sources {
		name := s.Name
		if s.Active {
			name += "*"
		}
		fmt.Fprintf(w, "%-20s %10d\n", name, s.NumEvents)
		for mbox, tasks := range s.MailboxNTasks {
			fmt.Fprintf(w, "  %-18s %10d\n", mbox, tasks)
		}
	}
	fmt.Fprintln(w)

	rate := 0.0
	if r.RunDuration > 0 {
		rate = float64(r.TotalEvents) / r.RunDuration.Seconds()
	}
	fmt.Fprintf(w, "Total events processed: %d (~%sevt)\n", r.TotalEvents, formatRate(float64(r.TotalEvents)))
	fmt.Fprintf(w, "Integrated Rate: %sHz\n", formatRate(rate))

	if len(r.ExtendedStats) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Extended Report")
		fmt.Fprintln(w, strings.Repeat("-", 60))
		for k, v := range r.ExtendedStats {
			fmt.Fprintf(w, "%30s: %d\n", k, v)
		}
	}
}
