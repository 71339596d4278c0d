// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jana

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatRateThresholds(t *testing.T) {
	require.Equal(t, "2.0 G", formatRate(2.0e9))
	require.Equal(t, "2.0 M", formatRate(2.0e6))
	require.Equal(t, "2.0 k", formatRate(2.0e3))
	require.Equal(t, "5.0 ", formatRate(5.0))
	require.Equal(t, "0.0 ", formatRate(1.0e-8), "below the 1e-7 floor original_source prints no unit and no scaling")

	// The u/m branches divide (rather than multiply) by their unit's
	// power of ten, an apparent-bug quirk original_source's
	// Val2StringWithPrefix exhibits and this module preserves exactly
	// rather than "fixing": the displayed magnitude does not track the
	// input's order of magnitude the way G/M/k do.
	require.Contains(t, formatRate(5.0e-5), "u")
	require.Contains(t, formatRate(5.0e-2), "m")
}

func TestFinalReportPrintIncludesEveryActiveSource(t *testing.T) {
	r := &FinalReport{
		Sources: []SourceReport{
			{Name: "src1", NumEvents: 100, Active: false},
			{Name: "src2", NumEvents: 50, Active: true},
		},
		TotalEvents: 150,
	}
	var buf bytes.Buffer
	r.Print(&buf)
	out := buf.String()
	require.Contains(t, out, "src1")
	require.Contains(t, out, "src2*")
	require.Contains(t, out, "150")
}
