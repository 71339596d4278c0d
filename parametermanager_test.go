// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jana_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"code.hybscloud.com/jana"
)

func TestParameterManagerRegisterReturnsDefaultUntilSet(t *testing.T) {
	pm := jana.NewParameterManager()
	require.Equal(t, 4, jana.Register(pm, "NTHREADS", 4))

	pm2 := jana.NewParameterManager()
	pm2.Set("NTHREADS", "8")
	require.Equal(t, 8, jana.Register(pm2, "NTHREADS", 4))
}

func TestParameterManagerBoolParsing(t *testing.T) {
	cases := map[string]bool{
		"0": false, "1": true,
		"true": true, "false": false,
		"TRUE": true, "FALSE": false,
		"on": true, "off": false,
		"On": true, "Off": false,
	}
	for raw, want := range cases {
		pm := jana.NewParameterManager()
		pm.Set("FLAG", raw)
		var out bool
		require.NoError(t, jana.GetParam(pm, "FLAG", &out), "raw=%q", raw)
		require.Equal(t, want, out, "raw=%q", raw)
	}
}

func TestParameterManagerBadBoolIsConfigError(t *testing.T) {
	pm := jana.NewParameterManager()
	pm.Set("FLAG", "maybe")
	var out bool
	err := jana.GetParam(pm, "FLAG", &out)
	require.Error(t, err)
	require.ErrorIs(t, err, jana.ErrConfigError)
}

func TestParameterManagerFloatStringifyAppendsDotZero(t *testing.T) {
	require.Equal(t, "0.0", jana.Stringify(0.0))
	require.Equal(t, "1.0", jana.Stringify(1.0))
	require.Equal(t, "0.00000001", jana.Stringify(0.00000001))
	require.Equal(t, "3.14", jana.Stringify(3.14))
}

func TestParameterManagerFreezeForbidsWrites(t *testing.T) {
	pm := jana.NewParameterManager()
	pm.Set("A", "1")
	pm.Freeze()
	require.Panics(t, func() { pm.Set("A", "2") })
	require.Panics(t, func() { jana.Register(pm, "B", 1) })
}

func TestParameterManagerSequencePreservesInnerWhitespace(t *testing.T) {
	pm := jana.NewParameterManager()
	pm.Set("LIST", " a, b ,c  ")
	var raw string
	require.NoError(t, jana.GetParam(pm, "LIST", &raw))
	out, err := jana.ParseSlice[string](raw)
	require.NoError(t, err)
	require.Equal(t, []string{" a", " b ", "c  "}, out)
}
