// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package jana_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"code.hybscloud.com/jana"
)

type poolItem struct {
	resetCount int
	Value      int
}

func (p *poolItem) Reset() { p.resetCount++; p.Value = 0 }

func TestPoolGetPutRecycles(t *testing.T) {
	p := jana.NewPool[poolItem](2, 1, false)

	a := p.Get(0)
	require.NotNil(t, a)
	a.Value = 42
	require.Equal(t, 1, p.Size())

	p.Put(a, 0)
	require.Equal(t, 0, p.Size())
	require.Equal(t, 2, a.resetCount, "Get resets a freshly allocated item, and Put must Reset again before recycling")

	b := p.Get(0)
	require.Same(t, a, b, "Get should recycle the freed item rather than allocate")
	require.Equal(t, 0, b.Value)
}

func TestPoolEnforcesMaxInflight(t *testing.T) {
	p := jana.NewPool[poolItem](2, 1, false)

	a := p.Get(0)
	b := p.Get(0)
	require.NotNil(t, a)
	require.NotNil(t, b)

	require.Nil(t, p.Get(0), "Get beyond maxInflight must return nil as backpressure, not allocate")

	p.Put(a, 0)
	require.NotNil(t, p.Get(0), "a slot freed by Put should become available again")
}

func TestPoolCompactVariant(t *testing.T) {
	p := jana.NewPool[poolItem](4, 2, true)
	var borrowed []*poolItem
	for i := 0; i < 4; i++ {
		item := p.Get(i % 2)
		require.NotNil(t, item)
		borrowed = append(borrowed, item)
	}
	for i, item := range borrowed {
		p.Put(item, i%2)
	}
	require.Equal(t, 0, p.Size())
}

func TestEventResetSetsChildTotalSentinel(t *testing.T) {
	p := jana.NewPool[jana.Event](4, 1, false)
	ev := p.Get(0)
	require.NotNil(t, ev)
	require.Equal(t, int64(-1), ev.ChildTotal, "a fresh Event must start with ChildTotal == -1")

	ev.ChildTotal = 3
	ev.ChildPending = 3
	p.Put(ev, 0)

	ev2 := p.Get(0)
	require.Same(t, ev, ev2)
	require.Equal(t, int64(-1), ev2.ChildTotal, "Reset on Put must restore the sentinel")
	require.Equal(t, int64(0), ev2.ChildPending)
}
