package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_PulsesClearAfterSample(t *testing.T) {
	p := NewPool()
	pad := Remote(1)
	p.Connect(pad)

	p.Push(pad, Sample{Submit: true, StickX: 0.7})
	p.Push(pad, Sample{Direction: Left, StickX: 0.8})

	s := p.Sample(pad)
	assert.True(t, s.Submit)
	assert.True(t, s.AnyButton)
	assert.Equal(t, Left, s.Direction)
	assert.InDelta(t, 0.8, s.StickX, 1e-9)

	s = p.Sample(pad)
	assert.False(t, s.Submit)
	assert.False(t, s.AnyButton)
	assert.True(t, s.Direction.IsZero())
	assert.InDelta(t, 0.8, s.StickX, 1e-9, "stick is a level and persists")
}

func TestPool_ConnectDisconnectOrder(t *testing.T) {
	p := NewPool()
	a, b, c := Remote(1), Remote(2), Keyboard(0)

	p.Connect(a)
	p.Connect(b)
	p.Connect(a)
	p.Push(c, Sample{AnyButton: true})
	require.Equal(t, []Device{a, b, c}, p.Connected())

	p.Disconnect(b)
	require.Equal(t, []Device{a, c}, p.Connected())
	assert.Equal(t, Sample{}, p.Sample(b))
}
