package input

import (
	"slices"
	"sync"
)

// Pool is a Source fed by pushes from other goroutines (a WebSocket bridge,
// a terminal event loop). Pulses accumulate until the next Sample call for that
// device; stick values are levels and persist.
type Pool struct {
	mu      sync.Mutex
	order   []Device
	pending map[Device]Sample
}

func NewPool() *Pool {
	return &Pool{pending: make(map[Device]Sample)}
}

// Connect registers a device. Connecting twice is a no-op.
func (p *Pool) Connect(d Device) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.pending[d]; ok {
		return
	}
	p.pending[d] = Sample{}
	p.order = append(p.order, d)
}

// Disconnect drops a device and anything it had pending.
func (p *Pool) Disconnect(d Device) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.pending[d]; !ok {
		return
	}
	delete(p.pending, d)
	p.order = slices.DeleteFunc(p.order, func(o Device) bool { return o == d })
}

// Push merges s into the device's pending sample. Unknown devices are
// connected implicitly.
func (p *Pool) Push(d Device, s Sample) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cur, ok := p.pending[d]
	if !ok {
		p.order = append(p.order, d)
	}
	if !s.Direction.IsZero() {
		cur.Direction = s.Direction
	}
	cur.StickX = s.StickX
	cur.StickY = s.StickY
	cur.Submit = cur.Submit || s.Submit
	cur.Cancel = cur.Cancel || s.Cancel
	cur.AnyButton = cur.AnyButton || s.AnyButton || s.Submit || s.Cancel
	p.pending[d] = cur
}

func (p *Pool) Connected() []Device {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.order)
}

// Sample returns and clears the device's pulses.
func (p *Pool) Sample(d Device) Sample {
	p.mu.Lock()
	defer p.mu.Unlock()
	cur, ok := p.pending[d]
	if !ok {
		return Sample{}
	}
	p.pending[d] = Sample{StickX: cur.StickX, StickY: cur.StickY}
	return cur
}
