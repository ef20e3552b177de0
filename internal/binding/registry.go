// Package binding maps input devices to player slots.
package binding

import "github.com/DoyleJ11/couch-lobby/internal/input"

// Registry keeps the device->slot and slot->device maps. Every mutation
// updates both together, so each is always the inverse of the other.
type Registry struct {
	slots    []input.Device // slot -> device, zero Device means free
	devices  map[input.Device]int
	fallback input.Device
	closed   bool
}

type Option func(*Registry)

// WithFallback reserves slot 0 for d. Other devices only take slot 0 once
// every other slot is occupied; d takes slot 0 whenever it is free.
func WithFallback(d input.Device) Option {
	return func(r *Registry) { r.fallback = d }
}

func NewRegistry(maxSlots int, opts ...Option) *Registry {
	r := &Registry{
		slots:   make([]input.Device, maxSlots),
		devices: make(map[input.Device]int, maxSlots),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) MaxSlots() int { return len(r.slots) }

// Close stops new joins. Existing bindings stay and can still be unbound.
func (r *Registry) Close() { r.closed = true }

// TryJoin binds d to a free slot if it pressed something this tick.
// Already-bound devices, a full lobby, or a closed registry are no-ops.
func (r *Registry) TryJoin(d input.Device, pressedAnyButton bool) (int, bool) {
	if d.IsZero() || !pressedAnyButton || r.closed {
		return 0, false
	}
	if _, ok := r.devices[d]; ok {
		return 0, false
	}
	slot, ok := r.freeSlotFor(d)
	if !ok {
		return 0, false
	}
	r.bind(d, slot)
	return slot, true
}

// Bind places d in a specific slot. Used to carry bindings over between
// stages. Fails if either side is already taken.
func (r *Registry) Bind(d input.Device, slot int) bool {
	if d.IsZero() || slot < 0 || slot >= len(r.slots) {
		return false
	}
	if _, ok := r.devices[d]; ok {
		return false
	}
	if !r.slots[slot].IsZero() {
		return false
	}
	r.bind(d, slot)
	return true
}

// Unbind removes d's binding and returns the slot it held.
func (r *Registry) Unbind(d input.Device) (int, bool) {
	slot, ok := r.devices[d]
	if !ok {
		return 0, false
	}
	delete(r.devices, d)
	r.slots[slot] = input.Device{}
	return slot, true
}

func (r *Registry) BindingOf(d input.Device) (int, bool) {
	slot, ok := r.devices[d]
	return slot, ok
}

func (r *Registry) DeviceOf(slot int) (input.Device, bool) {
	if slot < 0 || slot >= len(r.slots) || r.slots[slot].IsZero() {
		return input.Device{}, false
	}
	return r.slots[slot], true
}

// Bound lists bound devices in slot order.
func (r *Registry) Bound() []input.Device {
	out := make([]input.Device, 0, len(r.devices))
	for _, d := range r.slots {
		if !d.IsZero() {
			out = append(out, d)
		}
	}
	return out
}

func (r *Registry) Len() int { return len(r.devices) }

func (r *Registry) bind(d input.Device, slot int) {
	r.slots[slot] = d
	r.devices[d] = slot
}

func (r *Registry) freeSlotFor(d input.Device) (int, bool) {
	start := 0
	if !r.fallback.IsZero() && d != r.fallback {
		start = 1
	}
	for i := start; i < len(r.slots); i++ {
		if r.slots[i].IsZero() {
			return i, true
		}
	}
	if start == 1 && len(r.slots) > 0 && r.slots[0].IsZero() {
		return 0, true
	}
	return 0, false
}
