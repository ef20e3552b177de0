// Package gamepad feeds ebiten gamepads and one keyboard into an input.Pool.
// Update must run on the ebiten update goroutine.
package gamepad

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/DoyleJ11/couch-lobby/internal/input"
)

// Keyboard is the fallback device. It is always connected.
var Keyboard = input.Keyboard(0)

type Sampler struct {
	pool  *input.Pool
	known map[ebiten.GamepadID]bool
	ids   []ebiten.GamepadID
}

func NewSampler(pool *input.Pool) *Sampler {
	pool.Connect(Keyboard)
	return &Sampler{pool: pool, known: map[ebiten.GamepadID]bool{}}
}

func Device(id ebiten.GamepadID) input.Device { return input.Gamepad(int(id)) }

// Update polls every device once. Call it from Game.Update before ticking
// the lobby.
func (s *Sampler) Update() {
	s.keyboard()

	s.ids = ebiten.AppendGamepadIDs(s.ids[:0])
	seen := make(map[ebiten.GamepadID]bool, len(s.ids))
	for _, id := range s.ids {
		seen[id] = true
		if !s.known[id] {
			s.known[id] = true
			s.pool.Connect(Device(id))
		}
		s.pool.Push(Device(id), pad(id))
	}
	for id := range s.known {
		if !seen[id] {
			delete(s.known, id)
			s.pool.Disconnect(Device(id))
		}
	}
}

func (s *Sampler) keyboard() {
	var smp input.Sample
	switch {
	case justPressed(ebiten.KeyArrowUp, ebiten.KeyW):
		smp.Direction = input.Up
	case justPressed(ebiten.KeyArrowDown, ebiten.KeyS):
		smp.Direction = input.Down
	case justPressed(ebiten.KeyArrowLeft, ebiten.KeyA):
		smp.Direction = input.Left
	case justPressed(ebiten.KeyArrowRight, ebiten.KeyD):
		smp.Direction = input.Right
	}
	smp.Submit = justPressed(ebiten.KeyEnter, ebiten.KeySpace)
	smp.Cancel = justPressed(ebiten.KeyBackspace, ebiten.KeyQ)
	if smp != (input.Sample{}) {
		s.pool.Push(Keyboard, smp)
	}
}

func justPressed(keys ...ebiten.Key) bool {
	for _, k := range keys {
		if inpututil.IsKeyJustPressed(k) {
			return true
		}
	}
	return false
}

// pad reads one gamepad. Controllers without the standard mapping fall back
// to raw axes 0/1 and buttons 0/1.
func pad(id ebiten.GamepadID) input.Sample {
	var smp input.Sample
	if ebiten.IsStandardGamepadLayoutAvailable(id) {
		smp.StickX = ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickHorizontal)
		smp.StickY = ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickVertical)
		switch {
		case inpututil.IsStandardGamepadButtonJustPressed(id, ebiten.StandardGamepadButtonLeftTop):
			smp.Direction = input.Up
		case inpututil.IsStandardGamepadButtonJustPressed(id, ebiten.StandardGamepadButtonLeftBottom):
			smp.Direction = input.Down
		case inpututil.IsStandardGamepadButtonJustPressed(id, ebiten.StandardGamepadButtonLeftLeft):
			smp.Direction = input.Left
		case inpututil.IsStandardGamepadButtonJustPressed(id, ebiten.StandardGamepadButtonLeftRight):
			smp.Direction = input.Right
		}
		smp.Submit = inpututil.IsStandardGamepadButtonJustPressed(id, ebiten.StandardGamepadButtonRightBottom)
		smp.Cancel = inpututil.IsStandardGamepadButtonJustPressed(id, ebiten.StandardGamepadButtonRightRight)
	} else {
		if ebiten.GamepadAxisCount(id) >= 2 {
			smp.StickX = ebiten.GamepadAxisValue(id, 0)
			smp.StickY = ebiten.GamepadAxisValue(id, 1)
		}
		smp.Submit = inpututil.IsGamepadButtonJustPressed(id, ebiten.GamepadButton0)
		smp.Cancel = inpututil.IsGamepadButtonJustPressed(id, ebiten.GamepadButton1)
	}
	smp.AnyButton = len(inpututil.AppendJustPressedGamepadButtons(id, nil)) > 0
	return smp
}
