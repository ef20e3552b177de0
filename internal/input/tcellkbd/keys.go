// Package tcellkbd splits one terminal keyboard into two player zones.
//
//	zone 0: W A S D move, Space submit, Q cancel
//	zone 1: arrows move, Enter submit, Backspace cancel
//
// A zone connects on its first key press.
package tcellkbd

import (
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/DoyleJ11/couch-lobby/internal/input"
)

const (
	ZoneLeft  = 0
	ZoneRight = 1
)

// Translate maps a key event to the zone device and the sample it produces.
// ok is false for keys outside both zones.
func Translate(ev *tcell.EventKey) (d input.Device, s input.Sample, ok bool) {
	switch ev.Key() {
	case tcell.KeyUp:
		return right(input.Sample{Direction: input.Up})
	case tcell.KeyDown:
		return right(input.Sample{Direction: input.Down})
	case tcell.KeyLeft:
		return right(input.Sample{Direction: input.Left})
	case tcell.KeyRight:
		return right(input.Sample{Direction: input.Right})
	case tcell.KeyEnter:
		return right(input.Sample{Submit: true})
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return right(input.Sample{Cancel: true})
	case tcell.KeyRune:
	default:
		return input.Device{}, input.Sample{}, false
	}

	switch unicode.ToLower(ev.Rune()) {
	case 'w':
		return left(input.Sample{Direction: input.Up})
	case 's':
		return left(input.Sample{Direction: input.Down})
	case 'a':
		return left(input.Sample{Direction: input.Left})
	case 'd':
		return left(input.Sample{Direction: input.Right})
	case ' ':
		return left(input.Sample{Submit: true})
	case 'q':
		return left(input.Sample{Cancel: true})
	}
	return input.Device{}, input.Sample{}, false
}

func left(s input.Sample) (input.Device, input.Sample, bool) {
	return input.Keyboard(ZoneLeft), s, true
}

func right(s input.Sample) (input.Device, input.Sample, bool) {
	return input.Keyboard(ZoneRight), s, true
}

// Feed pushes ev into pool and reports whether it belonged to a zone.
func Feed(pool *input.Pool, ev *tcell.EventKey) bool {
	d, s, ok := Translate(ev)
	if !ok {
		return false
	}
	pool.Push(d, s)
	return true
}
