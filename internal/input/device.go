// Package input turns physical devices into the per-tick signals the lobby
// core understands. The core never sees key codes or button indices; it only
// sees Device handles and Samples.
package input

import "fmt"

type DeviceKind uint8

const (
	KindKeyboard DeviceKind = iota + 1
	KindGamepad
	KindRemote
)

func (k DeviceKind) String() string {
	switch k {
	case KindKeyboard:
		return "keyboard"
	case KindGamepad:
		return "gamepad"
	case KindRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// Device is an opaque, comparable handle for one physical input source.
// A keyboard may be split into zones, each zone being its own Device.
type Device struct {
	Kind DeviceKind
	ID   int
}

func Keyboard(zone int) Device { return Device{Kind: KindKeyboard, ID: zone} }

func Gamepad(id int) Device { return Device{Kind: KindGamepad, ID: id} }

func Remote(id int) Device { return Device{Kind: KindRemote, ID: id} }

func (d Device) IsZero() bool { return d.Kind == 0 }

func (d Device) String() string {
	return fmt.Sprintf("%s:%d", d.Kind, d.ID)
}
