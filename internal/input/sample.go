package input

// Direction is a discrete navigation vector with each axis in {-1, 0, 1}.
// Y grows downwards, so Up is {0, -1}.
type Direction struct {
	X, Y int
}

var (
	None  = Direction{}
	Up    = Direction{Y: -1}
	Down  = Direction{Y: 1}
	Left  = Direction{X: -1}
	Right = Direction{X: 1}
)

func (d Direction) IsZero() bool { return d.X == 0 && d.Y == 0 }

// Sample is what one device reports for one tick.
//
// Direction, Submit, Cancel and AnyButton are pulses: they are set only on the
// tick the press happened. StickX and StickY are levels in [-1, 1] and are
// filtered by a Repeater before they move anything.
type Sample struct {
	Direction Direction
	StickX    float64
	StickY    float64
	Submit    bool
	Cancel    bool
	AnyButton bool
}

// Source enumerates the live devices and samples each of them once per tick.
type Source interface {
	Connected() []Device
	Sample(d Device) Sample
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func clampAxis(v int) int {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
