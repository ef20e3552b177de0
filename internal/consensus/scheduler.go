// Package consensus decides when a group of players is done choosing: a
// cancellable countdown gated on readiness, and a vote tally for picking one
// candidate out of many.
package consensus

// epsilon absorbs float drift from summing many frame deltas.
const epsilon = 1e-9

type Outcome uint8

const (
	Idle     Outcome = iota // not armed, nothing changed
	Armed                   // armed this tick
	Counting                // still armed, counting down
	Disarmed                // readiness was lost this tick
	Fired                   // reached zero this tick
)

func (o Outcome) String() string {
	switch o {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Counting:
		return "counting"
	case Disarmed:
		return "disarmed"
	case Fired:
		return "fired"
	default:
		return "invalid"
	}
}

// Scheduler is a countdown armed while its ready input is true. It fires at
// most once per arm cycle: after firing it stays quiet until ready drops and
// rises again.
type Scheduler struct {
	duration  float64
	remaining float64
	armed     bool
	fired     bool
	wasReady  bool
}

func NewScheduler(durationSec float64) *Scheduler {
	if durationSec < 0 {
		durationSec = 0
	}
	return &Scheduler{duration: durationSec}
}

// Tick advances the countdown by dt seconds.
func (s *Scheduler) Tick(dt float64, ready bool) Outcome {
	rising := ready && !s.wasReady
	s.wasReady = ready

	if !ready {
		s.fired = false
		if s.armed {
			s.armed = false
			s.remaining = 0
			return Disarmed
		}
		return Idle
	}

	if s.fired {
		return Idle
	}

	if rising || !s.armed {
		s.armed = true
		s.remaining = s.duration
		if s.remaining > epsilon {
			return Armed
		}
	} else {
		s.remaining -= dt
	}

	if s.remaining <= epsilon {
		s.remaining = 0
		s.armed = false
		s.fired = true
		return Fired
	}
	return Counting
}

// Trigger makes an armed countdown fire on its next Tick. Unarmed schedulers
// ignore it.
func (s *Scheduler) Trigger() bool {
	if !s.armed {
		return false
	}
	s.remaining = 0
	return true
}

// Reset returns the scheduler to its initial, unarmed state.
func (s *Scheduler) Reset() {
	*s = Scheduler{duration: s.duration}
}

func (s *Scheduler) Armed() bool { return s.armed }

func (s *Scheduler) Remaining() float64 { return s.remaining }

func (s *Scheduler) Duration() float64 { return s.duration }
