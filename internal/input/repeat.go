package input

import "math"

// RepeatConfig tunes analog stick repeat suppression.
type RepeatConfig struct {
	High     float64 // magnitude that fires a step
	Low      float64 // magnitude the stick must fall under to re-arm
	Cooldown float64 // seconds before a held stick repeats
}

func DefaultRepeatConfig() RepeatConfig {
	return RepeatConfig{High: 0.6, Low: 0.3, Cooldown: 0.25}
}

type axisState struct {
	armed bool
	since float64
}

func (a *axisState) step(dt, v float64, cfg RepeatConfig) int {
	a.since += dt
	mag := math.Abs(v)
	if mag < cfg.Low {
		a.armed = true
		return 0
	}
	if mag <= cfg.High {
		return 0
	}
	if a.armed || a.since >= cfg.Cooldown {
		a.armed = false
		a.since = 0
		return sign(v)
	}
	return 0
}

// touch records a digital step on this axis so a stick held in the same
// direction does not double-fire on the same frame window.
func (a *axisState) touch() {
	a.since = 0
}

// Repeater turns a stream of Samples from one device into edge-triggered
// navigation steps. Digital directions pass straight through; analog sticks
// fire on crossing High, re-arm under Low, and auto-repeat every Cooldown
// seconds while held.
type Repeater struct {
	cfg  RepeatConfig
	x, y axisState
}

func NewRepeater(cfg RepeatConfig) *Repeater {
	return &Repeater{
		cfg: cfg,
		x:   axisState{armed: true, since: cfg.Cooldown},
		y:   axisState{armed: true, since: cfg.Cooldown},
	}
}

// Step advances the repeater by dt seconds and returns the direction to apply
// this tick, or None.
func (r *Repeater) Step(dt float64, s Sample) Direction {
	ax := r.x.step(dt, s.StickX, r.cfg)
	ay := r.y.step(dt, s.StickY, r.cfg)

	if !s.Direction.IsZero() {
		if s.Direction.X != 0 {
			r.x.touch()
		}
		if s.Direction.Y != 0 {
			r.y.touch()
		}
		return Direction{X: clampAxis(s.Direction.X), Y: clampAxis(s.Direction.Y)}
	}
	return Direction{X: ax, Y: ay}
}

// Reset forgets any held-stick history, e.g. when the slot is re-joined.
func (r *Repeater) Reset() {
	r.x = axisState{armed: true, since: r.cfg.Cooldown}
	r.y = axisState{armed: true, since: r.cfg.Cooldown}
}
