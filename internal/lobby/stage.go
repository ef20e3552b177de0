package lobby

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/couch-lobby/internal/binding"
	"github.com/DoyleJ11/couch-lobby/internal/config"
	"github.com/DoyleJ11/couch-lobby/internal/consensus"
	"github.com/DoyleJ11/couch-lobby/internal/engine"
	"github.com/DoyleJ11/couch-lobby/internal/grid"
	"github.com/DoyleJ11/couch-lobby/internal/input"
)

type Kind string

const (
	KindCharacters Kind = "characters"
	KindMaps       Kind = "maps"
)

// Participant is a player carried into the map vote.
type Participant struct {
	Slot   int
	Device input.Device
}

// Result is what a finished stage hands off.
type Result struct {
	Kind   Kind
	Picks  []engine.Pick // characters
	Winner int          // maps
}

// Deps are the collaborators a stage is built with.
type Deps struct {
	Log *zap.Logger
	Rng *rand.Rand
	// Fallback is the device slot 0 is reserved for (usually the keyboard).
	Fallback input.Device
}

func (d Deps) withDefaults(seed int64) Deps {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Rng == nil {
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		d.Rng = rand.New(rand.NewSource(seed))
	}
	return d
}

// Stage is one selection round: every bound player browses the same grid.
// In the character stage readiness arms a consensus countdown; in the map
// stage each lock is a vote and the round ends when everyone voted or the
// voting countdown runs out.
//
// Stage is not safe for concurrent use; one driver calls Tick per frame.
type Stage struct {
	kind     Kind
	rules    engine.Rules
	registry *binding.Registry
	slots    []engine.Slot
	repeat   []*input.Repeater
	timer    *consensus.Scheduler
	tally    *consensus.Tally
	log      *zap.Logger

	participants int
	lastWhole    int
	done         bool
	result       Result
}

// NewCharacterStage opens a character stage where any device may join.
func NewCharacterStage(cfg config.Stage, deps Deps) (*Stage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	deps = deps.withDefaults(cfg.Seed)
	layout, err := grid.NewLayout(cfg.Characters.RowWidth, cfg.Characters.CandidateCount)
	if err != nil {
		return nil, fmt.Errorf("%w: characters: %w", config.ErrInvalidConfig, err)
	}

	var opts []binding.Option
	if !deps.Fallback.IsZero() {
		opts = append(opts, binding.WithFallback(deps.Fallback))
	}
	st := newStage(KindCharacters, cfg, layout, binding.NewRegistry(cfg.MaxSlots, opts...), deps.Log)
	st.rules.Anchor = cfg.AnchorSlot
	st.timer = consensus.NewScheduler(cfg.ConsensusSec)
	return st, nil
}

// NewMapStage opens a vote among fixed participants. No new device can join.
func NewMapStage(cfg config.Stage, participants []Participant, deps Deps) (*Stage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	deps = deps.withDefaults(cfg.Seed)
	layout, err := grid.NewLayout(cfg.Maps.RowWidth, cfg.Maps.CandidateCount)
	if err != nil {
		return nil, fmt.Errorf("%w: maps: %w", config.ErrInvalidConfig, err)
	}
	tally, err := consensus.NewTally(cfg.Maps.CandidateCount, cfg.MaxSlots, cfg.AllowVoteChanges, deps.Rng)
	if err != nil {
		return nil, fmt.Errorf("%w: maps: %w", config.ErrInvalidConfig, err)
	}

	st := newStage(KindMaps, cfg, layout, binding.NewRegistry(cfg.MaxSlots), deps.Log)
	st.rules.Anchor = engine.NoSlot
	st.rules.NoLeave = true
	st.rules.NoUnlock = !cfg.AllowVoteChanges
	st.tally = tally
	st.timer = consensus.NewScheduler(cfg.VotingSec)

	for _, p := range participants {
		if !st.registry.Bind(p.Device, p.Slot) {
			st.log.Debug("participant not carried over", zap.Int("slot", p.Slot), zap.Stringer("device", p.Device))
			continue
		}
		_, st.slots[p.Slot], _ = engine.Apply(st.slots[p.Slot], st.rules, engine.Command{Type: engine.CmdJoin, Device: p.Device})
		st.participants++
	}
	st.registry.Close()
	return st, nil
}

func newStage(kind Kind, cfg config.Stage, layout grid.Layout, reg *binding.Registry, log *zap.Logger) *Stage {
	st := &Stage{
		kind:      kind,
		rules:     engine.Rules{Layout: layout},
		registry:  reg,
		slots:     engine.NewSlots(cfg.MaxSlots),
		repeat:    make([]*input.Repeater, cfg.MaxSlots),
		log:       log.With(zap.String("stage", string(kind))),
		lastWhole: -1,
	}
	for i := range st.repeat {
		st.repeat[i] = input.NewRepeater(cfg.Repeat())
	}
	return st
}

// Tick advances the stage by dt seconds: bindings first, then per-slot
// input, then readiness and timers. Slot changes made this tick are visible to
// the readiness check of the same tick.
func (st *Stage) Tick(dt float64, src input.Source) []engine.Event {
	if st.done {
		return nil
	}
	var events []engine.Event

	// 1) bindings: unplugged devices leave, new presses join
	connected := src.Connected()
	live := make(map[input.Device]bool, len(connected))
	for _, d := range connected {
		live[d] = true
	}
	for _, d := range st.registry.Bound() {
		if !live[d] {
			events = append(events, st.disconnect(d)...)
		}
	}

	samples := make(map[input.Device]input.Sample, len(connected))
	joinedNow := map[int]bool{}
	for _, d := range connected {
		s := src.Sample(d)
		samples[d] = s
		if _, bound := st.registry.BindingOf(d); bound {
			continue
		}
		slot, ok := st.registry.TryJoin(d, s.AnyButton)
		if !ok {
			continue
		}
		evs, next, err := engine.Apply(st.slots[slot], st.rules, engine.Command{Type: engine.CmdJoin, Device: d})
		if err != nil {
			// slot state and registry disagree; put the registry back
			st.registry.Unbind(d)
			st.log.Warn("join rejected", zap.Int("slot", slot), zap.Error(err))
			continue
		}
		st.slots[slot] = next
		st.repeat[slot].Reset()
		joinedNow[slot] = true
		events = append(events, evs...)
	}

	// 2) per-slot input
	trigger := false
	for i := range st.slots {
		d, ok := st.registry.DeviceOf(i)
		if !ok || joinedNow[i] {
			continue
		}
		s := samples[d]
		dir := st.repeat[i].Step(dt, s)
		if s.Submit && st.timer.Armed() && st.kind == KindCharacters {
			trigger = true
		}
		if !dir.IsZero() {
			events = append(events, st.apply(i, engine.Command{Type: engine.CmdNavigate, Dir: dir})...)
		}
		switch {
		case s.Submit:
			events = append(events, st.apply(i, engine.Command{Type: engine.CmdSubmit})...)
		case s.Cancel:
			events = append(events, st.apply(i, engine.Command{Type: engine.CmdCancel})...)
		}
	}

	// 3+4) readiness and timers
	switch st.kind {
	case KindCharacters:
		if trigger {
			st.timer.Trigger()
		}
		events = append(events, st.tickConsensus(dt)...)
	case KindMaps:
		events = append(events, st.tickVote(dt)...)
	}
	return events
}

func (st *Stage) apply(slot int, cmd engine.Command) []engine.Event {
	evs, next, err := engine.Apply(st.slots[slot], st.rules, cmd)
	if err != nil {
		st.log.Debug("input ignored", zap.Int("slot", slot), zap.String("cmd", string(cmd.Type)), zap.Error(err))
		return nil
	}
	prev := st.slots[slot]
	st.slots[slot] = next

	for _, ev := range evs {
		switch ev.Type {
		case engine.EvtLeft:
			st.registry.Unbind(prev.Device)
			st.repeat[slot].Reset()
		case engine.EvtLocked:
			evs = append(evs, st.vote(slot, ev.Index)...)
		case engine.EvtUnlocked:
			evs = append(evs, st.retract(slot, false)...)
		}
	}
	return evs
}

func (st *Stage) disconnect(d input.Device) []engine.Event {
	slot, ok := st.registry.Unbind(d)
	if !ok {
		return nil
	}
	st.repeat[slot].Reset()
	evs, next, err := engine.Apply(st.slots[slot], st.rules, engine.Command{Type: engine.CmdDisconnect})
	if err != nil {
		st.log.Warn("disconnect on unjoined slot", zap.Int("slot", slot), zap.Error(err))
		return nil
	}
	st.slots[slot] = next
	st.log.Info("device disconnected", zap.Int("slot", slot), zap.Stringer("device", d))
	if st.kind == KindMaps {
		st.participants--
		evs = append(evs, st.retract(slot, true)...)
	}
	return evs
}

func (st *Stage) vote(slot, choice int) []engine.Event {
	if st.tally == nil {
		return nil
	}
	changed, err := st.tally.SubmitVote(slot, choice)
	if err != nil {
		st.log.Debug("vote rejected", zap.Int("slot", slot), zap.Int("choice", choice), zap.Error(err))
		return nil
	}
	if !changed {
		return nil
	}
	return []engine.Event{{Type: engine.EvtVoteCast, Slot: slot, Index: choice}}
}

func (st *Stage) retract(slot int, forfeit bool) []engine.Event {
	if st.tally == nil {
		return nil
	}
	var (
		choice int
		err    error
	)
	if forfeit {
		choice, err = st.tally.Forfeit(slot)
	} else {
		choice, err = st.tally.RetractVote(slot)
	}
	if err != nil {
		return nil
	}
	return []engine.Event{{Type: engine.EvtVoteRetracted, Slot: slot, Index: choice}}
}

func (st *Stage) tickConsensus(dt float64) []engine.Event {
	ready := engine.IsReady(st.slots)
	switch st.timer.Tick(dt, ready) {
	case consensus.Armed:
		st.lastWhole = wholeSeconds(st.timer.Remaining())
		return []engine.Event{{Type: engine.EvtCountdownArmed, Slot: engine.NoSlot, Index: st.lastWhole, Remaining: st.timer.Remaining()}}
	case consensus.Counting:
		return st.countdownTick()
	case consensus.Disarmed:
		st.lastWhole = -1
		return []engine.Event{{Type: engine.EvtCountdownDisarmed, Slot: engine.NoSlot, Index: engine.NoChoice}}
	case consensus.Fired:
		picks := engine.Picks(st.slots)
		st.finish(Result{Kind: KindCharacters, Picks: picks})
		st.log.Info("characters locked in", zap.Int("players", len(picks)))
		return []engine.Event{
			{Type: engine.EvtCountdownFired, Slot: engine.NoSlot, Index: 0},
			{Type: engine.EvtStageFinalized, Slot: engine.NoSlot, Index: len(picks)},
		}
	}
	return nil
}

func (st *Stage) tickVote(dt float64) []engine.Event {
	if st.tally.AllVoted(st.participants) {
		return st.finishVote("all voted")
	}
	switch st.timer.Tick(dt, true) {
	case consensus.Armed:
		st.lastWhole = wholeSeconds(st.timer.Remaining())
		return []engine.Event{{Type: engine.EvtCountdownArmed, Slot: engine.NoSlot, Index: st.lastWhole, Remaining: st.timer.Remaining()}}
	case consensus.Counting:
		return st.countdownTick()
	case consensus.Fired:
		evs := []engine.Event{{Type: engine.EvtCountdownFired, Slot: engine.NoSlot, Index: 0}}
		return append(evs, st.finishVote("timeout")...)
	}
	return nil
}

func (st *Stage) finishVote(reason string) []engine.Event {
	winner := st.tally.Finalize()
	st.finish(Result{Kind: KindMaps, Winner: winner})
	st.log.Info("map chosen", zap.Int("winner", winner), zap.Int("votes", st.tally.Votes()), zap.String("reason", reason))
	return []engine.Event{{Type: engine.EvtStageFinalized, Slot: engine.NoSlot, Index: winner}}
}

// countdownTick emits one event per whole second so displays can show
// "starting in N" without polling.
func (st *Stage) countdownTick() []engine.Event {
	w := wholeSeconds(st.timer.Remaining())
	if w == st.lastWhole {
		return nil
	}
	st.lastWhole = w
	return []engine.Event{{Type: engine.EvtCountdownTick, Slot: engine.NoSlot, Index: w, Remaining: st.timer.Remaining()}}
}

func (st *Stage) finish(r Result) {
	st.done = true
	st.result = r
	st.registry.Close()
}

func wholeSeconds(v float64) int {
	return int(math.Ceil(v - 1e-9))
}

func (st *Stage) Kind() Kind { return st.kind }

func (st *Stage) Done() bool { return st.done }

// Result is only meaningful once Done reports true.
func (st *Stage) Result() Result { return st.result }

func (st *Stage) Layout() grid.Layout { return st.rules.Layout }

func (st *Stage) Slot(i int) (engine.Slot, error) {
	if i < 0 || i >= len(st.slots) {
		return engine.Slot{}, engine.ErrUnknownSlot
	}
	return st.slots[i], nil
}

func (st *Stage) Slots() []engine.Slot {
	out := make([]engine.Slot, len(st.slots))
	copy(out, st.slots)
	return out
}

func (st *Stage) Registry() *binding.Registry { return st.registry }

func (st *Stage) Ready() bool { return engine.IsReady(st.slots) }

func (st *Stage) Countdown() (armed bool, remaining float64) {
	return st.timer.Armed(), st.timer.Remaining()
}

// Votes returns the per-candidate counts, or nil outside the map stage.
func (st *Stage) Votes() []int {
	if st.tally == nil {
		return nil
	}
	return st.tally.Counts()
}

func (st *Stage) Participants() int { return st.participants }

// LockedParticipants lists locked slots with their devices, ready to seed a
// map stage.
func (st *Stage) LockedParticipants() []Participant {
	var out []Participant
	for _, s := range st.slots {
		if s.State != engine.Locked {
			continue
		}
		if d, ok := st.registry.DeviceOf(s.Index); ok {
			out = append(out, Participant{Slot: s.Index, Device: d})
		}
	}
	return out
}
