package lobby

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/couch-lobby/internal/config"
	"github.com/DoyleJ11/couch-lobby/internal/engine"
	"github.com/DoyleJ11/couch-lobby/internal/input"
)

type Phase string

const (
	PhaseCharacters Phase = "characters"
	PhaseMaps       Phase = "maps"
	PhaseDone       Phase = "done"
)

// Handoff receives final results. Implementations must not block the tick:
// store.Writer queues them for a background goroutine.
type Handoff interface {
	HandOffRoster(runID string, picks []engine.Pick)
	HandOffMap(runID string, choice int)
}

type nopHandoff struct{}

func (nopHandoff) HandOffRoster(string, []engine.Pick) {}
func (nopHandoff) HandOffMap(string, int)              {}

// Flow runs the whole pre-match sequence: character select, then a map vote
// among the players who locked a character.
type Flow struct {
	cfg     config.Stage
	deps    Deps
	handoff Handoff
	log     *zap.Logger

	runID  string
	phase  Phase
	stage  *Stage
	roster []engine.Pick
	winner int
}

// NewFlow validates cfg and opens the character stage. A nil handoff
// discards results.
func NewFlow(cfg config.Stage, deps Deps, handoff Handoff) (*Flow, error) {
	deps = deps.withDefaults(cfg.Seed)
	if handoff == nil {
		handoff = nopHandoff{}
	}
	f := &Flow{cfg: cfg, deps: deps, handoff: handoff, log: deps.Log}
	if err := f.Restart(); err != nil {
		return nil, err
	}
	return f, nil
}

// Restart throws away any progress and reopens character select under a new
// run id.
func (f *Flow) Restart() error {
	st, err := NewCharacterStage(f.cfg, f.deps)
	if err != nil {
		return err
	}
	f.runID = uuid.NewString()
	f.phase = PhaseCharacters
	f.stage = st
	f.roster = nil
	f.winner = engine.NoChoice
	f.log.Info("lobby opened", zap.String("run", f.runID))
	return nil
}

// Tick advances the active stage and moves to the next one when it finishes.
// Every returned event is stamped with the stage it came from.
func (f *Flow) Tick(dt float64, src input.Source) []engine.Event {
	if f.phase == PhaseDone {
		return nil
	}
	events := stamp(f.stage.Tick(dt, src), f.stage.Kind())
	if !f.stage.Done() {
		return events
	}

	res := f.stage.Result()
	switch res.Kind {
	case KindCharacters:
		f.roster = res.Picks
		f.handoff.HandOffRoster(f.runID, res.Picks)

		st, err := NewMapStage(f.cfg, f.stage.LockedParticipants(), f.deps)
		if err != nil {
			// cfg was validated when the character stage opened
			f.log.Error("map stage failed to open", zap.Error(err))
			f.phase = PhaseDone
			return events
		}
		f.stage = st
		f.phase = PhaseMaps
		events = append(events, engine.Event{Type: engine.EvtStageStarted, Stage: string(KindMaps), Slot: engine.NoSlot, Index: st.Participants()})

	case KindMaps:
		f.winner = res.Winner
		f.phase = PhaseDone
		f.handoff.HandOffMap(f.runID, res.Winner)
	}
	return events
}

func stamp(events []engine.Event, k Kind) []engine.Event {
	for i := range events {
		events[i].Stage = string(k)
	}
	return events
}

func (f *Flow) RunID() string { return f.runID }

func (f *Flow) Phase() Phase { return f.phase }

func (f *Flow) Stage() *Stage { return f.stage }

func (f *Flow) Config() config.Stage { return f.cfg }

// Roster is the character result, nil until character select finished.
func (f *Flow) Roster() []engine.Pick { return f.roster }

// Winner is the chosen map, or engine.NoChoice before the vote finished.
func (f *Flow) Winner() int { return f.winner }
