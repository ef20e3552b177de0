package types

import (
	"math"

	"github.com/DoyleJ11/couch-lobby/internal/engine"
	"github.com/DoyleJ11/couch-lobby/internal/input"
	"github.com/DoyleJ11/couch-lobby/internal/lobby"
	pub "github.com/DoyleJ11/couch-lobby/pkg/types"
)

func ms(sec float64) int { return int(math.Round(sec * 1000)) }

// View converts the lobby's internal view to its wire form.
func View(code string, v lobby.View) pub.LobbyView {
	out := pub.LobbyView{
		Code:       code,
		Version:    v.Version,
		Clients:    v.NumClients,
		RunID:      v.RunID,
		Phase:      string(v.Phase),
		Stage:      string(v.Stage),
		Columns:    v.Columns,
		Candidates: v.Candidates,
		Slots:      make([]pub.SlotView, len(v.Slots)),
		Ready:      v.Ready,
		Countdown:  pub.Countdown{Armed: v.Armed, RemainingMS: ms(v.Remaining)},
		Votes:      v.Votes,
	}
	for i, s := range v.Slots {
		out.Slots[i] = Slot(s)
	}
	out.Roster = picks(v.Roster)
	if v.Winner != engine.NoChoice {
		w := v.Winner
		out.Winner = &w
	}
	return out
}

func picks(in []engine.Pick) []pub.Pick {
	var out []pub.Pick
	for _, p := range in {
		out = append(out, pub.Pick{Slot: p.Slot, Choice: p.Choice})
	}
	return out
}

// Run builds the stored-run view. A negative choice means no map was saved.
func Run(runID string, roster []engine.Pick, choice int) pub.RunView {
	out := pub.RunView{RunID: runID, Roster: picks(roster)}
	if out.Roster == nil {
		out.Roster = []pub.Pick{}
	}
	if choice >= 0 {
		out.Map = &choice
	}
	return out
}

func Slot(s engine.Slot) pub.SlotView {
	sv := pub.SlotView{Index: s.Index, State: s.State.String(), Cursor: s.Cursor}
	if !s.Device.IsZero() {
		sv.Device = s.Device.String()
	}
	if s.State == engine.Locked {
		c := s.Choice
		sv.Choice = &c
	}
	return sv
}

func Event(e engine.Event) pub.Event {
	out := pub.Event{Type: string(e.Type), Stage: e.Stage, Index: e.Index, RemainingMS: ms(e.Remaining)}
	if e.Slot != engine.NoSlot {
		slot := e.Slot
		out.Slot = &slot
	}
	return out
}

// Sample turns a client Sample message into a device sample.
func Sample(m pub.ClientMessage) input.Sample {
	return input.Sample{
		Direction: input.Direction{X: clampStep(m.DX), Y: clampStep(m.DY)},
		StickX:    m.AX,
		StickY:    m.AY,
		Submit:    m.Submit,
		Cancel:    m.Cancel,
		AnyButton: m.Any,
	}
}

func clampStep(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
