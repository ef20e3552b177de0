package engine

import (
	"errors"

	"github.com/DoyleJ11/couch-lobby/internal/grid"
	"github.com/DoyleJ11/couch-lobby/internal/input"
)

var ErrUnknownSlot = errors.New("unknown slot")
var ErrNotJoined = errors.New("slot not joined")
var ErrAlreadyJoined = errors.New("slot already joined")
var ErrAlreadyLocked = errors.New("slot already locked")
var ErrLocked = errors.New("slot is locked")
var ErrCannotLeave = errors.New("slot cannot leave")
var ErrUnlockDisabled = errors.New("unlock disabled")
var ErrUnsupportedCommand = errors.New("unsupported command")

// NoSlot marks events that are not about a single player.
const NoSlot = -1

// NoChoice is the Choice of a slot that has not locked anything.
const NoChoice = -1

type SelectionState uint8

const (
	Unjoined SelectionState = iota
	Browsing
	Locked
)

func (s SelectionState) String() string {
	switch s {
	case Unjoined:
		return "unjoined"
	case Browsing:
		return "browsing"
	case Locked:
		return "locked"
	default:
		return "invalid"
	}
}

// Slot is one player seat.
type Slot struct {
	Index  int
	Device input.Device
	State  SelectionState
	Cursor int
	Choice int
}

func (s Slot) Joined() bool { return s.State != Unjoined }

// Rules are the per-stage knobs Apply needs.
type Rules struct {
	Layout grid.Layout
	// Anchor is the slot that may unlock but never leave. NoSlot disables it.
	Anchor int
	// NoLeave stops every slot from leaving with cancel, e.g. once the
	// participants of a vote are fixed.
	NoLeave bool
	// NoUnlock makes a lock final.
	NoUnlock bool
}

type CommandType string

const (
	CmdJoin       CommandType = "Join"
	CmdNavigate   CommandType = "Navigate"
	CmdSubmit     CommandType = "Submit"
	CmdCancel     CommandType = "Cancel"
	CmdDisconnect CommandType = "Disconnect"
)

/*
	CmdJoin       -> EvtJoined
	CmdNavigate   -> EvtMoved (only when the cursor actually changes)
	CmdSubmit     -> EvtLocked
	CmdCancel     -> EvtUnlocked when locked, EvtLeft when browsing
	CmdDisconnect -> EvtDisconnected
*/

type Command struct {
	Type   CommandType
	Device input.Device
	Dir    input.Direction
}

type EventType string

const (
	EvtJoined            EventType = "Joined"
	EvtLeft              EventType = "Left"
	EvtDisconnected      EventType = "Disconnected"
	EvtMoved             EventType = "Moved"
	EvtLocked            EventType = "Locked"
	EvtUnlocked          EventType = "Unlocked"
	EvtVoteCast          EventType = "VoteCast"
	EvtVoteRetracted     EventType = "VoteRetracted"
	EvtCountdownArmed    EventType = "CountdownArmed"
	EvtCountdownTick     EventType = "CountdownTick"
	EvtCountdownDisarmed EventType = "CountdownDisarmed"
	EvtCountdownFired    EventType = "CountdownFired"
	EvtStageStarted      EventType = "StageStarted"
	EvtStageFinalized    EventType = "StageFinalized"
)

// Event is what collaborators (display, audio) subscribe to. Index carries the
// cursor, the locked choice, the voted candidate or the winner depending on
// Type; Remaining carries countdown seconds. Stage is stamped by the lobby.
type Event struct {
	Type      EventType `json:"type"`
	Stage     string    `json:"stage,omitempty"`
	Slot      int       `json:"slot"`
	Index     int       `json:"index"`
	Remaining float64   `json:"remaining,omitempty"`
}

// Apply runs one command against one slot and returns the resulting events
// and slot. On error the slot is returned unchanged.
func Apply(s Slot, r Rules, cmd Command) ([]Event, Slot, error) {
	next := s

	switch cmd.Type {
	case CmdJoin:
		if s.Joined() {
			return nil, s, ErrAlreadyJoined
		}
		next.State = Browsing
		next.Device = cmd.Device
		next.Cursor = 0
		next.Choice = NoChoice
		return []Event{{Type: EvtJoined, Slot: s.Index, Index: 0}}, next, nil

	case CmdNavigate:
		switch s.State {
		case Unjoined:
			return nil, s, ErrNotJoined
		case Locked:
			return nil, s, ErrLocked
		}
		idx := grid.Navigate(s.Cursor, cmd.Dir, r.Layout)
		if idx == s.Cursor {
			return nil, s, nil
		}
		next.Cursor = idx
		return []Event{{Type: EvtMoved, Slot: s.Index, Index: idx}}, next, nil

	case CmdSubmit:
		switch s.State {
		case Unjoined:
			return nil, s, ErrNotJoined
		case Locked:
			return nil, s, ErrAlreadyLocked
		}
		next.State = Locked
		next.Choice = s.Cursor
		return []Event{{Type: EvtLocked, Slot: s.Index, Index: s.Cursor}}, next, nil

	case CmdCancel:
		switch s.State {
		case Unjoined:
			return nil, s, ErrNotJoined
		case Locked:
			if r.NoUnlock {
				return nil, s, ErrUnlockDisabled
			}
			next.State = Browsing
			next.Choice = NoChoice
			return []Event{{Type: EvtUnlocked, Slot: s.Index, Index: s.Cursor}}, next, nil
		}
		if r.NoLeave || s.Index == r.Anchor {
			return nil, s, ErrCannotLeave
		}
		return []Event{{Type: EvtLeft, Slot: s.Index, Index: NoChoice}}, reset(s), nil

	case CmdDisconnect:
		if !s.Joined() {
			return nil, s, ErrNotJoined
		}
		return []Event{{Type: EvtDisconnected, Slot: s.Index, Index: s.Choice}}, reset(s), nil

	default:
		return nil, s, ErrUnsupportedCommand
	}
}

func reset(s Slot) Slot {
	return Slot{Index: s.Index, State: Unjoined, Choice: NoChoice}
}
