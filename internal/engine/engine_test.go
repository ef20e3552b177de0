package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/couch-lobby/internal/grid"
	"github.com/DoyleJ11/couch-lobby/internal/input"
)

var sixGrid = Rules{Layout: grid.Layout{RowWidth: 3, ItemCount: 6}, Anchor: 0}

func browsing(index, cursor int) Slot {
	return Slot{Index: index, Device: input.Gamepad(index), State: Browsing, Cursor: cursor, Choice: NoChoice}
}

func locked(index, choice int) Slot {
	return Slot{Index: index, Device: input.Gamepad(index), State: Locked, Cursor: choice, Choice: choice}
}

func TestApply_Transitions(t *testing.T) {
	cases := []struct {
		name      string
		setup     Slot
		rules     Rules
		cmd       Command
		wantState SelectionState
		wantEvent EventType
		wantErr   error
	}{
		{
			name:      "join starts browsing at zero",
			setup:     NewSlots(2)[1],
			rules:     sixGrid,
			cmd:       Command{Type: CmdJoin, Device: input.Gamepad(3)},
			wantState: Browsing,
			wantEvent: EvtJoined,
		},
		{
			name:      "join twice is rejected",
			setup:     browsing(1, 2),
			rules:     sixGrid,
			cmd:       Command{Type: CmdJoin, Device: input.Gamepad(3)},
			wantState: Browsing,
			wantErr:   ErrAlreadyJoined,
		},
		{
			name:      "submit locks",
			setup:     browsing(1, 4),
			rules:     sixGrid,
			cmd:       Command{Type: CmdSubmit},
			wantState: Locked,
			wantEvent: EvtLocked,
		},
		{
			name:      "submit while locked is ignored",
			setup:     locked(1, 4),
			rules:     sixGrid,
			cmd:       Command{Type: CmdSubmit},
			wantState: Locked,
			wantErr:   ErrAlreadyLocked,
		},
		{
			name:      "cancel unlocks",
			setup:     locked(1, 4),
			rules:     sixGrid,
			cmd:       Command{Type: CmdCancel},
			wantState: Browsing,
			wantEvent: EvtUnlocked,
		},
		{
			name:      "cancel while browsing leaves",
			setup:     browsing(2, 1),
			rules:     sixGrid,
			cmd:       Command{Type: CmdCancel},
			wantState: Unjoined,
			wantEvent: EvtLeft,
		},
		{
			name:      "anchor slot cannot leave",
			setup:     browsing(0, 1),
			rules:     sixGrid,
			cmd:       Command{Type: CmdCancel},
			wantState: Browsing,
			wantErr:   ErrCannotLeave,
		},
		{
			name:      "anchor slot can unlock",
			setup:     locked(0, 1),
			rules:     sixGrid,
			cmd:       Command{Type: CmdCancel},
			wantState: Browsing,
			wantEvent: EvtUnlocked,
		},
		{
			name:      "no-leave rules keep browsing players",
			setup:     browsing(3, 0),
			rules:     Rules{Layout: sixGrid.Layout, Anchor: NoSlot, NoLeave: true},
			cmd:       Command{Type: CmdCancel},
			wantState: Browsing,
			wantErr:   ErrCannotLeave,
		},
		{
			name:      "no-unlock rules make locks final",
			setup:     locked(3, 2),
			rules:     Rules{Layout: sixGrid.Layout, Anchor: NoSlot, NoUnlock: true},
			cmd:       Command{Type: CmdCancel},
			wantState: Locked,
			wantErr:   ErrUnlockDisabled,
		},
		{
			name:      "disconnect while locked forces unjoined",
			setup:     locked(2, 4),
			rules:     sixGrid,
			cmd:       Command{Type: CmdDisconnect},
			wantState: Unjoined,
			wantEvent: EvtDisconnected,
		},
		{
			name:      "disconnect bypasses the anchor rule",
			setup:     browsing(0, 3),
			rules:     sixGrid,
			cmd:       Command{Type: CmdDisconnect},
			wantState: Unjoined,
			wantEvent: EvtDisconnected,
		},
		{
			name:      "unjoined slot ignores submit",
			setup:     NewSlots(1)[0],
			rules:     sixGrid,
			cmd:       Command{Type: CmdSubmit},
			wantState: Unjoined,
			wantErr:   ErrNotJoined,
		},
		{
			name:      "unknown command",
			setup:     browsing(1, 0),
			rules:     sixGrid,
			cmd:       Command{Type: "Dance"},
			wantState: Browsing,
			wantErr:   ErrUnsupportedCommand,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			events, next, err := Apply(tc.setup, tc.rules, tc.cmd)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("want %v, got %v", tc.wantErr, err)
				}
				if next != tc.setup {
					t.Fatalf("slot changed on error: %+v -> %+v", tc.setup, next)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantState, next.State)
			assert.True(t, ContainsEvent(events, tc.wantEvent), "events %+v", events)
		})
	}
}

func TestApply_LockRecordsCursorAndUnlockClears(t *testing.T) {
	_, s, err := Apply(browsing(1, 4), sixGrid, Command{Type: CmdSubmit})
	require.NoError(t, err)
	assert.Equal(t, 4, s.Choice)

	_, s, err = Apply(s, sixGrid, Command{Type: CmdCancel})
	require.NoError(t, err)
	assert.Equal(t, NoChoice, s.Choice)
	assert.Equal(t, 4, s.Cursor, "cursor survives unlock")
}

func TestApply_NavigationIgnoredWhileLocked(t *testing.T) {
	s := locked(1, 2)
	for _, dir := range []input.Direction{input.Up, input.Down, input.Left, input.Right} {
		events, next, err := Apply(s, sixGrid, Command{Type: CmdNavigate, Dir: dir})
		require.ErrorIs(t, err, ErrLocked)
		assert.Empty(t, events)
		assert.Equal(t, 2, next.Cursor)
	}
}

func TestApply_NavigationNoChangeEmitsNothing(t *testing.T) {
	one := Rules{Layout: grid.Layout{RowWidth: 1, ItemCount: 1}, Anchor: 0}
	events, next, err := Apply(browsing(1, 0), one, Command{Type: CmdNavigate, Dir: input.Right})
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Equal(t, 0, next.Cursor)

	events, next, err = Apply(browsing(1, 0), sixGrid, Command{Type: CmdNavigate, Dir: input.Down})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, Event{Type: EvtMoved, Slot: 1, Index: 3}, events[0])
	assert.Equal(t, 3, next.Cursor)
}

func TestApply_LeaveClearsDevice(t *testing.T) {
	_, s, err := Apply(browsing(2, 5), sixGrid, Command{Type: CmdCancel})
	require.NoError(t, err)
	assert.True(t, s.Device.IsZero())
	assert.Equal(t, 2, s.Index)
	assert.Equal(t, NoChoice, s.Choice)
}

func TestIsReady(t *testing.T) {
	cases := []struct {
		name  string
		slots []Slot
		want  bool
	}{
		{"nobody joined", NewSlots(4), false},
		{"one joined browsing", []Slot{browsing(0, 0), NewSlots(2)[1]}, false},
		{"one joined locked", []Slot{locked(0, 1), NewSlots(2)[1]}, true},
		{"two joined one locked", []Slot{locked(0, 1), browsing(1, 0)}, false},
		{"all joined locked", []Slot{locked(0, 1), locked(1, 3), locked(2, 3)}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsReady(tc.slots))
		})
	}
}

func TestPicks_SlotOrderLockedOnly(t *testing.T) {
	slots := []Slot{locked(0, 1), browsing(1, 2), NewSlots(3)[2]}
	slots = append(slots, locked(3, 5))
	assert.Equal(t, []Pick{{Slot: 0, Choice: 1}, {Slot: 3, Choice: 5}}, Picks(slots))
	assert.Empty(t, Picks(NewSlots(2)))
}
