package main

import (
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/couch-lobby/internal/config"
	"github.com/DoyleJ11/couch-lobby/internal/engine"
	"github.com/DoyleJ11/couch-lobby/internal/input"
	"github.com/DoyleJ11/couch-lobby/internal/input/tcellkbd"
	"github.com/DoyleJ11/couch-lobby/internal/lobby"
)

func newSimScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	ss := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, ss.Init())
	ss.SetSize(100, 24)
	return ss
}

func rowText(ss tcell.SimulationScreen, y int) string {
	cells, w, _ := ss.GetContents()
	var b strings.Builder
	for x := 0; x < w; x++ {
		c := cells[y*w+x]
		if len(c.Runes) == 0 {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(c.Runes[0])
	}
	return b.String()
}

func TestDraw_ShowsJoinedSlotAndCursor(t *testing.T) {
	flow, err := lobby.NewFlow(config.Defaults(), lobby.Deps{Fallback: input.Keyboard(tcellkbd.ZoneLeft)}, nil)
	require.NoError(t, err)
	pool := input.NewPool()
	tcellkbd.Feed(pool, tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone))
	flow.Tick(0.01, pool)

	ss := newSimScreen(t)
	draw(ss, flow, "")

	assert.Contains(t, rowText(ss, 0), "CHARACTER SELECT")
	assert.Contains(t, rowText(ss, 2), "keyboard:0")
	assert.Contains(t, rowText(ss, 3), "picking 1")
	assert.Contains(t, rowText(ss, 6), "[ 1]1")
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "P2 locked 4", describe(engine.Event{Type: engine.EvtLocked, Slot: 1, Index: 3}))
	assert.Equal(t, "map vote: 3 players", describe(engine.Event{Type: engine.EvtStageStarted, Slot: engine.NoSlot, Index: 3}))
}
