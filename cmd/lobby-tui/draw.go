package main

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/DoyleJ11/couch-lobby/internal/engine"
	"github.com/DoyleJ11/couch-lobby/internal/lobby"
)

var (
	titleStyle  = tcell.StyleDefault.Foreground(tcell.NewRGBColor(180, 100, 255)).Bold(true)
	normalStyle = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	dimStyle    = tcell.StyleDefault.Foreground(tcell.ColorGray)
	lockedStyle = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.NewRGBColor(120, 220, 120))
	cellStyle   = tcell.StyleDefault.Foreground(tcell.NewRGBColor(150, 220, 255))
)

const cellWidth = 10

func draw(s tcell.Screen, f *lobby.Flow, status string) {
	s.Clear()
	st := f.Stage()

	switch f.Phase() {
	case lobby.PhaseCharacters:
		drawText(s, 2, 0, "CHARACTER SELECT", titleStyle)
	case lobby.PhaseMaps:
		drawText(s, 2, 0, "MAP VOTE", titleStyle)
	case lobby.PhaseDone:
		drawText(s, 2, 0, fmt.Sprintf("READY: map %d", f.Winner()+1), titleStyle)
		drawText(s, 2, 1, "[r] play again   [Esc] quit", dimStyle)
	}
	if armed, remaining := st.Countdown(); armed {
		drawText(s, 30, 0, fmt.Sprintf("starting in %d", int(math.Ceil(remaining))), titleStyle)
	}

	slots := st.Slots()
	for i, sl := range slots {
		drawSlot(s, 2+i*18, 2, sl)
	}

	y := drawGrid(s, 2, 6, st, slots)
	if votes := st.Votes(); votes != nil {
		drawText(s, 2, y+1, fmt.Sprintf("votes %v", votes), dimStyle)
	}
	drawText(s, 2, y+3, status, dimStyle)
	drawText(s, 2, y+4, "[WASD Space Q] [Arrows Enter Backspace]   [Esc] quit", dimStyle)
	s.Show()
}

func drawSlot(s tcell.Screen, x, y int, sl engine.Slot) {
	style := dimStyle
	label := "press to join"
	switch sl.State {
	case engine.Browsing:
		style = normalStyle
		label = fmt.Sprintf("picking %d", sl.Cursor+1)
	case engine.Locked:
		style = lockedStyle
		label = fmt.Sprintf("LOCKED %d", sl.Choice+1)
	}
	drawText(s, x, y, fmt.Sprintf("P%d", sl.Index+1), titleStyle)
	if !sl.Device.IsZero() {
		drawText(s, x+3, y, sl.Device.String(), dimStyle)
	}
	drawText(s, x, y+1, label, style)
}

// drawGrid returns the first row below the grid.
func drawGrid(s tcell.Screen, x, y int, st *lobby.Stage, slots []engine.Slot) int {
	layout := st.Layout()
	for i := 0; i < layout.ItemCount; i++ {
		row, col := layout.Cell(i)
		label := fmt.Sprintf("[%2d]", i+1)
		for _, sl := range slots {
			if sl.Joined() && sl.Cursor == i {
				label += fmt.Sprintf("%d", sl.Index+1)
			}
		}
		drawText(s, x+col*cellWidth, y+row, label, cellStyle)
	}
	return y + layout.Rows()
}

func drawText(s tcell.Screen, x, y int, text string, style tcell.Style) {
	col := x
	for _, ch := range text {
		s.SetContent(col, y, ch, nil, style)
		col++
	}
}

func describe(e engine.Event) string {
	switch e.Type {
	case engine.EvtJoined:
		return fmt.Sprintf("P%d joined", e.Slot+1)
	case engine.EvtLeft:
		return fmt.Sprintf("P%d left", e.Slot+1)
	case engine.EvtDisconnected:
		return fmt.Sprintf("P%d unplugged", e.Slot+1)
	case engine.EvtLocked:
		return fmt.Sprintf("P%d locked %d", e.Slot+1, e.Index+1)
	case engine.EvtUnlocked:
		return fmt.Sprintf("P%d unlocked", e.Slot+1)
	case engine.EvtCountdownDisarmed:
		return "countdown cancelled"
	case engine.EvtStageStarted:
		return fmt.Sprintf("map vote: %d players", e.Index)
	}
	return fmt.Sprintf("%s %s", e.Stage, e.Type)
}
