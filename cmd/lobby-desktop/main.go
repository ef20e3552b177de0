// Command lobby-desktop runs a couch lobby in a window. The keyboard is
// player one's fallback device; every connected gamepad can join.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"

	"github.com/DoyleJ11/couch-lobby/internal/config"
	"github.com/DoyleJ11/couch-lobby/internal/engine"
	"github.com/DoyleJ11/couch-lobby/internal/input"
	"github.com/DoyleJ11/couch-lobby/internal/input/gamepad"
	"github.com/DoyleJ11/couch-lobby/internal/lobby"
	"github.com/DoyleJ11/couch-lobby/internal/store"
)

const (
	screenW = 640
	screenH = 360
)

type Game struct {
	flow    *lobby.Flow
	pool    *input.Pool
	sampler *gamepad.Sampler
	log     *zap.Logger
	status  string
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if g.flow.Phase() == lobby.PhaseDone && inpututil.IsKeyJustPressed(ebiten.KeyR) {
		if err := g.flow.Restart(); err != nil {
			g.log.Warn("restart failed", zap.Error(err))
		}
	}
	g.sampler.Update()
	for _, e := range g.flow.Tick(1/float64(ebiten.TPS()), g.pool) {
		g.status = fmt.Sprintf("%s %s slot=%d index=%d", e.Stage, e.Type, e.Slot, e.Index)
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	ebitenutil.DebugPrint(screen, summary(g.flow)+"\n"+g.status)
}

func (g *Game) Layout(_, _ int) (int, int) { return screenW, screenH }

func summary(f *lobby.Flow) string {
	var b strings.Builder
	st := f.Stage()
	fmt.Fprintf(&b, "%s\n\n", strings.ToUpper(string(f.Phase())))
	for _, sl := range st.Slots() {
		switch sl.State {
		case engine.Unjoined:
			fmt.Fprintf(&b, "P%d  press any button\n", sl.Index+1)
		case engine.Browsing:
			fmt.Fprintf(&b, "P%d  %-10s cursor %d\n", sl.Index+1, sl.Device, sl.Cursor+1)
		case engine.Locked:
			fmt.Fprintf(&b, "P%d  %-10s LOCKED %d\n", sl.Index+1, sl.Device, sl.Choice+1)
		}
	}
	if armed, remaining := st.Countdown(); armed {
		fmt.Fprintf(&b, "\nstarting in %.1f\n", remaining)
	}
	if votes := st.Votes(); votes != nil {
		fmt.Fprintf(&b, "\nvotes %v\n", votes)
	}
	if f.Phase() == lobby.PhaseDone {
		fmt.Fprintf(&b, "\nmap %d   [R] again  [Esc] quit\n", f.Winner()+1)
	}
	return b.String()
}

func main() {
	cfgPath := flag.String("config", os.Getenv("LOBBY_CONFIG"), "stage config YAML")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	writer := store.NewWriter(store.NewMemory(), logger.Named("store"), 16)
	defer writer.Close()

	flow, err := lobby.NewFlow(cfg, lobby.Deps{Log: logger, Fallback: gamepad.Keyboard}, writer)
	if err != nil {
		log.Fatal(err)
	}
	pool := input.NewPool()
	g := &Game{flow: flow, pool: pool, sampler: gamepad.NewSampler(pool), log: logger}

	ebiten.SetWindowSize(screenW*2, screenH*2)
	ebiten.SetWindowTitle("couch lobby")
	if err := ebiten.RunGame(g); err != nil {
		logger.Fatal("game exited", zap.Error(err))
	}
}
