// Command lobby-tui runs a couch lobby in the terminal. Two players share the
// keyboard: W A S D with Space and Q, and the arrows with Enter and Backspace.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/DoyleJ11/couch-lobby/internal/config"
	"github.com/DoyleJ11/couch-lobby/internal/input"
	"github.com/DoyleJ11/couch-lobby/internal/input/tcellkbd"
	"github.com/DoyleJ11/couch-lobby/internal/lobby"
	"github.com/DoyleJ11/couch-lobby/internal/store"
)

func main() {
	cfgPath := flag.String("config", os.Getenv("LOBBY_CONFIG"), "stage config YAML")
	dbPath := flag.String("db", "", "SQLite file for results (memory if empty)")
	logPath := flag.String("log", "lobby-tui.log", "log file")
	flag.Parse()

	if err := run(*cfgPath, *dbPath, *logPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgPath, dbPath, logPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	// tcell owns the terminal, so logs go to a file.
	zc := zap.NewDevelopmentConfig()
	zc.OutputPaths = []string{logPath}
	zc.ErrorOutputPaths = []string{logPath}
	log, err := zc.Build()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	var results store.Results = store.NewMemory()
	if dbPath != "" {
		s, err := store.OpenSQLite(dbPath)
		if err != nil {
			return err
		}
		defer s.Close()
		results = s
	}
	writer := store.NewWriter(results, log.Named("store"), 16)
	defer writer.Close()

	flow, err := lobby.NewFlow(cfg, lobby.Deps{Log: log, Fallback: input.Keyboard(tcellkbd.ZoneLeft)}, writer)
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}

	a := &app{screen: screen, flow: flow, pool: input.NewPool()}
	a.loop(60)
	screen.Fini()

	if flow.Phase() == lobby.PhaseDone {
		fmt.Printf("run %s\n", flow.RunID())
		for _, p := range flow.Roster() {
			fmt.Printf("  P%d -> character %d\n", p.Slot+1, p.Choice+1)
		}
		fmt.Printf("  map %d\n", flow.Winner()+1)
	}
	return nil
}

type app struct {
	screen tcell.Screen
	flow   *lobby.Flow
	pool   *input.Pool
	status string
}

func (a *app) loop(hz int) {
	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	go a.screen.ChannelEvents(events, quit)
	defer close(quit)

	ticker := time.NewTicker(time.Second / time.Duration(hz))
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventResize:
				a.screen.Sync()
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
					return
				}
				if a.flow.Phase() == lobby.PhaseDone {
					if ev.Key() == tcell.KeyRune && (ev.Rune() == 'r' || ev.Rune() == 'R') {
						if err := a.flow.Restart(); err != nil {
							a.status = err.Error()
						}
					}
					continue
				}
				tcellkbd.Feed(a.pool, ev)
			}
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			for _, e := range a.flow.Tick(dt, a.pool) {
				a.status = describe(e)
			}
			draw(a.screen, a.flow, a.status)
		}
	}
}
