package lobby

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/couch-lobby/internal/engine"
	"github.com/DoyleJ11/couch-lobby/internal/input"
)

type Msg interface{ isLobbyMsg() }

// Join subscribes a client. Outbox must be buffered; the lobby never blocks
// on it.
type Join struct {
	ClientID string
	Outbox   chan Snapshot // where this client wants to receive snapshots
}

func (Join) isLobbyMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

// Step advances the flow by DT seconds. Lobbies started without a ticker are
// driven entirely by Step.
type Step struct{ DT float64 }

func (Step) isLobbyMsg() {}

// Restart reopens character select.
type Restart struct{ Reply chan error }

func (Restart) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

// Snapshot is what subscribers receive: the events of one tick plus the view
// after applying them.
type Snapshot struct {
	Version int
	Events  []engine.Event
	View    View
}

type View struct {
	Version    int
	NumClients int
	RunID      string
	Phase      Phase
	Stage      Kind
	Columns    int
	Candidates int
	Slots      []engine.Slot
	Ready      bool
	Armed      bool
	Remaining  float64
	Votes      []int
	Roster     []engine.Pick
	Winner     int
}

type Options struct {
	// TickHz drives Flow.Tick from an internal ticker. Zero disables the
	// ticker; the lobby then only moves on Step messages.
	TickHz int
	Log    *zap.Logger
}

// Lobby owns a Flow on a single goroutine. Devices push into its Pool from
// anywhere; everything else goes through the inbox.
type Lobby struct {
	inbox   chan Msg
	flow    *Flow
	pool    *input.Pool
	version int
	clients map[string]chan Snapshot
	tickHz  int
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewLobby(parent context.Context, flow *Flow, pool *input.Pool, opts Options) *Lobby {
	ctx, cancel := context.WithCancel(parent)
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if pool == nil {
		pool = input.NewPool()
	}

	l := &Lobby{
		inbox:   make(chan Msg, 64), // Small buffer
		flow:    flow,
		pool:    pool,
		version: 0,
		clients: make(map[string]chan Snapshot),
		tickHz:  opts.TickHz,
		log:     opts.Log,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go l.loop()
	return l
}

func (l *Lobby) loop() {
	defer close(l.done)

	var tick <-chan time.Time
	if l.tickHz > 0 {
		t := time.NewTicker(time.Second / time.Duration(l.tickHz))
		defer t.Stop()
		tick = t.C
	}
	last := time.Now()

	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case now := <-tick:
			dt := now.Sub(last).Seconds()
			last = now
			l.step(dt)

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				// Register client + send current view immediately.
				// An outbox with no room is closed, same as a slow client.
				select {
				case msg.Outbox <- Snapshot{Version: l.version, View: l.view()}:
					l.clients[msg.ClientID] = msg.Outbox
				default:
					l.log.Warn("client outbox full on join", zap.String("client", msg.ClientID))
					close(msg.Outbox)
				}

			case Leave:
				if ch, ok := l.clients[msg.ClientID]; ok {
					close(ch)
					delete(l.clients, msg.ClientID)
				}

			case Step:
				l.step(msg.DT)

			case Restart:
				err := l.flow.Restart()
				if err == nil {
					l.version++
					l.broadcast(Snapshot{Version: l.version, View: l.view()})
				}
				if msg.Reply != nil {
					msg.Reply <- err
				}

			case GetState:
				// reflect internal state without data races
				msg.Reply <- l.view()

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

func (l *Lobby) step(dt float64) {
	events := l.flow.Tick(dt, l.pool)
	if len(events) == 0 {
		return
	}
	l.version++
	l.broadcast(Snapshot{Version: l.version, Events: events, View: l.view()})
}

func (l *Lobby) view() View {
	st := l.flow.Stage()
	armed, remaining := st.Countdown()
	layout := st.Layout()
	return View{
		Version:    l.version,
		NumClients: len(l.clients),
		RunID:      l.flow.RunID(),
		Phase:      l.flow.Phase(),
		Stage:      st.Kind(),
		Columns:    layout.RowWidth,
		Candidates: layout.ItemCount,
		Slots:      st.Slots(),
		Ready:      st.Ready(),
		Armed:      armed,
		Remaining:  remaining,
		Votes:      st.Votes(),
		Roster:     l.flow.Roster(),
		Winner:     l.flow.Winner(),
	}
}

func (l *Lobby) shutdown() {
	for id, ch := range l.clients {
		close(ch) // Tell client no more snapshots
		delete(l.clients, id)
	}
	l.cancel()
	l.log.Info("lobby closed", zap.String("run", l.flow.RunID()))
}

func (l *Lobby) broadcast(snap Snapshot) {
	for id, ch := range l.clients {
		select {
		case ch <- snap:
			//ok
		default:
			// Client is slow/full - drop them.
			l.log.Warn("dropping slow client", zap.String("client", id))
			close(ch)
			delete(l.clients, id)
		}
	}
}

// Inbox exposes the inbox so tests or the WS layer can send messages.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

// Send delivers m unless the lobby has already stopped.
func (l *Lobby) Send(m Msg) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.inbox <- m:
		return true
	case <-l.done:
		return false
	}
}

// Pool is the device source this lobby samples every tick.
func (l *Lobby) Pool() *input.Pool { return l.pool }

// Done is closed once the loop has exited.
func (l *Lobby) Done() <-chan struct{} { return l.done }
