package hub

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/DoyleJ11/couch-lobby/internal/config"
	"github.com/DoyleJ11/couch-lobby/internal/input"
	"github.com/DoyleJ11/couch-lobby/internal/lobby"
)

type HubMsg interface{ isHubMsg() }

// CreateLobby opens a lobby under Code. A nil Config uses the hub default.
// Reply gets the existing lobby if Code is taken, or nil if the config is
// rejected.
type CreateLobby struct {
	Code   string
	Config *config.Stage
	Reply  chan *lobby.Lobby
}

type GetLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

type EnsureLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

type RemoveLobby struct {
	Code  string
	Reply chan bool // optional
}

type ListLobbies struct {
	Reply chan []string
}

type ShutdownHub struct{}

func (CreateLobby) isHubMsg() {}
func (GetLobby) isHubMsg()    {}
func (EnsureLobby) isHubMsg() {}
func (RemoveLobby) isHubMsg() {}
func (ListLobbies) isHubMsg() {}
func (ShutdownHub) isHubMsg() {}

type Options struct {
	// Defaults is the stage config for lobbies created without one.
	Defaults config.Stage
	Handoff  lobby.Handoff
	TickHz   int
	Log      *zap.Logger
}

type Hub struct {
	inbox   chan HubMsg
	lobbies map[string]*lobby.Lobby
	opts    Options
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewHub(parent context.Context, opts Options) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Defaults.MaxSlots == 0 {
		opts.Defaults = config.Defaults()
	}
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		lobbies: make(map[string]*lobby.Lobby),
		opts:    opts,
		log:     opts.Log,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Send delivers m unless the hub has already stopped.
func (h *Hub) Send(m HubMsg) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.inbox <- m:
		return true
	case <-h.done:
		return false
	}
}

// Ask sends m and waits for its answer on reply. ok is false when the hub
// stopped before answering.
func Ask[T any](h *Hub, m HubMsg, reply <-chan T) (v T, ok bool) {
	if !h.Send(m) {
		return v, false
	}
	select {
	case v = <-reply:
		return v, true
	case <-h.done:
		select {
		case v = <-reply:
			return v, true
		default:
			return v, false
		}
	}
}

// Defaults is the stage config used when CreateLobby carries none.
func (h *Hub) Defaults() config.Stage { return h.opts.Defaults }

// Done is closed once every lobby has been told to stop.
func (h *Hub) Done() <-chan struct{} { return h.done }

func (h *Hub) loop() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateLobby:
				if lb := h.lobbies[msg.Code]; lb != nil {
					msg.Reply <- lb
					break
				}
				cfg := h.opts.Defaults
				if msg.Config != nil {
					cfg = *msg.Config
				}
				msg.Reply <- h.open(msg.Code, cfg)

			case GetLobby:
				msg.Reply <- h.lobbies[msg.Code] // May be nil

			case EnsureLobby:
				if lb := h.lobbies[msg.Code]; lb != nil {
					msg.Reply <- lb
					break
				}
				msg.Reply <- h.open(msg.Code, h.opts.Defaults)

			case RemoveLobby:
				lb, ok := h.lobbies[msg.Code]
				if ok {
					lb.Send(lobby.Shutdown{})
					delete(h.lobbies, msg.Code)
					h.log.Info("lobby removed", zap.String("code", msg.Code))
				}
				if msg.Reply != nil {
					msg.Reply <- ok
				}

			case ListLobbies:
				codes := make([]string, 0, len(h.lobbies))
				for code := range h.lobbies {
					codes = append(codes, code)
				}
				slices.Sort(codes)
				msg.Reply <- codes

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

// open returns nil when cfg does not validate.
func (h *Hub) open(code string, cfg config.Stage) *lobby.Lobby {
	log := h.log.With(zap.String("code", code))
	flow, err := lobby.NewFlow(cfg, lobby.Deps{Log: log}, h.opts.Handoff)
	if err != nil {
		log.Warn("lobby rejected", zap.Error(err))
		return nil
	}
	lb := lobby.NewLobby(h.ctx, flow, input.NewPool(), lobby.Options{TickHz: h.opts.TickHz, Log: log})
	h.lobbies[code] = lb
	log.Info("lobby created", zap.String("run", flow.RunID()))
	return lb
}

func (h *Hub) shutdown() {
	for _, lb := range h.lobbies {
		lb.Send(lobby.Shutdown{})
	}
	clear(h.lobbies)
	h.cancel()
}
