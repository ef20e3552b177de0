package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/couch-lobby/internal/hub"
	"github.com/DoyleJ11/couch-lobby/internal/input"
	"github.com/DoyleJ11/couch-lobby/internal/lobby"
	"github.com/DoyleJ11/couch-lobby/internal/types"
	pub "github.com/DoyleJ11/couch-lobby/pkg/types"
)

// remote device ids are unique across connections so two phones never share
// a slot binding.
var nextRemote atomic.Int64

const readTimeout = 60 * time.Second

func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		reply := make(chan *lobby.Lobby, 1)
		lb, ok := hub.Ask(h, hub.GetLobby{Code: code, Reply: reply}, reply)
		if !ok {
			http.Error(w, "server shutting down", http.StatusServiceUnavailable)
			return
		}
		if lb == nil {
			http.Error(w, "lobby not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// In dev ONLY, you can loosen origin checks:
			// OriginPatterns: []string{"http://localhost:*", "http://127.0.0.1:*"},
		})
		if err != nil {
			log.Debug("ws accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		clientID := uuid.NewString()
		log := log.With(zap.String("code", code), zap.String("client", clientID))
		out := make(chan lobby.Snapshot, 8)

		if !lb.Send(lobby.Join{ClientID: clientID, Outbox: out}) {
			return
		}
		defer lb.Send(lobby.Leave{ClientID: clientID})

		sess := &session{pool: lb.Pool(), devices: map[string]input.Device{}}
		defer sess.disconnectAll()

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for snap := range out {
				for _, e := range snap.Events {
					ev := types.Event(e)
					writeJSON(writeCtx, conn, pub.ServerMessage{Type: pub.MsgEvent, Version: snap.Version, Event: &ev})
				}
				view := types.View(code, snap.View)
				writeJSON(writeCtx, conn, pub.ServerMessage{Type: pub.MsgSnapshot, Version: snap.Version, View: &view})
			}
			// outbox closed: lobby gone or we were too slow
			conn.Close(websocket.StatusGoingAway, "lobby closed")
		}()

		// Reader loop
		for {
			ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
			_, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					log.Debug("ws read ended", zap.Error(err))
				}
				return
			}

			var cm pub.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				writeJSON(r.Context(), conn, pub.ServerMessage{Type: pub.MsgError, Error: "bad json"})
				continue
			}
			if errMsg := sess.handle(cm); errMsg != "" {
				writeJSON(r.Context(), conn, pub.ServerMessage{Type: pub.MsgError, Error: errMsg})
			}
		}
	}
}

// session tracks the devices one connection registered in the lobby pool.
type session struct {
	pool    *input.Pool
	devices map[string]input.Device
}

func (s *session) device(name string) input.Device {
	d, ok := s.devices[name]
	if !ok {
		d = input.Remote(int(nextRemote.Add(1)))
		s.devices[name] = d
	}
	return d
}

// handle applies one client message and returns an error string for the
// client, or "" on success.
func (s *session) handle(m pub.ClientMessage) string {
	if m.Device == "" {
		return "missing device"
	}
	switch m.Type {
	case pub.MsgConnect:
		s.pool.Connect(s.device(m.Device))
	case pub.MsgSample:
		s.pool.Push(s.device(m.Device), types.Sample(m))
	case pub.MsgDisconnect:
		d, ok := s.devices[m.Device]
		if !ok {
			return "unknown device"
		}
		s.pool.Disconnect(d)
		delete(s.devices, m.Device)
	default:
		return "unknown type"
	}
	return ""
}

func (s *session) disconnectAll() {
	for name, d := range s.devices {
		s.pool.Disconnect(d)
		delete(s.devices, name)
	}
}

func writeJSON(ctx context.Context, conn *websocket.Conn, msg pub.ServerMessage) {
	payload, _ := json.Marshal(msg)
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_ = conn.Write(ctx, websocket.MessageText, payload)
}
