package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/couch-lobby/internal/hub"
	"github.com/DoyleJ11/couch-lobby/internal/input"
	"github.com/DoyleJ11/couch-lobby/internal/lobby"
	pub "github.com/DoyleJ11/couch-lobby/pkg/types"
)

func TestSession_MapsNamesToRemoteDevices(t *testing.T) {
	pool := input.NewPool()
	s := &session{pool: pool, devices: map[string]input.Device{}}

	require.Empty(t, s.handle(pub.ClientMessage{Type: pub.MsgConnect, Device: "pad0"}))
	require.Empty(t, s.handle(pub.ClientMessage{Type: pub.MsgSample, Device: "pad1", Any: true}))
	require.Len(t, pool.Connected(), 2)

	d0 := s.devices["pad0"]
	d1 := s.devices["pad1"]
	assert.Equal(t, input.KindRemote, d0.Kind)
	assert.NotEqual(t, d0, d1)
	assert.True(t, pool.Sample(d1).AnyButton)

	assert.Equal(t, "unknown type", s.handle(pub.ClientMessage{Type: "Dance", Device: "pad0"}))
	assert.Equal(t, "missing device", s.handle(pub.ClientMessage{Type: pub.MsgConnect}))
	assert.Equal(t, "unknown device", s.handle(pub.ClientMessage{Type: pub.MsgDisconnect, Device: "nope"}))

	require.Empty(t, s.handle(pub.ClientMessage{Type: pub.MsgDisconnect, Device: "pad0"}))
	assert.Equal(t, []input.Device{d1}, pool.Connected())

	s.disconnectAll()
	assert.Empty(t, pool.Connected())
}

func TestSession_DevicesUniqueAcrossConnections(t *testing.T) {
	pool := input.NewPool()
	a := &session{pool: pool, devices: map[string]input.Device{}}
	b := &session{pool: pool, devices: map[string]input.Device{}}
	assert.NotEqual(t, a.device("pad0"), b.device("pad0"))
}

func TestHandler_MissingCodeAndUnknownLobby(t *testing.T) {
	h := hub.NewHub(context.Background(), hub.Options{})
	defer h.Send(hub.ShutdownHub{})
	handler := Handler(h, nil)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/ws?code=NOPE", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_StoppedHub(t *testing.T) {
	h := hub.NewHub(context.Background(), hub.Options{})
	h.Send(hub.ShutdownHub{})
	<-h.Done()

	rec := httptest.NewRecorder()
	Handler(h, nil)(rec, httptest.NewRequest(http.MethodGet, "/ws?code=ROOM", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func readServer(t *testing.T, ctx context.Context, c *websocket.Conn) pub.ServerMessage {
	t.Helper()
	_, data, err := c.Read(ctx)
	require.NoError(t, err)
	var msg pub.ServerMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHandler_RemoteJoinShowsInSnapshot(t *testing.T) {
	h := hub.NewHub(context.Background(), hub.Options{TickHz: 50})
	defer h.Send(hub.ShutdownHub{})
	reply := make(chan *lobby.Lobby, 1)
	h.Send(hub.CreateLobby{Code: "ROOM", Reply: reply})
	require.NotNil(t, <-reply)

	srv := httptest.NewServer(Handler(h, nil))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?code=ROOM"
	c, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer c.Close(websocket.StatusNormalClosure, "")

	first := readServer(t, ctx, c)
	require.Equal(t, pub.MsgSnapshot, first.Type)
	require.NotNil(t, first.View)
	assert.Equal(t, "ROOM", first.View.Code)
	assert.Equal(t, "characters", first.View.Phase)

	payload, _ := json.Marshal(pub.ClientMessage{Type: pub.MsgSample, Device: "phone", Any: true})
	require.NoError(t, c.Write(ctx, websocket.MessageText, payload))

	sawJoin := false
	for {
		msg := readServer(t, ctx, c)
		if msg.Type == pub.MsgEvent && msg.Event.Type == "Joined" {
			sawJoin = true
			continue
		}
		if msg.Type == pub.MsgSnapshot && sawJoin {
			browsing := 0
			for _, s := range msg.View.Slots {
				if s.State == "browsing" {
					browsing++
				}
			}
			assert.Equal(t, 1, browsing)
			return
		}
	}
}

func TestHandler_BadJSONGetsError(t *testing.T) {
	h := hub.NewHub(context.Background(), hub.Options{})
	defer h.Send(hub.ShutdownHub{})
	reply := make(chan *lobby.Lobby, 1)
	h.Send(hub.CreateLobby{Code: "ROOM", Reply: reply})
	require.NotNil(t, <-reply)

	srv := httptest.NewServer(Handler(h, nil))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"?code=ROOM", nil)
	require.NoError(t, err)
	defer c.Close(websocket.StatusNormalClosure, "")

	_ = readServer(t, ctx, c) // initial snapshot
	require.NoError(t, c.Write(ctx, websocket.MessageText, []byte("{")))
	msg := readServer(t, ctx, c)
	assert.Equal(t, pub.MsgError, msg.Type)
	assert.Equal(t, "bad json", msg.Error)
}
