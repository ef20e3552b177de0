package types

// Client -> Server, one JSON object per websocket message.
//
// Connect:    {"type":"Connect","device":"pad0"}
// Sample:     {"type":"Sample","device":"pad0","dx":1,"dy":0,"ax":0.0,"ay":0.0,
//              "submit":false,"cancel":false,"any":false}
// Disconnect: {"type":"Disconnect","device":"pad0"}
//
// Device names are local to one connection. Closing the socket disconnects
// every device the connection registered.
const (
	MsgConnect    = "Connect"
	MsgSample     = "Sample"
	MsgDisconnect = "Disconnect"
)

// Server -> Client.
const (
	MsgSnapshot = "Snapshot"
	MsgEvent    = "Event"
	MsgError    = "Error"
)

type ClientMessage struct {
	Type   string  `json:"type"`
	Device string  `json:"device,omitempty"`
	DX     int     `json:"dx,omitempty"`
	DY     int     `json:"dy,omitempty"`
	AX     float64 `json:"ax,omitempty"`
	AY     float64 `json:"ay,omitempty"`
	Submit bool    `json:"submit,omitempty"`
	Cancel bool    `json:"cancel,omitempty"`
	Any    bool    `json:"any,omitempty"`
}

type ServerMessage struct {
	Type    string     `json:"type"` // "Snapshot" | "Event" | "Error"
	Version int        `json:"version,omitempty"`
	View    *LobbyView `json:"view,omitempty"`
	Event   *Event     `json:"event,omitempty"`
	Error   string     `json:"error,omitempty"`
}
