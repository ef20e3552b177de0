package types

// LobbyView is the display state sent with every snapshot and returned by
// GET /lobbies/{code}.
type LobbyView struct {
	Code       string     `json:"code,omitempty"`
	Version    int        `json:"version"`
	Clients    int        `json:"clients"`
	RunID      string     `json:"run_id"`
	Phase      string     `json:"phase"` // "characters" | "maps" | "done"
	Stage      string     `json:"stage"`
	Columns    int        `json:"columns"`
	Candidates int        `json:"candidates"`
	Slots      []SlotView `json:"slots"`
	Ready      bool       `json:"ready"`
	Countdown  Countdown  `json:"countdown"`
	Votes      []int      `json:"votes,omitempty"`
	Roster     []Pick     `json:"roster,omitempty"`
	Winner     *int       `json:"winner,omitempty"`
}

type SlotView struct {
	Index  int    `json:"index"`
	State  string `json:"state"` // "unjoined" | "browsing" | "locked"
	Device string `json:"device,omitempty"`
	Cursor int    `json:"cursor"`
	Choice *int   `json:"choice,omitempty"`
}

type Countdown struct {
	Armed       bool `json:"armed"`
	RemainingMS int  `json:"remaining_ms"`
}

type Pick struct {
	Slot   int `json:"slot"`
	Choice int `json:"choice"`
}

// RunView is a stored run as served by GET /runs/{run}.
type RunView struct {
	RunID  string `json:"run_id"`
	Roster []Pick `json:"roster"`
	Map    *int   `json:"map,omitempty"`
}

type Event struct {
	Type        string `json:"type"`
	Stage       string `json:"stage"`
	Slot        *int   `json:"slot,omitempty"`
	Index       int    `json:"index"`
	RemainingMS int    `json:"remaining_ms,omitempty"`
}
